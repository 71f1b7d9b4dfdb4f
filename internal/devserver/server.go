// Package devserver is a wire-compatible stand-in for the streaming backend
// and the catalog gateway. It backs the end-to-end tests and the
// `alephplay devserver` command.
package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/protocol"
)

const (
	msgUnknownCommand = "Tipo de comando no reconocido"
	serviceName       = "streaming-ms"
)

// Options configures a Server.
type Options struct {
	Catalog   *Catalog
	UserParam string // query parameter carrying the user id
	MediaDir  string // served under /media/ when set
	// LegacyResume answers resume like the original backend did: as an
	// unrecognized command.
	LegacyResume bool
	Logger       *zap.Logger
}

// Play is one accounting entry: a track started by a user and, once a stop
// arrived, closed.
type Play struct {
	TrackID   string
	StartedAt time.Time
	StoppedAt time.Time // zero while open
}

// Open reports whether no stop closed the entry yet.
func (p Play) Open() bool { return p.StoppedAt.IsZero() }

// Server is the reference backend.
type Server struct {
	catalog      *Catalog
	userParam    string
	mediaDir     string
	legacyResume bool
	logger       *zap.Logger
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	plays    map[string][]Play
	commands map[string][]protocol.Command
	conns    map[*websocket.Conn]string
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.UserParam == "" {
		opts.UserParam = "userId"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		catalog:      opts.Catalog,
		userParam:    opts.UserParam,
		mediaDir:     opts.MediaDir,
		legacyResume: opts.LegacyResume,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		plays:    make(map[string][]Play),
		commands: make(map[string][]protocol.Command),
		conns:    make(map[*websocket.Conn]string),
	}
}

// Catalog returns the served catalog.
func (s *Server) Catalog() *Catalog { return s.catalog }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/music/graphql", s.handleGraphQL).Methods(http.MethodPost)
	if s.mediaDir != "" {
		router.PathPrefix("/media/").Handler(
			http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}
	return router
}

// Plays returns the accounting entries of userID in start order.
func (s *Server) Plays(userID string) []Play {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Play(nil), s.plays[userID]...)
}

// Commands returns every command userID sent, in arrival order.
func (s *Server) Commands(userID string) []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Command(nil), s.commands[userID]...)
}

// Connections returns the number of open sockets of userID.
func (s *Server) Connections(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.conns {
		if u == userID {
			n++
		}
	}
	return n
}

// DropConnections closes every open socket abruptly, as a crashing
// backend would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get(s.userParam)
	if userID == "" {
		http.Error(w, "missing "+s.userParam, http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	connID := uuid.NewString()
	s.mu.Lock()
	s.conns[conn] = userID
	s.mu.Unlock()
	s.logger.Info("client connected", zap.String("conn_id", connID), zap.String("user_id", userID))

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
		s.logger.Info("client disconnected", zap.String("conn_id", connID))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			s.logger.Debug("bad frame", zap.String("conn_id", connID), zap.Error(err))
			if err := s.write(conn, protocol.Event{Kind: protocol.EventError, Message: msgUnknownCommand}); err != nil {
				return
			}
			continue
		}
		s.logger.Debug("command", zap.String("conn_id", connID), zap.String("command", cmd.String()))
		if err := s.write(conn, s.answer(userID, cmd)); err != nil {
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, ev protocol.Event) error {
	data, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// answer applies cmd to the user's accounting and builds the reply.
func (s *Server) answer(userID string, cmd protocol.Command) protocol.Event {
	s.mu.Lock()
	s.commands[userID] = append(s.commands[userID], cmd)
	s.mu.Unlock()

	switch cmd.Kind {
	case protocol.CommandPlay:
		t, ok := s.catalog.Get(cmd.TrackID)
		if !ok {
			return protocol.Event{
				Kind:    protocol.EventError,
				Message: "No se pudo obtener la canción: canción no encontrada o error en GraphQL",
			}
		}
		if t.AudioURL == "" {
			return protocol.Event{
				Kind: protocol.EventError,
				Message: fmt.Sprintf("La canción '%s' no tiene audio disponible. Audio URL no configurado en la base de datos.",
					t.Title),
			}
		}
		s.mu.Lock()
		s.plays[userID] = append(s.plays[userID], Play{TrackID: t.ID, StartedAt: time.Now()})
		s.mu.Unlock()
		return protocol.Event{
			Kind:    protocol.EventSongData,
			Message: "Reproduciendo: " + t.Title,
			Song:    toPayload(t),
		}

	case protocol.CommandPause:
		return status(fmt.Sprintf("Canción %s pausada", cmd.TrackID))

	case protocol.CommandStop:
		s.closePlay(userID, cmd.TrackID)
		return status(fmt.Sprintf("Canción %s detenida", cmd.TrackID))

	case protocol.CommandResume:
		if s.legacyResume {
			return protocol.Event{Kind: protocol.EventError, Message: msgUnknownCommand}
		}
		return status(fmt.Sprintf("Canción %s reanudada", cmd.TrackID))
	}
	return protocol.Event{Kind: protocol.EventError, Message: msgUnknownCommand}
}

func (s *Server) closePlay(userID, trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plays := s.plays[userID]
	for i := len(plays) - 1; i >= 0; i-- {
		if plays[i].TrackID == trackID && plays[i].Open() {
			plays[i].StoppedAt = time.Now()
			return
		}
	}
}

func status(msg string) protocol.Event {
	return protocol.Event{Kind: protocol.EventStatus, Message: msg}
}

func toPayload(t catalog.Track) *protocol.SongPayload {
	return &protocol.SongPayload{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		ImageURL: t.CoverURL,
		AudioURL: t.AudioURL,
		Duration: protocol.Duration(t.Duration.Seconds()),
	}
}
