// Package transport owns the single persistent socket to the streaming
// endpoint. The endpoint URL carries the user's identity, so a connection is
// never shared across users.
package transport

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/identity"
)

const DefaultReconnectDelay = 5 * time.Second

// Options configures a Connector.
type Options struct {
	URL            string
	UserParam      string // query parameter carrying the user id
	ReconnectDelay time.Duration
	Dialer         Dialer
	Identity       identity.Provider
	Logger         *zap.Logger
}

// Connector manages connect, reconnect-with-delay and teardown.
//
// Every connection belongs to a generation. Disconnect and identity changes
// bump the generation, so a read loop that ends afterwards knows its close
// was planned and schedules nothing.
type Connector struct {
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	handler  Handler
	status   Status
	conn     Conn
	connID   string
	userID   string
	gen      uint64
	wanted   bool
	closed   bool
	retry    *time.Timer
	retrySeq uint64
	retries  int

	writeMu sync.Mutex
}

// New creates a disconnected Connector.
func New(opts Options) *Connector {
	if opts.UserParam == "" {
		opts.UserParam = "userId"
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		opts:    opts,
		logger:  logger,
		handler: nopHandler{},
	}
}

// SetHandler installs the receiver of status changes and frames.
func (c *Connector) SetHandler(h Handler) {
	if h == nil {
		h = nopHandler{}
	}
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Status returns the current connection status.
func (c *Connector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ReconnectPending reports whether a reconnect timer is armed.
func (c *Connector) ReconnectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retry != nil
}

// Endpoint returns the URL for userID.
func (c *Connector) Endpoint(userID string) (string, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(c.opts.UserParam, userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect opens the connection. It is a no-op while connected (to the same
// identity) or connecting. Without an identity it fails without dialing;
// an open socket stays open and only the failure is reported. A dial
// failure arms the reconnect timer.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status == StatusConnecting {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	var userID string
	idErr := ErrNoIdentity
	if c.opts.Identity != nil {
		userID, idErr = c.opts.Identity.UserID(ctx)
	}
	if idErr != nil {
		cerr := &ConnError{Op: "identify", Msg: ErrNoIdentity.Error()}
		c.logger.Warn("connect without identity", zap.Error(idErr))
		c.notify(c.Status(), cerr)
		return errors.Join(ErrNoIdentity, idErr)
	}

	endpoint, err := c.Endpoint(userID)
	if err != nil {
		cerr := sanitize("dial", err)
		c.notify(StatusDisconnected, cerr)
		return cerr
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.wanted = true
	switch {
	case c.status == StatusConnecting:
		c.mu.Unlock()
		return nil
	case c.status == StatusConnected && c.userID == userID:
		c.mu.Unlock()
		return nil
	case c.status == StatusConnected:
		c.logger.Info("identity changed, reconnecting",
			zap.String("conn_id", c.connID))
		c.teardownLocked()
	}
	c.stopRetryLocked()
	c.gen++
	gen := c.gen
	c.status = StatusConnecting
	c.mu.Unlock()

	c.notify(StatusConnecting, nil)

	conn, err := c.opts.Dialer.Dial(ctx, endpoint)

	c.mu.Lock()
	if gen != c.gen {
		// Disconnected or superseded while dialing.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if err != nil {
		cerr := sanitize("dial", err)
		c.status = StatusDisconnected
		c.scheduleRetryLocked()
		c.mu.Unlock()
		c.logger.Warn("dial failed", zap.String("error", cerr.Msg))
		c.notify(StatusDisconnected, cerr)
		return cerr
	}
	c.conn = conn
	c.connID = uuid.NewString()
	c.userID = userID
	c.status = StatusConnected
	c.retries = 0
	connID := c.connID
	c.mu.Unlock()

	c.logger.Info("connected", zap.String("conn_id", connID), zap.String("user_id", userID))
	c.notify(StatusConnected, nil)

	go c.readLoop(conn, gen, connID)
	return nil
}

// Disconnect cancels any pending reconnect and closes the socket. The close
// is planned, so no reconnect follows.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	c.wanted = false
	c.stopRetryLocked()
	changed := c.status != StatusDisconnected
	c.teardownLocked()
	c.mu.Unlock()

	if changed {
		c.notify(StatusDisconnected, nil)
	}
}

// Close disconnects permanently.
func (c *Connector) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Disconnect()
}

// Send writes one text frame. Frames leave in call order.
func (c *Connector) Send(data []byte) error {
	c.mu.Lock()
	if c.status != StatusConnected || c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	connID := c.connID
	c.writeMu.Lock()
	c.mu.Unlock()

	err := conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		cerr := sanitize("send", err)
		c.logger.Warn("send failed", zap.String("conn_id", connID), zap.String("error", cerr.Msg))
		// The read loop sees the close and takes the reconnect path.
		_ = conn.Close()
		return cerr
	}
	return nil
}

func (c *Connector) readLoop(conn Conn, gen uint64, connID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosed(gen, connID, err)
			return
		}
		c.mu.Lock()
		current := gen == c.gen
		h := c.handler
		c.mu.Unlock()
		if !current {
			return
		}
		h.HandleFrame(data)
	}
}

func (c *Connector) handleClosed(gen uint64, connID string, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.status = StatusDisconnected
	c.scheduleRetryLocked()
	c.mu.Unlock()

	cerr := sanitize("read", err)
	c.logger.Warn("connection lost", zap.String("conn_id", connID), zap.String("error", cerr.Msg))
	c.notify(StatusDisconnected, cerr)
}

// scheduleRetryLocked arms the reconnect timer unless one is pending.
func (c *Connector) scheduleRetryLocked() {
	if !c.wanted || c.closed || c.retry != nil {
		return
	}
	c.retries++
	c.logger.Debug("reconnect scheduled",
		zap.Duration("delay", c.opts.ReconnectDelay),
		zap.Int("attempt", c.retries))
	c.retrySeq++
	seq := c.retrySeq
	c.retry = time.AfterFunc(c.opts.ReconnectDelay, func() { c.reconnect(seq) })
}

func (c *Connector) reconnect(seq uint64) {
	c.mu.Lock()
	if c.retry == nil || c.retrySeq != seq {
		c.mu.Unlock()
		return
	}
	c.retry = nil
	ok := c.wanted && !c.closed && c.status == StatusDisconnected
	c.mu.Unlock()
	if !ok {
		return
	}
	_ = c.Connect(context.Background())
}

func (c *Connector) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Connector) teardownLocked() {
	c.gen++
	if c.conn != nil {
		_ = c.conn.Close()
		c.logger.Info("disconnected", zap.String("conn_id", c.connID))
	}
	c.conn = nil
	c.connID = ""
	c.userID = ""
	c.status = StatusDisconnected
}

func (c *Connector) notify(status Status, err *ConnError) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if err == nil {
		h.HandleStatus(status, nil)
		return
	}
	h.HandleStatus(status, err)
}
