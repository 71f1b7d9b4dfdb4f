package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/protocol"
)

var testTracks = []catalog.Track{
	{ID: "t1", Title: "One", Artist: "A", AudioURL: "http://media/t1.mp3", Duration: 3 * time.Minute},
	{ID: "t2", Title: "Two", Artist: "B", AudioURL: "http://media/t2.mp3"},
	{ID: "mute", Title: "Mute", Artist: "C"},
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog(testTracks...)
	}
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, cmd protocol.Command) protocol.Event {
	t.Helper()
	data, err := protocol.EncodeCommand(cmd)
	require.NoError(t, err)
	return roundTripRaw(t, conn, data)
}

func roundTripRaw(t *testing.T, conn *websocket.Conn, data []byte) protocol.Event {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, err := protocol.DecodeEvent(reply)
	require.NoError(t, err)
	return ev
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "streaming-ms", body["service"])
}

func TestServer_RejectsMissingUser(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Commands(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantKind protocol.EventKind
		wantMsg  string
	}{
		{"play", `{"type":"play","songId":"t1"}`, protocol.EventSongData, "Reproduciendo: One"},
		{"pause", `{"type":"pause","songId":"t1"}`, protocol.EventStatus, "Canción t1 pausada"},
		{"stop", `{"type":"stop","songId":"t1"}`, protocol.EventStatus, "Canción t1 detenida"},
		{"resume", `{"type":"resume","songId":"t1"}`, protocol.EventStatus, "Canción t1 reanudada"},
		{"unknown track", `{"type":"play","songId":"nope"}`, protocol.EventError, "No se pudo obtener la canción"},
		{"no audio", `{"type":"play","songId":"mute"}`, protocol.EventError, "no tiene audio disponible"},
		{"unknown command", `{"type":"seek","songId":"t1"}`, protocol.EventError, "Tipo de comando no reconocido"},
		{"garbage", `not json`, protocol.EventError, "Tipo de comando no reconocido"},
	}
	_, ts := newTestServer(t, Options{})
	conn := dial(t, ts, "u1")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := roundTripRaw(t, conn, []byte(tt.frame))
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Contains(t, ev.Message, tt.wantMsg)
		})
	}
}

func TestServer_SongDataCarriesTrack(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	conn := dial(t, ts, "u1")

	ev := roundTrip(t, conn, protocol.Play("t1"))

	require.NotNil(t, ev.Song)
	track := catalog.FromPayload(ev.Song)
	assert.Equal(t, "t1", track.ID)
	assert.Equal(t, "http://media/t1.mp3", track.AudioURL)
	assert.Equal(t, 3*time.Minute, track.Duration)
}

func TestServer_LegacyResume(t *testing.T) {
	_, ts := newTestServer(t, Options{LegacyResume: true})
	conn := dial(t, ts, "u1")

	ev := roundTrip(t, conn, protocol.Resume("t1"))

	assert.Equal(t, protocol.EventError, ev.Kind)
	assert.Equal(t, "Tipo de comando no reconocido", ev.Message)
}

func TestServer_Accounting(t *testing.T) {
	srv, ts := newTestServer(t, Options{})
	conn := dial(t, ts, "u1")
	other := dial(t, ts, "u2")

	roundTrip(t, conn, protocol.Play("t1"))
	roundTrip(t, conn, protocol.Stop("t1"))
	roundTrip(t, conn, protocol.Play("t2"))
	roundTrip(t, other, protocol.Play("t1"))

	plays := srv.Plays("u1")
	require.Len(t, plays, 2)
	assert.False(t, plays[0].Open())
	assert.True(t, plays[1].Open())
	assert.Equal(t, "t2", plays[1].TrackID)
	assert.Len(t, srv.Plays("u2"), 1)
	assert.Len(t, srv.Commands("u1"), 3)
	assert.Equal(t, 1, srv.Connections("u1"))
}

func TestServer_DropConnections(t *testing.T) {
	srv, ts := newTestServer(t, Options{})
	conn := dial(t, ts, "u1")
	roundTrip(t, conn, protocol.Pause("t1"))

	srv.DropConnections()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Eventually(t, func() bool { return srv.Connections("u1") == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestGraphQL_SongByID(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	client := catalog.NewClient(ts.URL, time.Second)

	track, err := client.Lookup(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "One", track.Title)
	assert.Equal(t, "A", track.Artist)
	assert.Equal(t, 3*time.Minute, track.Duration)

	_, err = client.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGraphQL_UnsupportedQuery(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Post(ts.URL+"/api/v1/music/graphql", "application/json",
		strings.NewReader(`{"query":"{ albums { id } }"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body graphqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "unsupported query", body.Errors[0].Message)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Artist - Title.mp3", "plain.FLAC", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755))

	tracks, err := ScanDir(dir, "http://localhost:8080/")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	c := NewCatalog(tracks...)
	got, ok := c.Get("Artist - Title")
	require.True(t, ok)
	assert.Equal(t, "Artist", got.Artist)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, "http://localhost:8080/media/Artist - Title.mp3", got.AudioURL)

	plain, ok := c.Get("plain")
	require.True(t, ok)
	assert.Empty(t, plain.Artist)
	assert.Equal(t, "plain", plain.Title)
}

func TestDemoTracks(t *testing.T) {
	c := NewCatalog(DemoTracks("http://x")...)

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "demo-1", list[0].ID)
	silent, ok := c.Get("demo-silent")
	require.True(t, ok)
	assert.Empty(t, silent.AudioURL)
}
