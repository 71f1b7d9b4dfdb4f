// Package lastfm scrobbles what the streaming session plays.
package lastfm

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/shkh/lastfm-go/lastfm"
)

const authEndpoint = "https://www.last.fm/api/auth/"

var (
	// ErrNotAuthenticated means there is no usable session key: none was
	// set, or Last.fm revoked it.
	ErrNotAuthenticated = errors.New("lastfm: not authenticated")
	// ErrRejected means Last.fm refused the request itself; retrying the
	// same payload cannot succeed.
	ErrRejected = errors.New("lastfm: request rejected")
)

// Last.fm API error codes, see https://www.last.fm/api/errorcodes.
const (
	codeInvalidParams   = 6
	codeAuthFailed      = 4
	codeInvalidSession  = 9
	codeUnauthorizedTok = 14
	codeSuspendedKey    = 26
)

// API is the part of the client the scrobbler needs.
type API interface {
	UpdateNowPlaying(track ScrobbleTrack) error
	Scrobble(track ScrobbleTrack) error
}

// Client talks to the Last.fm web service for one application key.
type Client struct {
	api    *lastfm.Api
	apiKey string

	mu         sync.Mutex
	sessionKey string
}

// New creates a client for the given application credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey}
}

// SetSessionKey authenticates the client with a stored session key.
func (c *Client) SetSessionKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionKey = key
	c.api.SetSession(key)
}

// IsAuthenticated reports whether a session key is set.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionKey != ""
}

// GetToken starts the desktop auth flow.
func (c *Client) GetToken() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", classify("get token", err)
	}
	return token, nil
}

// AuthURL is the page where the user approves token. Last.fm redirects to
// callback, when set, once access is granted.
func (c *Client) AuthURL(token, callback string) string {
	q := url.Values{"api_key": {c.apiKey}, "token": {token}}
	if callback != "" {
		q.Set("cb", callback)
	}
	return authEndpoint + "?" + q.Encode()
}

// GetSession trades an approved token for a session key and authenticates
// the client with it. The username is best effort.
func (c *Client) GetSession(token string) (username, sessionKey string, err error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return "", "", classify("get session", err)
	}
	sessionKey = c.api.GetSessionKey()
	c.SetSessionKey(sessionKey)

	info, err := c.api.User.GetInfo(nil)
	if err != nil {
		return "unknown", sessionKey, nil //nolint:nilerr // the session is valid without a name
	}
	return info.Name, sessionKey, nil
}

// UpdateNowPlaying announces the track currently playing.
func (c *Client) UpdateNowPlaying(track ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	_, err := c.api.Track.UpdateNowPlaying(track.params())
	return classify("update now playing", err)
}

// Scrobble submits a finished listen.
func (c *Client) Scrobble(track ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	p := track.params()
	p["timestamp"] = track.Timestamp.Unix()
	_, err := c.api.Track.Scrobble(p)
	return classify("scrobble", err)
}

// classify wraps a web service error so callers can tell a lost session
// and a refused payload from a transient failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *lastfm.LastfmError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeAuthFailed, codeInvalidSession, codeUnauthorizedTok, codeSuspendedKey:
			return fmt.Errorf("%s: %w: %s", op, ErrNotAuthenticated, apiErr.Message)
		case codeInvalidParams:
			return fmt.Errorf("%s: %w: %s", op, ErrRejected, apiErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
