package transport

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var (
	// ErrNoIdentity is returned by Connect when no user id is available.
	ErrNoIdentity = errors.New("no user identity")
	// ErrNotConnected is returned by Send when the socket is not open.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("connector closed")
)

// ConnError is a sanitized connectivity failure. It carries only the
// operation and a message; the underlying error value is not retained.
type ConnError struct {
	Op  string
	Msg string
}

func (e *ConnError) Error() string {
	return e.Op + ": " + e.Msg
}

// sanitize extracts a plain description from err.
func sanitize(op string, err error) *ConnError {
	if err == nil {
		return nil
	}
	var ce *ConnError
	if errors.As(err, &ce) {
		return &ConnError{Op: op, Msg: ce.Msg}
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		msg := fmt.Sprintf("connection closed (code %d)", closeErr.Code)
		if closeErr.Text != "" {
			msg += ": " + closeErr.Text
		}
		return &ConnError{Op: op, Msg: msg}
	}
	return &ConnError{Op: op, Msg: err.Error()}
}
