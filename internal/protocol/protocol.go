// Package protocol defines the JSON frames exchanged with the streaming
// backend over the persistent session socket.
//
// Client frames carry a command for one track:
//
//	{"type": "play", "songId": "<id>"}
//
// Server frames are tagged by "type" and are not ordered relative to the
// commands that triggered them:
//
//	{"type": "song_data", "message": "...", "song": {...}}
//	{"type": "status", "message": "..."}
//	{"type": "error", "message": "..."}
//
// Both tag spaces are open: unknown kinds decode without error so the client
// tolerates server additions.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CommandKind is the discriminant of a client-to-server frame.
type CommandKind string

const (
	CommandPlay   CommandKind = "play"
	CommandPause  CommandKind = "pause"
	CommandStop   CommandKind = "stop"
	CommandResume CommandKind = "resume"
)

// Known reports whether k is one of the commands this client emits.
func (k CommandKind) Known() bool {
	switch k {
	case CommandPlay, CommandPause, CommandStop, CommandResume:
		return true
	default:
		return false
	}
}

// Command is a control message for a single track.
type Command struct {
	Kind    CommandKind `json:"type"`
	TrackID string      `json:"songId"`
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.TrackID)
}

// Play, Pause, Stop and Resume build commands for the given track.
func Play(id string) Command   { return Command{Kind: CommandPlay, TrackID: id} }
func Pause(id string) Command  { return Command{Kind: CommandPause, TrackID: id} }
func Stop(id string) Command   { return Command{Kind: CommandStop, TrackID: id} }
func Resume(id string) Command { return Command{Kind: CommandResume, TrackID: id} }

// ErrEmptyTrackID is returned when encoding a command without a track.
var ErrEmptyTrackID = errors.New("command has no track id")

// EncodeCommand serializes a command to a text frame.
func EncodeCommand(c Command) ([]byte, error) {
	if !c.Kind.Known() {
		return nil, fmt.Errorf("encode command: unknown kind %q", c.Kind)
	}
	if c.TrackID == "" {
		return nil, fmt.Errorf("encode %s: %w", c.Kind, ErrEmptyTrackID)
	}
	return json.Marshal(c)
}

// DecodeCommand parses a client frame. Unknown kinds are returned as-is so a
// server can answer them; only unparseable frames or a missing tag fail.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, &DecodeError{Raw: data, Err: err}
	}
	if c.Kind == "" {
		return Command{}, &DecodeError{Raw: data, Err: errMissingType}
	}
	return c, nil
}

var errMissingType = errors.New(`missing "type" tag`)

// DecodeError reports a frame that could not be decoded. Callers treat it as
// a per-frame failure; the connection stays open.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
