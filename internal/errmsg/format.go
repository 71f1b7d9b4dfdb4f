// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Connection operations
	OpConnect    Op = "connect to streaming service"
	OpReconnect  Op = "reconnect to streaming service"
	OpSend       Op = "send command"
	OpDecodeMsg  Op = "process server message"
	OpIdentify   Op = "identify user"
	OpDisconnect Op = "disconnect"

	// Playback operations
	OpPlay      Op = "play track"
	OpPause     Op = "pause track"
	OpResume    Op = "resume track"
	OpStop      Op = "stop track"
	OpStream    Op = "stream track"
	OpLoadMedia Op = "load audio"

	// Catalog operations
	OpCatalogLookup Op = "look up track"

	// History and scrobbling
	OpHistoryRecord Op = "record listen"
	OpHistoryLoad   Op = "load listening history"
	OpScrobble      Op = "scrobble track"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Warning formats a non-blocking message reported by the server.
func Warning(op Op, context, msg string) string {
	if msg == "" {
		return ""
	}
	if context == "" {
		return fmt.Sprintf("Cannot %s: %s", op, msg)
	}
	return fmt.Sprintf("Cannot %s '%s': %s", op, context, msg)
}
