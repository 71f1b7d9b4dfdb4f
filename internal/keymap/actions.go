// Package keymap defines the player's key bindings and resolves key
// presses to actions.
package keymap

// Action is something a key press can trigger.
type Action string

const (
	ActionQuit      Action = "quit"
	ActionHelp      Action = "help"
	ActionReconnect Action = "reconnect"

	ActionPlayPause     Action = "play_pause"
	ActionStop          Action = "stop"
	ActionNextTrack     Action = "next_track"
	ActionPrevTrack     Action = "prev_track"
	ActionToggleDisplay Action = "toggle_display"
	ActionVolumeUp      Action = "volume_up"
	ActionVolumeDown    Action = "volume_down"
	ActionToggleMute    Action = "toggle_mute"

	ActionMoveUp    Action = "move_up"
	ActionMoveDown  Action = "move_down"
	ActionJumpStart Action = "jump_start"
	ActionJumpEnd   Action = "jump_end"
	ActionSelect    Action = "select" // play the track under the cursor
)
