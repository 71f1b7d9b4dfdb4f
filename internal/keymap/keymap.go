package keymap

// Context groups bindings on the help screen.
type Context string

const (
	ContextGlobal   Context = "global"
	ContextPlayback Context = "playback"
	ContextQueue    Context = "queue"
)

// Contexts lists the binding contexts in help order.
var Contexts = []Context{ContextPlayback, ContextQueue, ContextGlobal}

// Binding ties keys to an action.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     Context
}

// Bindings are the default key bindings.
var Bindings = []Binding{
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", ContextGlobal},
	{ActionHelp, []string{"?"}, "Show help", ContextGlobal},
	{ActionReconnect, []string{"ctrl+r"}, "Reconnect", ContextGlobal},

	{ActionPlayPause, []string{" "}, "Play/pause", ContextPlayback},
	{ActionStop, []string{"s"}, "Stop", ContextPlayback},
	{ActionNextTrack, []string{"n", "pgdown"}, "Next track", ContextPlayback},
	{ActionPrevTrack, []string{"p", "pgup"}, "Previous track", ContextPlayback},
	{ActionToggleDisplay, []string{"v"}, "Toggle player display", ContextPlayback},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", ContextPlayback},
	{ActionVolumeDown, []string{"-"}, "Volume down", ContextPlayback},
	{ActionToggleMute, []string{"m"}, "Mute", ContextPlayback},

	{ActionMoveUp, []string{"k", "up"}, "Move up", ContextQueue},
	{ActionMoveDown, []string{"j", "down"}, "Move down", ContextQueue},
	{ActionJumpStart, []string{"g", "home"}, "First track", ContextQueue},
	{ActionJumpEnd, []string{"G", "end"}, "Last track", ContextQueue},
	{ActionSelect, []string{"enter"}, "Play track", ContextQueue},
}

// ByContext returns the bindings of one context, in declaration order.
func ByContext(bindings []Binding, ctx Context) []Binding {
	var out []Binding
	for _, b := range bindings {
		if b.Context == ctx {
			out = append(out, b)
		}
	}
	return out
}
