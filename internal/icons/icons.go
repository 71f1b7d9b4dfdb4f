// Package icons selects the glyphs used by the player bar.
package icons

import "sync"

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the glyphs for one style.
type Icons struct {
	Play         string
	Pause        string
	Loading      string
	Stopped      string
	Volume       string
	VolumeMute   string
	Connected    string
	Connecting   string
	Disconnected string
	Current      string
}

var (
	nerdIcons = Icons{
		Play:         "\uf04b", // nf-fa-play
		Pause:        "\uf04c", // nf-fa-pause
		Loading:      "\uf110", // nf-fa-spinner
		Stopped:      "\uf04d", // nf-fa-stop
		Volume:       "󰕾",      // nf-md-volume_high
		VolumeMute:   "󰖁",      // nf-md-volume_off
		Connected:    "󰖩",      // nf-md-wifi
		Connecting:   "󰖪",      // nf-md-wifi_off
		Disconnected: "󰖪",
		Current:      "\uf001", // nf-fa-music
	}

	unicodeIcons = Icons{
		Play:         "▶",
		Pause:        "⏸",
		Loading:      "⋯",
		Stopped:      "■",
		Volume:       "🔊",
		VolumeMute:   "🔇",
		Connected:    "●",
		Connecting:   "◌",
		Disconnected: "○",
		Current:      "♪",
	}

	noneIcons = Icons{
		Play:         ">",
		Pause:        "||",
		Loading:      "..",
		Stopped:      "[]",
		Volume:       "vol",
		VolumeMute:   "mute",
		Connected:    "+",
		Connecting:   "~",
		Disconnected: "-",
		Current:      "*",
	}

	mu      sync.RWMutex
	current = unicodeIcons
)

// Init selects the icon style. Unknown styles fall back to unicode.
func Init(style string) {
	mu.Lock()
	defer mu.Unlock()
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	default:
		current = unicodeIcons
	}
}

// Get returns the active icon set.
func Get() Icons {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
