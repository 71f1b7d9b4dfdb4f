// Package styles holds the color palettes shared by the UI components.
package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colors a theme draws with.
type Palette struct {
	Accent lipgloss.Color // playing track, focused border

	Text   lipgloss.Color
	Muted  lipgloss.Color
	Subtle lipgloss.Color

	CursorBg lipgloss.Color
	Border   lipgloss.Color

	Success lipgloss.Color // connected
	Error   lipgloss.Color // blocking errors
	Warning lipgloss.Color // soft warnings, connecting
}

// Styles are the lipgloss styles derived from a palette.
type Styles struct {
	Base    lipgloss.Style
	Muted   lipgloss.Style
	Subtle  lipgloss.Style
	Title   lipgloss.Style
	Playing lipgloss.Style
	Cursor  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

// Theme pairs a palette with its styles.
type Theme struct {
	Palette
	styles Styles
}

var palettes = map[string]Palette{
	"dark": {
		Accent:   "#a78bfa",
		Text:     "#c0c0c0",
		Muted:    "#808080",
		Subtle:   "#585858",
		CursorBg: "#303030",
		Border:   "#585858",
		Success:  "#42b883",
		Error:    "#ff5555",
		Warning:  "#f1a208",
	},
	"light": {
		Accent:   "#6d28d9",
		Text:     "#262626",
		Muted:    "#525252",
		Subtle:   "#a3a3a3",
		CursorBg: "#e5e5e5",
		Border:   "#a3a3a3",
		Success:  "#15803d",
		Error:    "#b91c1c",
		Warning:  "#b45309",
	},
}

// DefaultTheme is the palette used when none is configured.
const DefaultTheme = "dark"

var (
	mu      sync.RWMutex
	current = newTheme(palettes[DefaultTheme])
)

// Init selects the palette by name. Unknown names keep the default and
// report false.
func Init(name string) bool {
	p, ok := palettes[name]
	if !ok {
		p = palettes[DefaultTheme]
	}
	t := newTheme(p)
	mu.Lock()
	current = t
	mu.Unlock()
	return ok
}

// T returns the active theme.
func T() *Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func newTheme(p Palette) *Theme {
	base := lipgloss.NewStyle().Foreground(p.Text)
	return &Theme{
		Palette: p,
		styles: Styles{
			Base:    base,
			Muted:   lipgloss.NewStyle().Foreground(p.Muted),
			Subtle:  lipgloss.NewStyle().Foreground(p.Subtle),
			Title:   base.Bold(true),
			Playing: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
			Cursor:  lipgloss.NewStyle().Background(p.CursorBg).Foreground(p.Text),
			Success: lipgloss.NewStyle().Foreground(p.Success),
			Error:   lipgloss.NewStyle().Foreground(p.Error),
			Warning: lipgloss.NewStyle().Foreground(p.Warning),
		},
	}
}

// S returns the theme's styles.
func (t *Theme) S() *Styles {
	return &t.styles
}

// Panel returns a rounded panel style, highlighted when focused.
func (t *Theme) Panel(focused bool) lipgloss.Style {
	color := t.Border
	if focused {
		color = t.Accent
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color)
}
