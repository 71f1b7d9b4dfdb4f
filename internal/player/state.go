package player

// State is the media driver's state.
//
//	┌──────────┐   Load   ┌──────────┐  ready, play pending  ┌──────────┐
//	│ Stopped  │ ───────▶ │ Loading  │ ────────────────────▶ │ Playing  │
//	└──────────┘          └──────────┘                       └──────────┘
//	     ▲                     │ ready, no play pending        │ ▲
//	     │ Stop / ended        ▼                         Pause │ │ Play
//	     │                ┌──────────┐ ◀───────────────────────┘ │
//	     └─────────────── │  Paused  │ ──────────────────────────┘
//	                      └──────────┘
//
// Play while Loading records a single pending intent; Pause or Stop while
// Loading clears it. Load from any state settles the previous source first.
type State int

const (
	Stopped State = iota
	Loading
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a source is ready (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing || s == Loading
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused || s == Loading
}
