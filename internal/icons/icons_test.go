package icons

import "testing"

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init("") })

	tests := []struct {
		style string
		want  Icons
	}{
		{"nerd", nerdIcons},
		{"unicode", unicodeIcons},
		{"none", noneIcons},
		{"", unicodeIcons},
		{"bogus", unicodeIcons},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			Init(tt.style)
			if got := Get(); got != tt.want {
				t.Errorf("Get() after Init(%q) = %+v, want %+v", tt.style, got, tt.want)
			}
		})
	}
}

func TestIconSetsAreComplete(t *testing.T) {
	for name, set := range map[string]Icons{"nerd": nerdIcons, "unicode": unicodeIcons, "none": noneIcons} {
		for field, glyph := range map[string]string{
			"Play": set.Play, "Pause": set.Pause, "Loading": set.Loading, "Stopped": set.Stopped,
			"Volume": set.Volume, "VolumeMute": set.VolumeMute, "Connected": set.Connected,
			"Disconnected": set.Disconnected,
		} {
			if glyph == "" {
				t.Errorf("%s icons: %s is empty", name, field)
			}
		}
	}
}
