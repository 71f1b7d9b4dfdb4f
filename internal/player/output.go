package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the audio sink. Lock and Unlock guard streamer state read by
// the audio goroutine.
type Output interface {
	Init(rate beep.SampleRate) error
	Rate() beep.SampleRate
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput is the process-wide beep speaker. It is initialized once,
// at the first source's sample rate; later sources are resampled.
type speakerOutput struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

func (o *speakerOutput) Init(rate beep.SampleRate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rate != 0 {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return err
	}
	o.rate = rate
	return nil
}

func (o *speakerOutput) Rate() beep.SampleRate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

func (o *speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (o *speakerOutput) Clear()               { speaker.Clear() }
func (o *speakerOutput) Lock()                { speaker.Lock() }
func (o *speakerOutput) Unlock()              { speaker.Unlock() }
