package player

import "time"

// Play starts or resumes playback. While loading, it records the single
// pending play intent that readiness resolves.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Loading:
		p.pendingPlay = true
	case Paused:
		p.startLocked(p.gen)
	case Stopped, Playing:
		// Nothing loaded, or already playing
	}
}

// Pause pauses playback, or drops the pending intent while loading.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Loading:
		p.pendingPlay = false
	case Playing:
		p.output.Lock()
		p.ctrl.Paused = true
		p.output.Unlock()
		p.stopTickerLocked()
		p.state = Paused
	case Stopped, Paused:
	}
}

// Stop stops playback and releases the source. Results of an in-flight
// load are discarded.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Stopped && p.source == "" {
		return
	}
	p.settleLocked()
	p.gen++
	p.state = Stopped
	p.source = ""
	p.pendingPlay = false
}

func (p *Player) startLocked(gen uint64) {
	if p.ctrl == nil {
		return
	}
	p.output.Lock()
	p.ctrl.Paused = false
	p.output.Unlock()
	p.state = Playing
	p.startTickerLocked(gen)
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}
	p.output.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	p.output.Unlock()
	return pos
}

// Duration returns the length of the loaded source.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

func (p *Player) startTickerLocked(gen uint64) {
	p.stopTickerLocked()
	stop := make(chan struct{})
	p.stopTicker = stop
	go p.positionLoop(gen, stop)
}

func (p *Player) stopTickerLocked() {
	if p.stopTicker != nil {
		close(p.stopTicker)
		p.stopTicker = nil
	}
}

// positionLoop samples the position while the generation is current.
func (p *Player) positionLoop(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if gen != p.gen || p.state != Playing {
				p.mu.Unlock()
				return
			}
			ev := Event{
				Kind:     EventPosition,
				Source:   p.source,
				Position: p.positionLocked(),
				Duration: p.format.SampleRate.D(p.streamer.Len()),
			}
			fn := p.onEvent
			p.mu.Unlock()
			emit(fn, ev)
		}
	}
}
