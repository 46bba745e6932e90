package typewriter

import (
	"sync"
	"time"

	"InterviewCoach/internal/schedule"
)

// RenderFunc receives the text revealed so far after every tick.
type RenderFunc func(shown string)

// Presenter reveals text one rune per tick. Starting a new reveal abandons
// the one in progress.
type Presenter struct {
	interval time.Duration
	render   RenderFunc

	revealMu sync.Mutex // serializes Reveal and Stop

	mu    sync.Mutex
	task  *schedule.Task
	text  []rune
	shown int
}

// New creates a presenter. render may be nil and is never called
// concurrently with itself; it must not call back into the presenter.
func New(interval time.Duration, render RenderFunc) *Presenter {
	if render == nil {
		render = func(string) {}
	}
	return &Presenter{interval: interval, render: render}
}

// Reveal starts revealing text from empty. The returned channel is closed
// once the whole text is shown; it is never closed for an abandoned reveal.
func (p *Presenter) Reveal(text string) <-chan struct{} {
	p.revealMu.Lock()
	defer p.revealMu.Unlock()

	p.halt()

	done := make(chan struct{})
	runes := []rune(text)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.text = runes
	p.shown = 0
	if len(runes) == 0 {
		close(done)
		return done
	}

	p.task = schedule.Every(p.interval, func(int) bool {
		p.mu.Lock()
		p.shown++
		shown := string(p.text[:p.shown])
		finished := p.shown == len(p.text)
		p.mu.Unlock()

		p.render(shown)
		if finished {
			close(done)
		}
		return !finished
	})
	return done
}

// Text returns what is currently displayed.
func (p *Presenter) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.text[:p.shown])
}

// Revealing reports whether a reveal is still in progress.
func (p *Presenter) Revealing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task != nil && p.shown < len(p.text)
}

// Stop halts the current reveal, leaving the partial text displayed.
func (p *Presenter) Stop() {
	p.revealMu.Lock()
	defer p.revealMu.Unlock()
	p.halt()
}

func (p *Presenter) halt() {
	p.mu.Lock()
	task := p.task
	p.task = nil
	p.mu.Unlock()

	// Waiting happens outside the lock: the tick function takes it too.
	task.Stop()
}
