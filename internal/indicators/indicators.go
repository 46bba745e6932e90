package indicators

import (
	"math/rand"
	"sync"
	"time"

	"InterviewCoach/internal/schedule"
)

// ElapsedTimer counts whole ticks while recording is on.
type ElapsedTimer struct {
	interval time.Duration

	mu      sync.Mutex
	task    *schedule.Task
	elapsed time.Duration
}

// NewElapsedTimer returns a stopped timer that advances by interval per tick.
func NewElapsedTimer(interval time.Duration) *ElapsedTimer {
	return &ElapsedTimer{interval: interval}
}

// Toggle starts or stops the timer and reports whether it is now running.
func (e *ElapsedTimer) Toggle() bool {
	if e.Running() {
		e.Stop()
		return false
	}
	e.Start()
	return true
}

// Start resumes counting from the current value.
func (e *ElapsedTimer) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.task != nil {
		return
	}
	e.task = schedule.Every(e.interval, func(int) bool {
		e.mu.Lock()
		e.elapsed += e.interval
		e.mu.Unlock()
		return true
	})
}

// Stop pauses the timer.
func (e *ElapsedTimer) Stop() {
	e.mu.Lock()
	task := e.task
	e.task = nil
	e.mu.Unlock()
	task.Stop()
}

func (e *ElapsedTimer) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task != nil
}

func (e *ElapsedTimer) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// DefaultEmotions are the labels shown by the simulated emotion indicator.
var DefaultEmotions = []string{"confident", "focused", "thoughtful", "engaged", "nervous"}

// EmotionCycler picks a random label on every tick. The labels are cosmetic
// and not derived from any capture.
type EmotionCycler struct {
	interval time.Duration
	labels   []string
	pick     func(n int) int

	mu      sync.Mutex
	task    *schedule.Task
	current string
}

func NewEmotionCycler(interval time.Duration, labels []string) *EmotionCycler {
	if len(labels) == 0 {
		labels = DefaultEmotions
	}
	return &EmotionCycler{
		interval: interval,
		labels:   labels,
		pick:     rand.Intn,
		current:  labels[0],
	}
}

func (c *EmotionCycler) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		return
	}
	c.task = schedule.Every(c.interval, func(int) bool {
		c.mu.Lock()
		c.current = c.labels[c.pick(len(c.labels))]
		c.mu.Unlock()
		return true
	})
}

func (c *EmotionCycler) Stop() {
	c.mu.Lock()
	task := c.task
	c.task = nil
	c.mu.Unlock()
	task.Stop()
}

// Current returns the label on display.
func (c *EmotionCycler) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
