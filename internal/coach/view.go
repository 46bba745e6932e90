package coach

import (
	"fmt"
	"io"
	"sync"
	"time"

	"InterviewCoach/internal/typewriter"
)

// console serializes writes from the REPL and the reveal goroutines.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, s)
}

func (c *console) printf(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...))
}

func (c *console) println(args ...any) {
	c.write(fmt.Sprintln(args...))
}

// revealView prints a typewriter reveal to the console, one rune at a time.
type revealView struct {
	out    *console
	header func() string
	tw     *typewriter.Presenter

	mu      sync.Mutex
	target  string
	printed int
}

func newRevealView(out *console, interval time.Duration, header func() string) *revealView {
	v := &revealView{out: out, header: header}
	v.tw = typewriter.New(interval, v.render)
	return v
}

func (v *revealView) Reveal(text string) <-chan struct{} {
	v.tw.Stop()

	v.mu.Lock()
	if v.printed > 0 && v.printed < len(v.target) {
		// Abandoned mid-line.
		v.out.write("\n")
	}
	v.target = text
	v.printed = 0
	v.mu.Unlock()

	if v.header != nil {
		v.out.write(v.header())
	}
	if text == "" {
		v.out.write("\n")
	}
	return v.tw.Reveal(text)
}

func (v *revealView) render(shown string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(shown) <= v.printed {
		return
	}
	v.out.write(shown[v.printed:])
	v.printed = len(shown)
	if shown == v.target {
		v.out.write("\n")
	}
}

func (v *revealView) Stop() {
	v.tw.Stop()
}

// Flush stops the reveal and prints whatever is left of it at once.
func (v *revealView) Flush() {
	v.tw.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.printed < len(v.target) {
		v.out.write(v.target[v.printed:] + "\n")
		v.printed = len(v.target)
	}
}

// Revealing reports whether the reveal is still advancing.
func (v *revealView) Revealing() bool {
	return v.tw.Revealing()
}

// Text returns what has been revealed so far.
func (v *revealView) Text() string {
	return v.tw.Text()
}
