package gesture

import (
	"sync"
	"time"
)

// FrameScheduler runs fn on the next animation frame. The returned func
// cancels the request if it has not run yet.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// TimerFrames schedules frames with a timer, for hosts without a display
// refresh callback.
type TimerFrames struct {
	Interval time.Duration
}

func (f TimerFrames) RequestFrame(fn func()) func() {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	t := time.AfterFunc(interval, fn)
	return func() { t.Stop() }
}

// ManualFrames queues frames until Flush is called. It is used by tests and
// by hosts that drive rendering from their own loop.
type ManualFrames struct {
	mu      sync.Mutex
	pending map[int]func()
	order   []int
	next    int
}

func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[int]func())}
}

func (f *ManualFrames) RequestFrame(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	id := f.next
	f.pending[id] = fn
	f.order = append(f.order, id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.pending, id)
	}
}

// Pending returns how many requested frames have not run or been cancelled.
func (f *ManualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Flush runs every pending frame in request order.
func (f *ManualFrames) Flush() {
	f.mu.Lock()
	var run []func()
	for _, id := range f.order {
		if fn, ok := f.pending[id]; ok {
			run = append(run, fn)
		}
	}
	f.pending = make(map[int]func())
	f.order = nil
	f.mu.Unlock()

	for _, fn := range run {
		fn()
	}
}
