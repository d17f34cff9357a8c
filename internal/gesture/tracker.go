package gesture

import (
	"sync"

	"go.uber.org/zap"
)

// Defaults measured against dense card grids.
const (
	DefaultDragThreshold = 5.0
	DefaultInnerMargin   = 10.0
)

// Selector is the part of the selection controller a drag drives.
type Selector interface {
	DeselectAll()
	SelectRange(from, to string)
	// Selectable reports whether id can join the selection. Cards of exited
	// items are laid out but never selectable.
	Selectable(id string) bool
}

// Phase is the gesture state. Exactly one of Idle, Armed or Dragging.
type Phase interface {
	phaseName() string
}

// Idle: no pointer is down over the container.
type Idle struct{}

// Armed: the pointer went down but has not moved past the threshold.
type Armed struct {
	Origin Point
}

// Dragging: the rubber band is visible.
type Dragging struct {
	Origin  Point
	Current Point
	Rect    Rect // last rendered rectangle

	cancelFrame func()
}

func (Idle) phaseName() string      { return "idle" }
func (Armed) phaseName() string     { return "armed" }
func (*Dragging) phaseName() string { return "dragging" }

// PhaseName is used in logs and tests.
func PhaseName(p Phase) string { return p.phaseName() }

// Options tune the tracker.
type Options struct {
	Threshold   float64
	InnerMargin float64
	// Render is called whenever the visible rectangle changes. visible is
	// false when the rectangle should be removed.
	Render func(r Rect, visible bool)
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{Threshold: DefaultDragThreshold, InnerMargin: DefaultInnerMargin}
}

// Tracker runs the Idle -> Armed -> Dragging -> Idle machine for one
// container. Move and up handling is only live while a gesture is in
// progress; Cancel discards everything.
type Tracker struct {
	mu       sync.Mutex
	phase    Phase
	gen      uint64
	selector Selector
	layout   *Layout
	frames   FrameScheduler
	opts     Options
	logger   *zap.Logger
}

func NewTracker(selector Selector, layout *Layout, frames FrameScheduler, opts Options) *Tracker {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultDragThreshold
	}
	if opts.InnerMargin < 0 {
		opts.InnerMargin = 0
	}
	if frames == nil {
		frames = TimerFrames{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		phase:    Idle{},
		selector: selector,
		layout:   layout,
		frames:   frames,
		opts:     opts,
		logger:   logger,
	}
}

// Phase returns the current gesture state.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d, ok := t.phase.(*Dragging); ok {
		cp := *d
		cp.cancelFrame = nil
		return &cp
	}
	return t.phase
}

// Listening reports whether drag scoped move/up handling is attached.
func (t *Tracker) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, idle := t.phase.(Idle)
	return !idle
}

// Rectangle returns the rendered rubber band, only while dragging.
func (t *Tracker) Rectangle() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d, ok := t.phase.(*Dragging); ok {
		return d.Rect, true
	}
	return Rect{}, false
}

// PointerDown arms a gesture. Downs that land on an item starting its own
// drag, or that arrive mid-gesture, are ignored. Selection is untouched.
func (t *Tracker) PointerDown(p Point, onDraggableItem bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if onDraggableItem {
		return false
	}
	if _, idle := t.phase.(Idle); !idle {
		return false
	}
	t.gen++
	t.phase = Armed{Origin: p}
	return true
}

// PointerMove promotes an armed gesture to a drag once the threshold is
// passed, clearing the selection at that instant. While dragging, redraws
// are coalesced onto the next frame.
func (t *Tracker) PointerMove(p Point) {
	t.mu.Lock()

	switch ph := t.phase.(type) {
	case Armed:
		if !exceeds(ph.Origin, p, t.opts.Threshold) {
			t.mu.Unlock()
			return
		}
		d := &Dragging{Origin: ph.Origin, Current: p, Rect: RectFromPoints(ph.Origin, p)}
		t.phase = d
		rect := d.Rect
		t.mu.Unlock()

		t.selector.DeselectAll()
		t.render(rect, true)
		return

	case *Dragging:
		ph.Current = p
		if ph.cancelFrame == nil {
			gen := t.gen
			ph.cancelFrame = t.frames.RequestFrame(func() { t.frame(gen) })
		}
	}
	t.mu.Unlock()
}

func (t *Tracker) frame(gen uint64) {
	t.mu.Lock()
	d, ok := t.phase.(*Dragging)
	if !ok || t.gen != gen {
		t.mu.Unlock()
		return
	}
	d.cancelFrame = nil
	d.Rect = RectFromPoints(d.Origin, d.Current)
	rect := d.Rect
	t.mu.Unlock()

	t.render(rect, true)
}

// PointerUp ends the gesture. A plain click (never left Armed) changes
// nothing. A drag selects the contiguous range spanned by the selectable items
// its final rectangle hits; those ids are returned in rendering order.
func (t *Tracker) PointerUp(p Point) []string {
	t.mu.Lock()

	d, dragging := t.phase.(*Dragging)
	if !dragging {
		t.phase = Idle{}
		t.mu.Unlock()
		return nil
	}
	if d.cancelFrame != nil {
		d.cancelFrame()
	}
	t.phase = Idle{}
	t.gen++
	rect := RectFromPoints(d.Origin, p)
	t.mu.Unlock()

	t.render(Rect{}, false)

	var boxes []Box
	if t.layout != nil {
		boxes = t.layout.Boxes()
	}
	hits := t.selectable(HitTest(boxes, rect, t.opts.InnerMargin))
	if len(hits) > 0 {
		t.selector.SelectRange(hits[0], hits[len(hits)-1])
	}
	t.logger.Debug("rubber band released",
		zap.Int("hits", len(hits)),
		zap.Float64("width", rect.Width()),
		zap.Float64("height", rect.Height()),
	)
	return hits
}

// Cancel discards the gesture without touching selection, as on unmount or
// a release outside the container.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	d, dragging := t.phase.(*Dragging)
	if dragging && d.cancelFrame != nil {
		d.cancelFrame()
	}
	t.phase = Idle{}
	t.gen++
	t.mu.Unlock()

	if dragging {
		t.render(Rect{}, false)
	}
}

func (t *Tracker) selectable(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if t.selector.Selectable(id) {
			out = append(out, id)
		}
	}
	return out
}

func (t *Tracker) render(r Rect, visible bool) {
	if t.opts.Render != nil {
		t.opts.Render(r, visible)
	}
}
