package selection

import (
	"sync"
)

// Modifiers are the key flags forwarded with a click.
type Modifiers struct {
	Shift  bool // range modifier
	Toggle bool // ctrl on most platforms, cmd on macOS
}

// Snapshot is the read view handed to listeners and toolbars.
type Snapshot struct {
	Selected []string
	Count    int
	Anchor   string
}

func (s Snapshot) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Controller is the only way a container's selection is mutated. It is safe
// for concurrent use; listeners run outside the lock, in subscription order.
type Controller struct {
	mu        sync.RWMutex
	state     *State
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewController returns a controller over an empty selection of available.
func NewController(available []string) *Controller {
	return &Controller{state: NewState(available)}
}

// Subscribe registers fn for change notifications. The returned func removes it.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) mutate(op func(*State) bool) {
	c.mu.Lock()
	changed := op(c.state)
	var snap Snapshot
	var listeners []Listener
	if changed {
		snap = c.snapshotLocked()
		listeners = make([]Listener, len(c.listeners))
		for i, l := range c.listeners {
			listeners[i] = l.fn
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (c *Controller) Select(id string) {
	c.mutate(func(s *State) bool { return s.Select(id) })
}

func (c *Controller) Toggle(id string) {
	c.mutate(func(s *State) bool { return s.Toggle(id) })
}

func (c *Controller) SelectRange(from, to string) {
	c.mutate(func(s *State) bool { return s.SelectRange(from, to) })
}

func (c *Controller) SelectAll() {
	c.mutate(func(s *State) bool { return s.SelectAll() })
}

func (c *Controller) DeselectAll() {
	c.mutate(func(s *State) bool { return s.DeselectAll() })
}

// SetAvailable re-derives the universe after the container's items changed.
func (c *Controller) SetAvailable(ids []string) {
	c.mutate(func(s *State) bool { return s.SetAvailable(ids) })
}

// Reset is used when the container identity changes.
func (c *Controller) Reset(ids []string) {
	c.mutate(func(s *State) bool { return s.Reset(ids) })
}

// Click applies the hosting view's click contract: plain click selects,
// shift with an anchor extends a range, ctrl/cmd toggles. Shift wins when
// both modifiers are held.
func (c *Controller) Click(id string, mods Modifiers) {
	c.mutate(func(s *State) bool {
		switch {
		case mods.Shift && s.Anchor() != "":
			return s.SelectRange(s.Anchor(), id)
		case mods.Toggle:
			return s.Toggle(id)
		default:
			return s.Select(id)
		}
	})
}

func (c *Controller) IsSelected(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsSelected(id)
}

func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Count()
}

func (c *Controller) SelectedIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.SelectedIDs()
}

func (c *Controller) Available() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Available()
}

func (c *Controller) Selectable(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Selectable(id)
}

func (c *Controller) Anchor() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Anchor()
}

// Snapshot returns the current selection view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	ids := c.state.SelectedIDs()
	return Snapshot{Selected: ids, Count: len(ids), Anchor: c.state.Anchor()}
}
