package gesture

import "sync"

// Box is one rendered item and its bounding box.
type Box struct {
	ID   string
	Rect Rect
}

// Layout records where items are rendered, in rendering order. Items
// re-registering keep their original position.
type Layout struct {
	mu    sync.RWMutex
	boxes []Box
	index map[string]int
}

func NewLayout() *Layout {
	return &Layout{index: make(map[string]int)}
}

// Register adds or updates the bounding box of id.
func (l *Layout) Register(id string, rect Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.index[id]; ok {
		l.boxes[i].Rect = rect
		return
	}
	l.index[id] = len(l.boxes)
	l.boxes = append(l.boxes, Box{ID: id, Rect: rect})
}

// Unregister drops id, as when its card unmounts.
func (l *Layout) Unregister(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return
	}
	l.boxes = append(l.boxes[:i], l.boxes[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.boxes); j++ {
		l.index[l.boxes[j].ID] = j
	}
}

// Replace installs a whole layout at once, in rendering order.
func (l *Layout) Replace(boxes []Box) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.boxes = l.boxes[:0]
	l.index = make(map[string]int, len(boxes))
	for _, b := range boxes {
		if _, dup := l.index[b.ID]; dup {
			continue
		}
		l.index[b.ID] = len(l.boxes)
		l.boxes = append(l.boxes, b)
	}
}

func (l *Layout) Clear() {
	l.Replace(nil)
}

// Boxes returns a copy of the registered boxes in rendering order.
func (l *Layout) Boxes() []Box {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Box(nil), l.boxes...)
}

func (l *Layout) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.boxes)
}

// HitTest returns the ids whose boxes, shrunk by margin, intersect rect. The
// result follows rendering order, not the order the drag crossed them.
func HitTest(boxes []Box, rect Rect, margin float64) []string {
	var hits []string
	for _, b := range boxes {
		if b.Rect.Inset(margin).Intersects(rect) {
			hits = append(hits, b.ID)
		}
	}
	return hits
}
