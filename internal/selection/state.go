// Package selection holds the multi-selection state of one item container and
// the operations allowed on it.
package selection

// State is the selection of one container. The zero value is an empty
// selection over an empty universe.
type State struct {
	available []string
	index     map[string]int
	selected  map[string]struct{}
	anchor    string
}

// NewState returns an empty selection over the given universe. Duplicate ids
// keep their first position.
func NewState(available []string) *State {
	s := &State{}
	s.setUniverse(available)
	return s
}

func (s *State) setUniverse(available []string) {
	s.available = make([]string, 0, len(available))
	s.index = make(map[string]int, len(available))
	for _, id := range available {
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = len(s.available)
		s.available = append(s.available, id)
	}
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}
}

func (s *State) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Selectable reports whether id is part of the universe.
func (s *State) Selectable(id string) bool { return s.has(id) }

// Select replaces the selection with id and anchors on it. Ids outside the
// universe are ignored.
func (s *State) Select(id string) bool {
	if !s.has(id) {
		return false
	}
	changed := len(s.selected) != 1 || !s.IsSelected(id) || s.anchor != id
	s.selected = map[string]struct{}{id: {}}
	s.anchor = id
	return changed
}

// Toggle flips membership of id. Adding re-anchors, removing does not.
func (s *State) Toggle(id string) bool {
	if !s.has(id) {
		return false
	}
	if s.IsSelected(id) {
		delete(s.selected, id)
		return true
	}
	s.selected[id] = struct{}{}
	s.anchor = id
	return true
}

// SelectRange replaces the selection with the inclusive slice of the universe
// between from and to, in either order. An unknown from falls back to
// Select(to). The anchor is left where it was so repeated shift-clicks pivot
// on the same item.
func (s *State) SelectRange(from, to string) bool {
	fromIdx, ok := s.index[from]
	if !ok {
		return s.Select(to)
	}
	toIdx, ok := s.index[to]
	if !ok {
		return false
	}
	if fromIdx > toIdx {
		fromIdx, toIdx = toIdx, fromIdx
	}

	next := make(map[string]struct{}, toIdx-fromIdx+1)
	for _, id := range s.available[fromIdx : toIdx+1] {
		next[id] = struct{}{}
	}
	changed := !sameSet(s.selected, next)
	s.selected = next
	if s.anchor == "" {
		s.anchor = from
		changed = true
	}
	return changed
}

// SelectAll selects the whole universe. The anchor is unchanged.
func (s *State) SelectAll() bool {
	next := make(map[string]struct{}, len(s.available))
	for _, id := range s.available {
		next[id] = struct{}{}
	}
	changed := !sameSet(s.selected, next)
	s.selected = next
	return changed
}

// DeselectAll empties the selection and clears the anchor.
func (s *State) DeselectAll() bool {
	changed := len(s.selected) > 0 || s.anchor != ""
	s.selected = make(map[string]struct{})
	s.anchor = ""
	return changed
}

// SetAvailable installs a new universe. Selected ids that left it are dropped
// and the anchor is cleared if it left too.
func (s *State) SetAvailable(available []string) bool {
	before := len(s.selected)
	anchor := s.anchor
	s.setUniverse(available)
	for id := range s.selected {
		if !s.has(id) {
			delete(s.selected, id)
		}
	}
	if s.anchor != "" && !s.has(s.anchor) {
		s.anchor = ""
	}
	return before != len(s.selected) || anchor != s.anchor
}

// Reset clears the selection and installs a new universe, as when the
// container identity changes.
func (s *State) Reset(available []string) bool {
	changed := len(s.selected) > 0 || s.anchor != ""
	s.selected = make(map[string]struct{})
	s.anchor = ""
	s.setUniverse(available)
	return changed
}

func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

func (s *State) Count() int {
	return len(s.selected)
}

// Anchor returns the id shift-range operations start from, or "".
func (s *State) Anchor() string {
	return s.anchor
}

// Available returns a copy of the universe in rendering order.
func (s *State) Available() []string {
	return append([]string(nil), s.available...)
}

// SelectedIDs returns the selection in universe order.
func (s *State) SelectedIDs() []string {
	out := make([]string, 0, len(s.selected))
	for _, id := range s.available {
		if s.IsSelected(id) {
			out = append(out, id)
		}
	}
	return out
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
