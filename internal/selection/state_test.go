package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var abcd = []string{"A", "B", "C", "D"}

func TestSelectReplacesSelection(t *testing.T) {
	s := NewState(abcd)
	s.Toggle("A")
	s.Toggle("B")

	assert.True(t, s.Select("C"))
	assert.Equal(t, []string{"C"}, s.SelectedIDs())
	assert.Equal(t, "C", s.Anchor())
}

func TestSelectUnknownIsNoop(t *testing.T) {
	s := NewState(abcd)
	s.Select("A")

	assert.False(t, s.Select("Z"))
	assert.Equal(t, []string{"A"}, s.SelectedIDs())
	assert.Equal(t, "A", s.Anchor())
}

func TestSelectableFollowsUniverse(t *testing.T) {
	s := NewState(abcd)
	assert.True(t, s.Selectable("B"))
	assert.False(t, s.Selectable("Z"))

	s.SetAvailable([]string{"A", "C"})
	assert.False(t, s.Selectable("B"))
}

func TestToggleAnchorsOnlyWhenAdding(t *testing.T) {
	s := NewState(abcd)
	s.Toggle("A")
	s.Toggle("C")
	assert.Equal(t, "C", s.Anchor())

	s.Toggle("C")
	assert.Equal(t, []string{"A"}, s.SelectedIDs())
	assert.Equal(t, "C", s.Anchor(), "removing does not re-anchor")
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := NewState(abcd)
		for _, id := range abcd {
			if r.Intn(2) == 0 {
				s.Toggle(id)
			}
		}
		before := s.SelectedIDs()
		x := abcd[r.Intn(len(abcd))]

		s.Toggle(x)
		s.Toggle(x)
		assert.Equal(t, before, s.SelectedIDs())
	}
}

func TestSelectRangeIsSymmetric(t *testing.T) {
	for _, a := range abcd {
		for _, b := range abcd {
			s1 := NewState(abcd)
			s1.SelectRange(a, b)
			s2 := NewState(abcd)
			s2.SelectRange(b, a)
			assert.Equal(t, s1.SelectedIDs(), s2.SelectedIDs(), "range %s..%s", a, b)
		}
	}
}

func TestSelectRangeReplacesAndFallsBack(t *testing.T) {
	s := NewState([]string{"A", "B", "C", "D", "E"})
	s.Select("E")

	s.SelectRange("D", "B")
	assert.Equal(t, []string{"B", "C", "D"}, s.SelectedIDs())

	s.SelectRange("gone", "A")
	assert.Equal(t, []string{"A"}, s.SelectedIDs())
	assert.Equal(t, "A", s.Anchor())

	assert.False(t, s.SelectRange("A", "gone"))
	assert.Equal(t, []string{"A"}, s.SelectedIDs())
}

func TestSelectAllAndDeselectAll(t *testing.T) {
	s := NewState(abcd)
	s.Select("B")

	s.SelectAll()
	assert.Equal(t, abcd, s.SelectedIDs())
	assert.Equal(t, "B", s.Anchor())

	s.DeselectAll()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Anchor())
	assert.False(t, s.DeselectAll(), "already empty")
}

func TestSelectionStaysWithinUniverse(t *testing.T) {
	universe := []string{"a", "b", "c", "d", "e", "f", "g"}
	r := rand.New(rand.NewSource(42))
	s := NewState(universe)

	pick := func() string {
		// Occasionally feed ids from outside the universe.
		if r.Intn(10) == 0 {
			return "stranger"
		}
		return universe[r.Intn(len(universe))]
	}

	for i := 0; i < 1000; i++ {
		switch r.Intn(3) {
		case 0:
			s.Select(pick())
		case 1:
			s.Toggle(pick())
		case 2:
			s.SelectRange(pick(), pick())
		}
		for _, id := range s.SelectedIDs() {
			assert.Contains(t, universe, id)
		}
		assert.Equal(t, len(s.selected), len(s.SelectedIDs()))
	}
}

func TestSetAvailablePrunesSelectionAndAnchor(t *testing.T) {
	s := NewState(abcd)
	s.SelectRange("A", "C")
	s.Toggle("D")
	assert.Equal(t, "D", s.Anchor())

	changed := s.SetAvailable([]string{"A", "C"})
	assert.True(t, changed)
	assert.Equal(t, []string{"A", "C"}, s.SelectedIDs())
	assert.Empty(t, s.Anchor())

	assert.False(t, s.SetAvailable([]string{"C", "A", "X"}))
	assert.Equal(t, []string{"C", "A"}, s.SelectedIDs(), "ordered by the new universe")
}

func TestResetClearsEverything(t *testing.T) {
	s := NewState(abcd)
	s.SelectAll()

	assert.True(t, s.Reset([]string{"X", "Y"}))
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, []string{"X", "Y"}, s.Available())
}

func TestNewStateDropsDuplicates(t *testing.T) {
	s := NewState([]string{"A", "B", "A", "C"})
	assert.Equal(t, []string{"A", "B", "C"}, s.Available())
}

func TestZeroValueState(t *testing.T) {
	var s State
	assert.False(t, s.Select("A"))
	assert.False(t, s.SelectAll())
	assert.Equal(t, 0, s.Count())
}
