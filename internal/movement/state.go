package movement

import (
	"stockdesk/internal/models"
)

// State is derived from an item, never stored: InStock or Exited.
type State interface {
	isState()
}

// InStock holds while the item's quantity is positive.
type InStock struct {
	Status models.ItemStatus
}

// Exited is terminal.
type Exited struct {
	ReasonCode string
}

func (InStock) isState() {}
func (Exited) isState()  {}

// StateOf derives the state of item.
func StateOf(item *models.Item) State {
	if item.IsExited() {
		code := ""
		if item.LastExitReasonCode != nil {
			code = *item.LastExitReasonCode
		}
		return Exited{ReasonCode: code}
	}
	return InStock{Status: item.Status}
}

// Kind is the transition family a movement type triggers.
type Kind int

const (
	KindEntry Kind = iota
	KindExit
	KindTransfer
)

// CanTransition reports whether kind may be applied from s. Entry only
// applies to a new item (nil state); Exited has no outbound transitions.
func CanTransition(s State, kind Kind) bool {
	switch s.(type) {
	case nil:
		return kind == KindEntry
	case InStock:
		return kind == KindExit || kind == KindTransfer
	default:
		return false
	}
}

// AvailableIDs projects items onto the selectable universe: in-stock ids in
// list order. Exited items never appear, whatever their status says.
func AvailableIDs(items []*models.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil && it.Selectable() {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Badge returns the reason label for an exited item and false for items still
// in stock.
func Badge(item *models.Item) (string, bool) {
	ex, ok := StateOf(item).(Exited)
	if !ok {
		return "", false
	}
	return models.ReasonBadge(ex.ReasonCode), true
}
