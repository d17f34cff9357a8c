package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the condition of an in-stock item. It carries no meaning once
// the item has exited.
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusReserved  ItemStatus = "RESERVED"
	ItemStatusInTransit ItemStatus = "IN_TRANSIT"
	ItemStatusDamaged   ItemStatus = "DAMAGED"
	ItemStatusExpired   ItemStatus = "EXPIRED"
	ItemStatusDisposed  ItemStatus = "DISPOSED"
)

var itemStatuses = map[ItemStatus]struct{}{
	ItemStatusAvailable: {},
	ItemStatusReserved:  {},
	ItemStatusInTransit: {},
	ItemStatusDamaged:   {},
	ItemStatusExpired:   {},
	ItemStatusDisposed:  {},
}

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	_, ok := itemStatuses[s]
	return ok
}

// Item is a physical or lot-tracked inventory unit belonging to a variant.
type Item struct {
	ID                 string            `json:"id" db:"id"`
	VariantID          string            `json:"variant_id" db:"variant_id"`
	CurrentQuantity    decimal.Decimal   `json:"current_quantity" db:"current_quantity"`
	Status             ItemStatus        `json:"status,omitempty" db:"status"`
	LocationRef        *string           `json:"location_ref,omitempty" db:"location_ref"`
	Attributes         map[string]string `json:"attributes,omitempty" db:"attributes"`
	LastExitReasonCode *string           `json:"last_exit_reason_code,omitempty" db:"last_exit_reason_code"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}

// IsExited reports whether the item has left stock. A zero quantity is the
// terminal marker; status is ignored.
func (i *Item) IsExited() bool {
	return !i.CurrentQuantity.IsPositive()
}

// Selectable reports whether the item may be part of a selection.
func (i *Item) Selectable() bool {
	return !i.IsExited()
}

// Actionable reports whether movements may be requested for the item.
func (i *Item) Actionable() bool {
	return !i.IsExited()
}

// Location returns the location reference or "" when absent.
func (i *Item) Location() string {
	if i.LocationRef == nil {
		return ""
	}
	return *i.LocationRef
}

// VisibleAttributes returns the declared subset of the attribute bag, in
// declared order. Keys missing from the item are skipped.
func VisibleAttributes(item *Item, declared []string) []Attribute {
	if item == nil || len(item.Attributes) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(declared))
	for _, key := range declared {
		if v, ok := item.Attributes[key]; ok {
			out = append(out, Attribute{Key: key, Value: v})
		}
	}
	return out
}

// Attribute is a single key/value pair surfaced in list views.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ItemFilter narrows a variant's item listing.
type ItemFilter struct {
	VariantID     string       `json:"variant_id"`
	Statuses      []ItemStatus `json:"statuses,omitempty"`
	LocationRef   *string      `json:"location_ref,omitempty"`
	IncludeExited bool         `json:"include_exited,omitempty"`
	Limit         int          `json:"limit,omitempty"`
	Offset        int          `json:"offset,omitempty"`
}
