package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tags a quantity or location affecting event on an item.
type MovementType string

const (
	// Entry kinds
	MovementPurchase       MovementType = "PURCHASE"
	MovementCustomerReturn MovementType = "CUSTOMER_RETURN"

	// Exit kinds
	MovementSale           MovementType = "SALE"
	MovementProduction     MovementType = "PRODUCTION"
	MovementSample         MovementType = "SAMPLE"
	MovementSupplierReturn MovementType = "SUPPLIER_RETURN"
	MovementLoss           MovementType = "LOSS"

	// Location change, quantity neutral
	MovementTransfer MovementType = "TRANSFER"
)

func (t MovementType) IsEntry() bool {
	return t == MovementPurchase || t == MovementCustomerReturn
}

func (t MovementType) IsExit() bool {
	_, ok := exitTypes[ExitType(t)]
	return ok
}

func (t MovementType) IsTransfer() bool {
	return t == MovementTransfer
}

func (t MovementType) Valid() bool {
	return t.IsEntry() || t.IsExit() || t.IsTransfer()
}

// ParseMovementType accepts any casing and surrounding whitespace.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown movement type %q", s)
	}
	return t, nil
}

// ExitType is the closed set of reasons an item can leave stock. Transfer is
// deliberately not a member.
type ExitType string

const (
	ExitSale           ExitType = ExitType(MovementSale)
	ExitProduction     ExitType = ExitType(MovementProduction)
	ExitSample         ExitType = ExitType(MovementSample)
	ExitSupplierReturn ExitType = ExitType(MovementSupplierReturn)
	ExitLoss           ExitType = ExitType(MovementLoss)
)

var exitTypes = map[ExitType]string{
	ExitSale:           "Vendido",
	ExitProduction:     "Uso interno",
	ExitSample:         "Muestra",
	ExitSupplierReturn: "Devuelto a proveedor",
	ExitLoss:           "Pérdida",
}

// ExitTypes lists the exit reasons in the order they are offered to users.
func ExitTypes() []ExitType {
	return []ExitType{ExitSale, ExitProduction, ExitSample, ExitSupplierReturn, ExitLoss}
}

func (t ExitType) Valid() bool {
	_, ok := exitTypes[t]
	return ok
}

func (t ExitType) MovementType() MovementType {
	return MovementType(t)
}

// ParseExitType rejects anything outside the exit set, TRANSFER included.
func ParseExitType(s string) (ExitType, error) {
	t := ExitType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown exit type %q", s)
	}
	return t, nil
}

// GenericExitBadge is shown for exit reason codes the UI does not recognise.
const GenericExitBadge = "Salida"

// ReasonBadge returns the display label for an exit reason code.
func ReasonBadge(code string) string {
	if label, ok := exitTypes[ExitType(strings.ToUpper(code))]; ok {
		return label
	}
	return GenericExitBadge
}

// Movement is an immutable record of a quantity or location affecting event.
type Movement struct {
	ID           string          `json:"id" db:"id"`
	ItemID       string          `json:"item_id" db:"item_id"`
	MovementType MovementType    `json:"movement_type" db:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"`
	ReasonCode   string          `json:"reason_code,omitempty" db:"reason_code"`
	Notes        string          `json:"notes,omitempty" db:"notes"`
	FromLocation *string         `json:"from_location,omitempty" db:"from_location"`
	ToLocation   *string         `json:"to_location,omitempty" db:"to_location"`
	OccurredAt   time.Time       `json:"occurred_at" db:"occurred_at"`
}

// CostInfo is the optional purchase cost captured on entry.
type CostInfo struct {
	UnitCost decimal.Decimal `json:"unit_cost"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
}

// BatchInfo is the optional lot information captured on entry.
type BatchInfo struct {
	LotNumber  string     `json:"lot_number" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}
