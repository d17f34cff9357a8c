package movement

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockdesk/internal/models"
)

var validate = validator.New()

// Attribute keys written by PlanEntry from the cost and batch information.
const (
	AttrUnitCost   = "unit_cost"
	AttrCurrency   = "currency"
	AttrLotNumber  = "lot_number"
	AttrExpiresAt  = "expires_at"
	AttrReceivedAt = "received_at"
)

// EntryTarget identifies where a new item is created.
type EntryTarget struct {
	VariantID string `json:"variant_id" validate:"required"`
}

// EntryRequest creates a new item in stock.
type EntryRequest struct {
	MovementType models.MovementType `json:"movement_type"`
	Quantity     decimal.Decimal     `json:"quantity" validate:"-"`
	LocationRef  string              `json:"location_ref"`
	Cost         *models.CostInfo    `json:"cost,omitempty"`
	Batch        *models.BatchInfo   `json:"batch,omitempty"`
	Attributes   map[string]string   `json:"attributes,omitempty"`
	Notes        string              `json:"notes,omitempty" validate:"max=2000"`
}

// ExitRequest takes an item out of stock. The quantity is always the item's
// whole current quantity. ReasonCode defaults to the exit type.
type ExitRequest struct {
	ExitType   models.ExitType `json:"exit_type"`
	ReasonCode string          `json:"reason_code,omitempty" validate:"max=64"`
	Notes      string          `json:"notes,omitempty" validate:"max=2000"`
}

// TransferRequest moves an item to another location, quantity and status
// unchanged.
type TransferRequest struct {
	Destination string `json:"destination"`
	Notes       string `json:"notes,omitempty" validate:"max=2000"`
}

// ValidateEntry checks an entry before anything is submitted.
func ValidateEntry(target EntryTarget, req EntryRequest) error {
	if err := validate.Struct(target); err != nil {
		return invalid("variant_id", err)
	}
	if !req.MovementType.IsEntry() {
		return invalid("movement_type", ErrNotEntryType)
	}
	if !req.Quantity.IsPositive() {
		return invalid("quantity", ErrInvalidQuantity)
	}
	if strings.TrimSpace(req.LocationRef) == "" {
		return invalid("location_ref", ErrMissingLocation)
	}
	if req.Cost != nil && req.Cost.UnitCost.IsNegative() {
		return invalid("cost.unit_cost", errors.New("unit cost cannot be negative"))
	}
	return structErr(validate.Struct(req))
}

// ValidateExit checks an exit request independently of any item.
func ValidateExit(req ExitRequest) error {
	if !req.ExitType.Valid() {
		return invalid("exit_type", ErrInvalidExitType)
	}
	return structErr(validate.Struct(req))
}

// ValidateTransfer checks a transfer request. Whether the destination differs
// from the current location is left to the stock service.
func ValidateTransfer(req TransferRequest) error {
	if strings.TrimSpace(req.Destination) == "" {
		return invalid("destination", ErrMissingLocation)
	}
	return structErr(validate.Struct(req))
}

func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return invalid(strings.ToLower(fe.Field()), fe)
	}
	return err
}

// PlanEntry builds the new item and its entry movement. The item starts
// InStock(AVAILABLE).
func PlanEntry(target EntryTarget, req EntryRequest, now time.Time) (*models.Item, models.Movement, error) {
	if err := ValidateEntry(target, req); err != nil {
		return nil, models.Movement{}, err
	}
	loc := strings.TrimSpace(req.LocationRef)
	attrs := make(map[string]string, len(req.Attributes))
	for k, v := range req.Attributes {
		attrs[k] = v
	}
	if req.Cost != nil {
		attrs[AttrUnitCost] = req.Cost.UnitCost.String()
		if req.Cost.Currency != "" {
			attrs[AttrCurrency] = strings.ToUpper(req.Cost.Currency)
		}
	}
	if req.Batch != nil {
		attrs[AttrLotNumber] = req.Batch.LotNumber
		if req.Batch.ExpiresAt != nil {
			attrs[AttrExpiresAt] = req.Batch.ExpiresAt.UTC().Format(time.RFC3339)
		}
		if req.Batch.ReceivedAt != nil {
			attrs[AttrReceivedAt] = req.Batch.ReceivedAt.UTC().Format(time.RFC3339)
		}
	}

	item := &models.Item{
		ID:              uuid.NewString(),
		VariantID:       target.VariantID,
		CurrentQuantity: req.Quantity,
		Status:          models.ItemStatusAvailable,
		LocationRef:     &loc,
		Attributes:      attrs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	mv := models.Movement{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		MovementType: req.MovementType,
		Quantity:     req.Quantity,
		ReasonCode:   string(req.MovementType),
		Notes:        req.Notes,
		ToLocation:   &loc,
		OccurredAt:   now,
	}
	return item, mv, nil
}

// PlanExit builds the exit movement for item, consuming its entire quantity.
func PlanExit(item *models.Item, req ExitRequest, now time.Time) (models.Movement, error) {
	if err := ValidateExit(req); err != nil {
		return models.Movement{}, err
	}
	if !CanTransition(StateOf(item), KindExit) {
		return models.Movement{}, ErrItemExited
	}
	reason := req.ReasonCode
	if reason == "" {
		reason = string(req.ExitType)
	}
	return models.Movement{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		MovementType: req.ExitType.MovementType(),
		Quantity:     item.CurrentQuantity,
		ReasonCode:   reason,
		Notes:        req.Notes,
		FromLocation: item.LocationRef,
		OccurredAt:   now,
	}, nil
}

// PlanTransfer builds the location change for item. Quantity on the record is
// informational; the item's quantity does not change.
func PlanTransfer(item *models.Item, req TransferRequest, now time.Time) (models.Movement, error) {
	if err := ValidateTransfer(req); err != nil {
		return models.Movement{}, err
	}
	if !CanTransition(StateOf(item), KindTransfer) {
		return models.Movement{}, ErrItemExited
	}
	dest := strings.TrimSpace(req.Destination)
	return models.Movement{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		MovementType: models.MovementTransfer,
		Quantity:     item.CurrentQuantity,
		ReasonCode:   string(models.MovementTransfer),
		Notes:        req.Notes,
		FromLocation: item.LocationRef,
		ToLocation:   &dest,
		OccurredAt:   now,
	}, nil
}

// ApplyExit is the state the stock service records once an exit is accepted.
func ApplyExit(item *models.Item, mv models.Movement, now time.Time) {
	reason := mv.ReasonCode
	item.CurrentQuantity = decimal.Zero
	item.LastExitReasonCode = &reason
	item.UpdatedAt = now
}

// ApplyTransfer is the state the stock service records once a transfer is accepted.
func ApplyTransfer(item *models.Item, mv models.Movement, now time.Time) {
	item.LocationRef = mv.ToLocation
	item.UpdatedAt = now
}
