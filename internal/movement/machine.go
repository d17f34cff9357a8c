package movement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stockdesk/internal/models"
)

// Submitter is the stock service as seen from the movement core. Every call
// may fail independently; the service owns the resulting item state.
type Submitter interface {
	SubmitEntry(ctx context.Context, target EntryTarget, req EntryRequest) (*models.Item, error)
	SubmitExit(ctx context.Context, itemID string, req ExitRequest) error
	SubmitTransfer(ctx context.Context, itemID string, req TransferRequest) error
}

// Machine validates movement requests locally and forwards the valid ones.
// It never patches item state: callers re-fetch after a successful request.
type Machine struct {
	submitter Submitter
	logger    *zap.Logger
}

func NewMachine(submitter Submitter, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{submitter: submitter, logger: logger}
}

// Entry creates a new item. Validation errors are returned without a request.
func (m *Machine) Entry(ctx context.Context, target EntryTarget, req EntryRequest) (*models.Item, error) {
	if err := ValidateEntry(target, req); err != nil {
		return nil, err
	}
	item, err := m.submitter.SubmitEntry(ctx, target, req)
	if err != nil {
		m.logger.Warn("entry rejected",
			zap.String("variant_id", target.VariantID),
			zap.String("movement_type", string(req.MovementType)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("submit entry: %w", err)
	}
	return item, nil
}

// Exit takes item out of stock for req.ExitType.
func (m *Machine) Exit(ctx context.Context, item *models.Item, req ExitRequest) error {
	if err := ValidateExit(req); err != nil {
		return err
	}
	if !CanTransition(StateOf(item), KindExit) {
		return invalid("item", ErrItemExited)
	}
	if err := m.submitter.SubmitExit(ctx, item.ID, req); err != nil {
		m.logger.Warn("exit rejected",
			zap.String("item_id", item.ID),
			zap.String("exit_type", string(req.ExitType)),
			zap.Error(err),
		)
		return fmt.Errorf("submit exit for item %s: %w", item.ID, err)
	}
	return nil
}

// Transfer moves item to req.Destination.
func (m *Machine) Transfer(ctx context.Context, item *models.Item, req TransferRequest) error {
	if err := ValidateTransfer(req); err != nil {
		return err
	}
	if !CanTransition(StateOf(item), KindTransfer) {
		return invalid("item", ErrItemExited)
	}
	if err := m.submitter.SubmitTransfer(ctx, item.ID, req); err != nil {
		m.logger.Warn("transfer rejected",
			zap.String("item_id", item.ID),
			zap.String("destination", req.Destination),
			zap.Error(err),
		)
		return fmt.Errorf("submit transfer for item %s: %w", item.ID, err)
	}
	return nil
}
