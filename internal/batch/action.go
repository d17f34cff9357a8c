package batch

import (
	"context"
	"strings"

	"stockdesk/internal/models"
	"stockdesk/internal/movement"
)

type actionKind int

const (
	actionExit actionKind = iota + 1
	actionTransfer
)

// Action is the movement a batch applies: an exit with its request, or a
// transfer with its destination.
type Action struct {
	kind     actionKind
	exit     movement.ExitRequest
	transfer movement.TransferRequest
}

func ExitAction(req movement.ExitRequest) Action {
	return Action{kind: actionExit, exit: req}
}

func TransferAction(req movement.TransferRequest) Action {
	return Action{kind: actionTransfer, transfer: req}
}

// MovementType is the type recorded on every movement of the batch.
func (a Action) MovementType() models.MovementType {
	if a.kind == actionTransfer {
		return models.MovementTransfer
	}
	return a.exit.ExitType.MovementType()
}

// Validate runs the client-local checks shared by every item of the batch.
func (a Action) Validate() error {
	switch a.kind {
	case actionExit:
		return movement.ValidateExit(a.exit)
	case actionTransfer:
		return movement.ValidateTransfer(a.transfer)
	}
	return &movement.ValidationError{Field: "action", Err: movement.ErrInvalidExitType}
}

func (a Action) apply(ctx context.Context, m Mover, item *models.Item) error {
	if a.kind == actionTransfer {
		return m.Transfer(ctx, item, a.transfer)
	}
	return m.Exit(ctx, item, a.exit)
}

func (a Action) slug() string {
	return strings.ToLower(string(a.MovementType()))
}
