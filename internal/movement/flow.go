package movement

import (
	"stockdesk/internal/models"
)

// Stage of the two-step exit dialog.
type Stage int

const (
	StageChooseType Stage = iota
	StageConfirm
	StageDone
	StageAborted
	StageRedirected // user asked for a transfer instead
)

func (s Stage) String() string {
	switch s {
	case StageChooseType:
		return "choose_type"
	case StageConfirm:
		return "confirm"
	case StageDone:
		return "done"
	case StageAborted:
		return "aborted"
	case StageRedirected:
		return "redirected"
	}
	return "unknown"
}

// ExitChoice is what the user picks on the first step. The transfer option
// lives here, as routing, and never as an ExitType value.
type ExitChoice struct {
	exitType models.ExitType
	transfer bool
}

func ChooseExit(t models.ExitType) ExitChoice { return ExitChoice{exitType: t} }

func ChooseTransfer() ExitChoice { return ExitChoice{transfer: true} }

func (c ExitChoice) IsTransfer() bool { return c.transfer }

// ExitOptions lists the first-step choices: every exit type, then transfer.
func ExitOptions() []ExitChoice {
	types := models.ExitTypes()
	out := make([]ExitChoice, 0, len(types)+1)
	for _, t := range types {
		out = append(out, ChooseExit(t))
	}
	return append(out, ChooseTransfer())
}

// ExitFlow is the two-stage commit for an exit: pick a type, then add notes
// and confirm. A quick flow starts with the type already chosen and going
// back aborts it.
type ExitFlow struct {
	stage    Stage
	exitType models.ExitType
	notes    string
	quick    bool
}

func NewExitFlow() *ExitFlow {
	return &ExitFlow{stage: StageChooseType}
}

// NewQuickExitFlow skips the first step.
func NewQuickExitFlow(t models.ExitType) (*ExitFlow, error) {
	if !t.Valid() {
		return nil, invalid("exit_type", ErrInvalidExitType)
	}
	return &ExitFlow{stage: StageConfirm, exitType: t, quick: true}, nil
}

func (f *ExitFlow) Stage() Stage { return f.stage }

func (f *ExitFlow) ExitType() models.ExitType { return f.exitType }

func (f *ExitFlow) Notes() string { return f.notes }

// Choose handles the first step. Choosing transfer ends the flow without an
// exit; the caller opens the transfer flow with the same operands.
func (f *ExitFlow) Choose(c ExitChoice) error {
	if f.stage != StageChooseType {
		return ErrFlowStage
	}
	if c.transfer {
		f.stage = StageRedirected
		return nil
	}
	if !c.exitType.Valid() {
		return invalid("exit_type", ErrInvalidExitType)
	}
	f.exitType = c.exitType
	f.stage = StageConfirm
	return nil
}

// SetNotes records the optional free text of the second step.
func (f *ExitFlow) SetNotes(notes string) error {
	if f.stage != StageConfirm {
		return ErrFlowStage
	}
	f.notes = notes
	return nil
}

// Back returns to the type list, or aborts a quick flow or a flow already on
// the first step.
func (f *ExitFlow) Back() {
	switch f.stage {
	case StageConfirm:
		if f.quick {
			f.stage = StageAborted
			return
		}
		f.exitType = ""
		f.stage = StageChooseType
	case StageChooseType:
		f.stage = StageAborted
	}
}

// Cancel aborts the flow from any open stage.
func (f *ExitFlow) Cancel() {
	if f.stage == StageChooseType || f.stage == StageConfirm {
		f.stage = StageAborted
	}
}

// Confirm completes the second step and returns the request to submit.
func (f *ExitFlow) Confirm() (ExitRequest, error) {
	if f.stage != StageConfirm {
		return ExitRequest{}, ErrFlowStage
	}
	req := ExitRequest{ExitType: f.exitType, Notes: f.notes}
	if err := ValidateExit(req); err != nil {
		return ExitRequest{}, err
	}
	f.stage = StageDone
	return req, nil
}
