package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdesk/internal/models"
)

func TestExitFlowTwoSteps(t *testing.T) {
	f := NewExitFlow()
	assert.Equal(t, StageChooseType, f.Stage())

	_, err := f.Confirm()
	assert.ErrorIs(t, err, ErrFlowStage)
	assert.ErrorIs(t, f.SetNotes("early"), ErrFlowStage)

	require.NoError(t, f.Choose(ChooseExit(models.ExitSample)))
	assert.Equal(t, StageConfirm, f.Stage())
	require.NoError(t, f.SetNotes("for trade fair"))

	req, err := f.Confirm()
	require.NoError(t, err)
	assert.Equal(t, ExitRequest{ExitType: models.ExitSample, Notes: "for trade fair"}, req)
	assert.Equal(t, StageDone, f.Stage())
}

func TestExitFlowBackReturnsToTypeList(t *testing.T) {
	f := NewExitFlow()
	require.NoError(t, f.Choose(ChooseExit(models.ExitLoss)))

	f.Back()
	assert.Equal(t, StageChooseType, f.Stage())
	assert.Empty(t, f.ExitType())

	f.Back()
	assert.Equal(t, StageAborted, f.Stage())
}

func TestQuickExitFlowBackAborts(t *testing.T) {
	f, err := NewQuickExitFlow(models.ExitSale)
	require.NoError(t, err)
	assert.Equal(t, StageConfirm, f.Stage())

	f.Back()
	assert.Equal(t, StageAborted, f.Stage())
	_, err = f.Confirm()
	assert.ErrorIs(t, err, ErrFlowStage)
}

func TestQuickExitFlowRejectsUnknownType(t *testing.T) {
	_, err := NewQuickExitFlow(models.ExitType("TRANSFER"))
	assert.ErrorIs(t, err, ErrInvalidExitType)
}

func TestChoosingTransferRedirects(t *testing.T) {
	f := NewExitFlow()
	require.NoError(t, f.Choose(ChooseTransfer()))

	assert.Equal(t, StageRedirected, f.Stage())
	_, err := f.Confirm()
	assert.ErrorIs(t, err, ErrFlowStage)
}

func TestExitOptionsEndWithTransfer(t *testing.T) {
	opts := ExitOptions()
	require.Len(t, opts, len(models.ExitTypes())+1)
	assert.True(t, opts[len(opts)-1].IsTransfer())
	for _, o := range opts[:len(opts)-1] {
		assert.False(t, o.IsTransfer())
	}
}

func TestCancelOnlyAffectsOpenFlows(t *testing.T) {
	f := NewExitFlow()
	require.NoError(t, f.Choose(ChooseTransfer()))
	f.Cancel()
	assert.Equal(t, StageRedirected, f.Stage())

	f = NewExitFlow()
	f.Cancel()
	assert.Equal(t, StageAborted, f.Stage())
	assert.Equal(t, "aborted", f.Stage().String())
}
