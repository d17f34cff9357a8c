package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"stockdesk/internal/batch"
	"stockdesk/internal/common"
	"stockdesk/internal/models"
	"stockdesk/internal/movement"
	"stockdesk/internal/storage"
)

const reportURLExpiry = 24 * time.Hour

// BatchHandlers applies one movement to many items of a variant.
type BatchHandlers struct {
	orchestrator *batch.Orchestrator
	reports      storage.ReportStore
	logger       *zap.Logger
}

// NewBatchHandlers creates batch handlers. reports may be nil, in which case
// results are not archived.
func NewBatchHandlers(orchestrator *batch.Orchestrator, reports storage.ReportStore, logger *zap.Logger) *BatchHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandlers{orchestrator: orchestrator, reports: reports, logger: logger}
}

func (h *BatchHandlers) Register(g *echo.Group) {
	g.POST("/variants/:id/batch", h.RunBatch)
}

// BatchRequest names the items and the movement to apply to each of them.
type BatchRequest struct {
	ItemIDs     []string        `json:"item_ids"`
	Action      string          `json:"action"` // "exit" or "transfer"
	ExitType    models.ExitType `json:"exit_type,omitempty"`
	ReasonCode  string          `json:"reason_code,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

func (r BatchRequest) action() (batch.Action, bool) {
	switch strings.ToLower(r.Action) {
	case "exit":
		return batch.ExitAction(movement.ExitRequest{ExitType: r.ExitType, ReasonCode: r.ReasonCode, Notes: r.Notes}), true
	case "transfer":
		return batch.TransferAction(movement.TransferRequest{Destination: r.Destination, Notes: r.Notes}), true
	}
	return batch.Action{}, false
}

// BatchResponse is the aggregate result plus where it was archived.
type BatchResponse struct {
	Result    *models.BatchResult `json:"result"`
	Summary   string              `json:"summary"`
	Report    string              `json:"report,omitempty"`
	ReportURL string              `json:"report_url,omitempty"`
}

// RunBatch answers 200 when every item succeeded and 207 when some failed.
func (h *BatchHandlers) RunBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.ItemIDs) == 0 {
		return common.SendValidationError(c, "item_ids", "at least one item id is required")
	}
	action, ok := req.action()
	if !ok {
		return common.SendValidationError(c, "action", "must be exit or transfer")
	}

	variantID := c.Param("id")
	result, err := h.orchestrator.Execute(c.Request().Context(), variantID, req.ItemIDs, action)
	if err != nil && !errors.Is(err, batch.ErrPartialFailure) {
		return respondError(c, h.logger, "Variant", err)
	}

	resp := BatchResponse{Result: result, Summary: result.Summary()}
	h.archive(context.WithoutCancel(c.Request().Context()), &resp)

	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, resp)
}

// archive stores the result in the report bucket. Failures only cost the
// report link.
func (h *BatchHandlers) archive(ctx context.Context, resp *BatchResponse) {
	if h.reports == nil {
		return
	}
	name, err := h.reports.ArchiveBatch(ctx, resp.Result)
	if err != nil {
		h.logger.Warn("failed to archive batch result",
			zap.String("operation_id", resp.Result.OperationID),
			zap.Error(err),
		)
		return
	}
	resp.Report = name
	if url, err := h.reports.ReportURL(ctx, name, reportURLExpiry); err == nil {
		resp.ReportURL = url
	}
}
