package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"stockdesk/internal/batch"
	"stockdesk/internal/common"
	"stockdesk/internal/movement"
	"stockdesk/internal/repositories"
	"stockdesk/internal/services"
)

// respondError maps domain errors onto the error envelope. Anything unknown
// is logged and reported as a server error without its message.
func respondError(c echo.Context, logger *zap.Logger, resource string, err error) error {
	var ve *movement.ValidationError
	switch {
	case errors.As(err, &ve) && errors.Is(ve.Err, movement.ErrItemExited):
		return common.SendConflictError(c, ve.Err.Error())
	case errors.As(err, &ve):
		return common.SendValidationError(c, ve.Field, ve.Err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		return common.SendNotFoundError(c, resource)
	case errors.Is(err, movement.ErrItemExited),
		errors.Is(err, services.ErrSameLocation),
		errors.Is(err, batch.ErrBatchInFlight),
		errors.Is(err, batch.ErrNothingSelected):
		return common.SendConflictError(c, err.Error())
	}
	logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.String("resource", resource),
		zap.Error(err),
	)
	return common.SendServerError(c, "Internal server error")
}
