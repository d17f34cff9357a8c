package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"stockdesk/internal/common"
	"stockdesk/internal/models"
	"stockdesk/internal/movement"
	"stockdesk/internal/services"
)

// StockHandlers serves item listings and single item movements.
type StockHandlers struct {
	stock   services.StockService
	machine *movement.Machine
	logger  *zap.Logger
}

func NewStockHandlers(stock services.StockService, machine *movement.Machine, logger *zap.Logger) *StockHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandlers{stock: stock, machine: machine, logger: logger}
}

// Register mounts the stock routes on g.
func (h *StockHandlers) Register(g *echo.Group) {
	g.GET("/variants/:id/items", h.ListVariantItems)
	g.POST("/variants/:id/items", h.CreateItem)
	g.GET("/variants/:id/stats", h.GetVariantStats)
	g.GET("/items/:id", h.GetItem)
	g.GET("/items/:id/movements", h.ListItemMovements)
	g.POST("/items/:id/exit", h.ExitItem)
	g.POST("/items/:id/transfer", h.TransferItem)
}

// ListVariantItems lists a variant's items in creation order. Exited items are
// hidden unless include_exited=true.
func (h *StockHandlers) ListVariantItems(c echo.Context) error {
	variantID := strings.TrimSpace(c.Param("id"))
	if variantID == "" {
		return common.SendValidationError(c, "id", "variant id is required")
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	includeExited, err := common.BoolParam(c, "include_exited")
	if err != nil {
		return common.SendValidationError(c, "include_exited", err.Error())
	}

	filter := models.ItemFilter{
		VariantID:     variantID,
		IncludeExited: includeExited,
		Limit:         limit,
		Offset:        offset,
	}
	for _, s := range common.ListParam(c, "status") {
		status := models.ItemStatus(strings.ToUpper(s))
		if !status.Valid() {
			return common.SendValidationError(c, "status", "unknown status "+s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if loc := strings.TrimSpace(c.QueryParam("location")); loc != "" {
		filter.LocationRef = &loc
	}

	items, err := h.stock.ListItems(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.logger, "Variant", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *StockHandlers) GetVariantStats(c echo.Context) error {
	stats, err := h.stock.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "Variant", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StockHandlers) GetItem(c echo.Context) error {
	item, err := h.stock.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "Item", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *StockHandlers) ListItemMovements(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	movements, err := h.stock.ListMovements(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return respondError(c, h.logger, "Item", err)
	}
	if movements == nil {
		movements = []models.Movement{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"limit":     limit,
		"offset":    offset,
	})
}

// CreateItem records an entry movement, creating a new item in the variant.
func (h *StockHandlers) CreateItem(c echo.Context) error {
	var req movement.EntryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	target := movement.EntryTarget{VariantID: c.Param("id")}

	item, err := h.machine.Entry(c.Request().Context(), target, req)
	if err != nil {
		return respondError(c, h.logger, "Variant", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// ExitItem takes the item's whole quantity out of stock and returns the item
// as stored afterwards.
func (h *StockHandlers) ExitItem(c echo.Context) error {
	var req movement.ExitRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	return h.move(c, func(item *models.Item) error {
		return h.machine.Exit(c.Request().Context(), item, req)
	})
}

func (h *StockHandlers) TransferItem(c echo.Context) error {
	var req movement.TransferRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	return h.move(c, func(item *models.Item) error {
		return h.machine.Transfer(c.Request().Context(), item, req)
	})
}

// move loads the item, applies fn and answers with the re-fetched item.
func (h *StockHandlers) move(c echo.Context, fn func(item *models.Item) error) error {
	ctx := c.Request().Context()
	item, err := h.stock.GetItem(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "Item", err)
	}
	if err := fn(item); err != nil {
		return respondError(c, h.logger, "Item", err)
	}
	updated, err := h.stock.GetItem(ctx, item.ID)
	if err != nil {
		return respondError(c, h.logger, "Item", err)
	}
	return c.JSON(http.StatusOK, updated)
}
