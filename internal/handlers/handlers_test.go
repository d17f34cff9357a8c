package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stockdesk/internal/batch"
	"stockdesk/internal/models"
	"stockdesk/internal/movement"
	"stockdesk/internal/repositories"
	"stockdesk/internal/services"
)

func testItem(id, qty, loc string) *models.Item {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return &models.Item{
		ID:              id,
		VariantID:       "v1",
		CurrentQuantity: decimal.RequireFromString(qty),
		Status:          models.ItemStatusAvailable,
		LocationRef:     &loc,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type HandlersTestSuite struct {
	suite.Suite
	echo    *echo.Echo
	stock   *MockStockService
	reports *MockReportStore
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.stock = new(MockStockService)
	suite.reports = new(MockReportStore)

	machine := movement.NewMachine(suite.stock, nil)
	orchestrator := batch.NewOrchestrator(machine, suite.stock, batch.Options{})

	suite.echo = echo.New()
	v1 := suite.echo.Group("/v1")
	NewStockHandlers(suite.stock, machine, nil).Register(v1)
	NewBatchHandlers(orchestrator, suite.reports, nil).Register(v1)
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.stock.AssertExpectations(suite.T())
	suite.reports.AssertExpectations(suite.T())
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *HandlersTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (suite *HandlersTestSuite) TestListVariantItems_PassesFilter() {
	loc := "bin-1"
	expected := models.ItemFilter{
		VariantID:     "v1",
		Statuses:      []models.ItemStatus{models.ItemStatusAvailable, models.ItemStatusDamaged},
		LocationRef:   &loc,
		IncludeExited: true,
		Limit:         10,
		Offset:        0,
	}
	suite.stock.On("ListItems", mock.Anything, expected).Return([]*models.Item{testItem("a", "1", "bin-1")}, nil)

	rec := suite.do(http.MethodGet, "/v1/variants/v1/items?include_exited=true&status=available,DAMAGED&location=bin-1&limit=10", "")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"id":"a"`)
}

func (suite *HandlersTestSuite) TestListVariantItems_UnknownStatus() {
	rec := suite.do(http.MethodGet, "/v1/variants/v1/items?status=LOST", "")
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", suite.errorCode(rec))
}

func (suite *HandlersTestSuite) TestGetItem_NotFound() {
	suite.stock.On("GetItem", mock.Anything, "nope").Return(nil, repositories.ErrNotFound)

	rec := suite.do(http.MethodGet, "/v1/items/nope", "")
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	assert.Equal(suite.T(), "NOT_FOUND", suite.errorCode(rec))
}

func (suite *HandlersTestSuite) TestGetItem_ServerErrorHidesCause() {
	suite.stock.On("GetItem", mock.Anything, "i1").Return(nil, errors.New("pq: connection refused"))

	rec := suite.do(http.MethodGet, "/v1/items/i1", "")
	assert.Equal(suite.T(), http.StatusInternalServerError, rec.Code)
	assert.NotContains(suite.T(), rec.Body.String(), "connection refused")
}

func (suite *HandlersTestSuite) TestCreateItem() {
	created := testItem("new", "3", "bin-1")
	suite.stock.On("SubmitEntry", mock.Anything, movement.EntryTarget{VariantID: "v1"}, mock.MatchedBy(func(req movement.EntryRequest) bool {
		return req.MovementType == models.MovementPurchase && req.Quantity.Equal(decimal.NewFromInt(3))
	})).Return(created, nil)

	rec := suite.do(http.MethodPost, "/v1/variants/v1/items", `{"movement_type":"PURCHASE","quantity":"3","location_ref":"bin-1"}`)
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"id":"new"`)
}

func (suite *HandlersTestSuite) TestCreateItem_ZeroQuantityNeverSubmitted() {
	rec := suite.do(http.MethodPost, "/v1/variants/v1/items", `{"movement_type":"PURCHASE","quantity":"0","location_ref":"bin-1"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"quantity"`)
	suite.stock.AssertNotCalled(suite.T(), "SubmitEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestExitItem_ReturnsRefetchedItem() {
	before := testItem("i1", "2", "bin-1")
	after := testItem("i1", "0", "bin-1")
	reason := "SALE"
	after.LastExitReasonCode = &reason
	suite.stock.On("GetItem", mock.Anything, "i1").Return(before, nil).Once()
	suite.stock.On("SubmitExit", mock.Anything, "i1", movement.ExitRequest{ExitType: models.ExitSale}).Return(nil)
	suite.stock.On("GetItem", mock.Anything, "i1").Return(after, nil).Once()

	rec := suite.do(http.MethodPost, "/v1/items/i1/exit", `{"exit_type":"SALE"}`)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"last_exit_reason_code":"SALE"`)
}

func (suite *HandlersTestSuite) TestExitItem_AlreadyExited() {
	suite.stock.On("GetItem", mock.Anything, "i1").Return(testItem("i1", "0", "bin-1"), nil)

	rec := suite.do(http.MethodPost, "/v1/items/i1/exit", `{"exit_type":"LOSS"}`)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Equal(suite.T(), "CONFLICT", suite.errorCode(rec))
}

func (suite *HandlersTestSuite) TestExitItem_TransferIsNotAnExitType() {
	suite.stock.On("GetItem", mock.Anything, "i1").Return(testItem("i1", "1", "bin-1"), nil)

	rec := suite.do(http.MethodPost, "/v1/items/i1/exit", `{"exit_type":"TRANSFER"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "exit_type")
}

func (suite *HandlersTestSuite) TestTransferItem_SameLocation() {
	suite.stock.On("GetItem", mock.Anything, "i1").Return(testItem("i1", "1", "bin-1"), nil)
	suite.stock.On("SubmitTransfer", mock.Anything, "i1", movement.TransferRequest{Destination: "bin-1"}).Return(services.ErrSameLocation)

	rec := suite.do(http.MethodPost, "/v1/items/i1/transfer", `{"destination":"bin-1"}`)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}

func (suite *HandlersTestSuite) TestListItemMovements() {
	suite.stock.On("ListMovements", mock.Anything, "i1", 5, 10).Return([]models.Movement{{ID: "m1", ItemID: "i1", MovementType: models.MovementTransfer}}, nil)

	rec := suite.do(http.MethodGet, "/v1/items/i1/movements?limit=5&offset=10", "")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"m1"`)
}

func (suite *HandlersTestSuite) TestRunBatch_PartialFailureArchivesReport() {
	items := []*models.Item{testItem("a", "1", "bin-1"), testItem("b", "1", "bin-1"), testItem("c", "1", "bin-1")}
	suite.stock.On("Items", mock.Anything, "v1").Return(items, nil)
	suite.stock.On("SubmitExit", mock.Anything, "a", mock.Anything).Return(nil)
	suite.stock.On("SubmitExit", mock.Anything, "b", mock.Anything).Return(errors.New("rejected"))
	suite.stock.On("SubmitExit", mock.Anything, "c", mock.Anything).Return(nil)
	suite.reports.On("ArchiveBatch", mock.Anything, mock.AnythingOfType("*models.BatchResult")).Return("batches/v1/x.json", nil)
	suite.reports.On("ReportURL", mock.Anything, "batches/v1/x.json", reportURLExpiry).Return("https://minio.local/x.json", nil)

	rec := suite.do(http.MethodPost, "/v1/variants/v1/batch", `{"item_ids":["a","b","c"],"action":"exit","exit_type":"SALE"}`)
	require.Equal(suite.T(), http.StatusMultiStatus, rec.Code)

	var resp BatchResponse
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(suite.T(), 2, resp.Result.SucceededItems)
	assert.Equal(suite.T(), 1, resp.Result.FailedItems)
	assert.Equal(suite.T(), models.BatchStatusPartial, resp.Result.Status)
	assert.Equal(suite.T(), "batches/v1/x.json", resp.Report)
	assert.Equal(suite.T(), "https://minio.local/x.json", resp.ReportURL)
}

func (suite *HandlersTestSuite) TestRunBatch_TransferSucceedsWithoutReport() {
	items := []*models.Item{testItem("a", "1", "bin-1"), testItem("b", "1", "bin-1")}
	suite.stock.On("Items", mock.Anything, "v1").Return(items, nil)
	suite.stock.On("SubmitTransfer", mock.Anything, mock.Anything, movement.TransferRequest{Destination: "bin-7"}).Return(nil).Twice()
	suite.reports.On("ArchiveBatch", mock.Anything, mock.Anything).Return("", errors.New("bucket offline"))

	rec := suite.do(http.MethodPost, "/v1/variants/v1/batch", `{"item_ids":["a","b"],"action":"transfer","destination":"bin-7"}`)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var resp BatchResponse
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(suite.T(), models.BatchStatusCompleted, resp.Result.Status)
	assert.Empty(suite.T(), resp.Report)
}

func (suite *HandlersTestSuite) TestRunBatch_UnknownAction() {
	rec := suite.do(http.MethodPost, "/v1/variants/v1/batch", `{"item_ids":["a"],"action":"explode"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestRunBatch_OnlyStaleIDs() {
	suite.stock.On("Items", mock.Anything, "v1").Return([]*models.Item{testItem("a", "0", "bin-1")}, nil)

	rec := suite.do(http.MethodPost, "/v1/variants/v1/batch", `{"item_ids":["a","ghost"],"action":"exit","exit_type":"LOSS"}`)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	db, cache := new(MockPinger), new(MockPinger)
	db.On("Ping", mock.Anything).Return(nil)
	cache.On("Ping", mock.Anything).Return(errors.New("redis down"))

	e := echo.New()
	NewHealthHandlers(db, cache, nil, "test").Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var health HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unhealthy", health.Services["redis"])
	assert.Equal(t, "disabled", health.Services["storage"])
}

func TestReadinessFailsWithoutDatabase(t *testing.T) {
	db := new(MockPinger)
	db.On("Ping", mock.Anything).Return(errors.New("no route"))

	e := echo.New()
	NewHealthHandlers(db, nil, nil, "test").Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJobHandlers(t *testing.T) {
	runner := new(MockJobRunner)
	runner.On("RunNow", "variant-stats-refresh").Return(true)
	runner.On("RunNow", "missing").Return(false)
	runner.On("GetJobStatus").Return(map[string]any{"total_jobs": 1})

	e := echo.New()
	NewJobHandlers(runner).Register(e.Group("/v1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/jobs/variant-stats-refresh/run", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/jobs/missing/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))
	assert.JSONEq(t, `{"total_jobs":1}`, rec.Body.String())
}
