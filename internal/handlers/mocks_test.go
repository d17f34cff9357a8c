package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"stockdesk/internal/models"
	"stockdesk/internal/movement"
)

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) SubmitEntry(ctx context.Context, target movement.EntryTarget, req movement.EntryRequest) (*models.Item, error) {
	args := m.Called(ctx, target, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockStockService) SubmitExit(ctx context.Context, itemID string, req movement.ExitRequest) error {
	return m.Called(ctx, itemID, req).Error(0)
}

func (m *MockStockService) SubmitTransfer(ctx context.Context, itemID string, req movement.TransferRequest) error {
	return m.Called(ctx, itemID, req).Error(0)
}

func (m *MockStockService) Items(ctx context.Context, variantID string) ([]*models.Item, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *MockStockService) LatestItems(ctx context.Context, variantID string) ([]*models.Item, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *MockStockService) ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *MockStockService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockStockService) ListMovements(ctx context.Context, itemID string, limit, offset int) ([]models.Movement, error) {
	args := m.Called(ctx, itemID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Movement), args.Error(1)
}

func (m *MockStockService) VariantIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStockService) Stats(ctx context.Context, variantID string) (*models.VariantStats, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VariantStats), args.Error(1)
}

func (m *MockStockService) RefreshStats(ctx context.Context, variantID string) (*models.VariantStats, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VariantStats), args.Error(1)
}

func (m *MockStockService) Invalidate(ctx context.Context, variantID string) error {
	return m.Called(ctx, variantID).Error(0)
}

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) ArchiveBatch(ctx context.Context, result *models.BatchResult) (string, error) {
	args := m.Called(ctx, result)
	return args.String(0), args.Error(1)
}

func (m *MockReportStore) ReportURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockReportStore) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockReportStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) RunNow(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *MockJobRunner) GetJobStatus() map[string]any {
	return m.Called().Get(0).(map[string]any)
}
