package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlusher struct {
	mock.Mock
}

func (m *MockFlusher) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestScheduledFlush(t *testing.T) {
	cache := new(MockFlusher)
	cache.On("InvalidateAll", mock.Anything).Return(nil).Once()

	assert.NoError(t, NewCacheFlushService(cache, nil).ScheduledFlush(context.Background()))
	cache.AssertExpectations(t)
}

func TestScheduledFlushSurfacesCacheError(t *testing.T) {
	cache := new(MockFlusher)
	cache.On("InvalidateAll", mock.Anything).Return(errors.New("redis down"))

	err := NewCacheFlushService(cache, nil).ScheduledFlush(context.Background())
	assert.EqualError(t, err, "redis down")
}
