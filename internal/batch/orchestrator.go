// Package batch applies one movement to every selected item.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockdesk/internal/models"
	"stockdesk/internal/movement"
)

var (
	// ErrNothingSelected indicates no selected id survived the stale filter
	ErrNothingSelected = errors.New("no actionable items selected")

	// ErrBatchInFlight indicates a batch is already running for the container
	ErrBatchInFlight = errors.New("a batch action is already in progress for this container")

	// ErrPartialFailure matches any BatchError with errors.Is
	ErrPartialFailure = errors.New("batch action did not fully succeed")
)

// ItemSource returns the latest items of a container.
type ItemSource interface {
	Items(ctx context.Context, containerID string) ([]*models.Item, error)
}

// ItemSourceFunc adapts a function to ItemSource.
type ItemSourceFunc func(ctx context.Context, containerID string) ([]*models.Item, error)

func (f ItemSourceFunc) Items(ctx context.Context, containerID string) ([]*models.Item, error) {
	return f(ctx, containerID)
}

// Invalidator is told when a container's items changed server side.
type Invalidator interface {
	Invalidate(ctx context.Context, containerID string) error
}

// Mover issues a single item movement. movement.Machine implements it.
type Mover interface {
	Exit(ctx context.Context, item *models.Item, req movement.ExitRequest) error
	Transfer(ctx context.Context, item *models.Item, req movement.TransferRequest) error
}

// Selection is the part of a selection controller a batch reads and clears.
type Selection interface {
	SelectedIDs() []string
	DeselectAll()
}

// Recorder observes finished batches. Optional.
type Recorder interface {
	ObserveBatch(result *models.BatchResult, elapsed time.Duration)
}

// BatchError is the aggregate failure of a batch. Individual failures are in
// Result.Errors.
type BatchError struct {
	Result *models.BatchResult
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s: %s", e.Result.MovementType, e.Result.Summary())
}

func (e *BatchError) Is(target error) bool {
	return target == ErrPartialFailure
}

type Options struct {
	// Concurrency caps in-flight requests per batch; 0 means one goroutine
	// per item.
	Concurrency int
	Invalidator Invalidator
	Recorder    Recorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// Orchestrator fans one movement out to many items. Requests are independent:
// there is no ordering between them and no rollback of the ones that
// succeeded when others fail.
type Orchestrator struct {
	mover  Mover
	source ItemSource
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewOrchestrator(mover Mover, source ItemSource, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		mover:   mover,
		source:  source,
		opts:    opts,
		logger:  opts.Logger,
		pending: make(map[string]struct{}),
	}
}

// Pending reports whether a batch is in flight for containerID. Hosts use it
// to disable batch action triggers.
func (o *Orchestrator) Pending(containerID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.pending[containerID]
	return ok
}

func (o *Orchestrator) begin(containerID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.pending[containerID]; ok {
		return false
	}
	o.pending[containerID] = struct{}{}
	return true
}

func (o *Orchestrator) end(containerID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pending, containerID)
}

// Run applies action to the current selection of a container. On full success
// the selection is cleared; on any failure it is left intact so the user can
// retry. The container is invalidated whenever at least one request went out.
func (o *Orchestrator) Run(ctx context.Context, containerID string, sel Selection, action Action) (*models.BatchResult, error) {
	result, err := o.Execute(ctx, containerID, sel.SelectedIDs(), action)
	if result != nil && result.Succeeded() {
		sel.DeselectAll()
	}
	return result, err
}

// Execute applies action to ids within a container without touching any
// selection. Stale ids, missing from the container or already exited, are
// dropped before any request is issued.
func (o *Orchestrator) Execute(ctx context.Context, containerID string, ids []string, action Action) (*models.BatchResult, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if !o.begin(containerID) {
		return nil, ErrBatchInFlight
	}
	defer o.end(containerID)

	start := o.opts.Now()
	items, err := o.source.Items(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("load items for container %s: %w", containerID, err)
	}
	operands, skipped := filterStale(ids, items)
	if len(operands) == 0 {
		return nil, ErrNothingSelected
	}

	result := &models.BatchResult{
		OperationID:  fmt.Sprintf("batch_%s_%s", action.slug(), uuid.NewString()),
		ContainerID:  containerID,
		MovementType: action.MovementType(),
		Status:       models.BatchStatusProcessing,
		TotalItems:   len(operands),
		SkippedItems: len(skipped),
		StartTime:    start,
		Items:        make([]models.BatchItem, 0, len(operands)+len(skipped)),
	}

	// Once issued, requests are not cancelled with the caller.
	reqCtx := context.WithoutCancel(ctx)
	errs := make([]error, len(operands))

	var g errgroup.Group
	if o.opts.Concurrency > 0 {
		g.SetLimit(o.opts.Concurrency)
	}
	for i, item := range operands {
		g.Go(func() error {
			errs[i] = action.apply(reqCtx, o.mover, item)
			return nil
		})
	}
	_ = g.Wait()

	for i, item := range operands {
		if errs[i] == nil {
			result.SucceededItems++
			result.Items = append(result.Items, models.BatchItem{ItemIndex: i, ItemID: item.ID, Status: models.BatchItemSuccess})
			continue
		}
		msg := errs[i].Error()
		result.FailedItems++
		result.Errors = append(result.Errors, models.BatchItemError{ItemIndex: i, ItemID: item.ID, Error: msg})
		result.Items = append(result.Items, models.BatchItem{ItemIndex: i, ItemID: item.ID, Status: models.BatchItemFailed, Error: &msg})
	}
	for _, id := range skipped {
		result.Items = append(result.Items, models.BatchItem{ItemIndex: -1, ItemID: id, Status: models.BatchItemSkipped})
	}
	result.Finish(o.opts.Now())

	if result.SucceededItems > 0 {
		o.invalidate(reqCtx, containerID)
	}
	if o.opts.Recorder != nil {
		o.opts.Recorder.ObserveBatch(result, result.CompletionTime.Sub(start))
	}

	o.logger.Info("batch action finished",
		zap.String("operation_id", result.OperationID),
		zap.String("container_id", containerID),
		zap.String("movement_type", string(result.MovementType)),
		zap.String("status", result.Status),
		zap.Int("succeeded", result.SucceededItems),
		zap.Int("failed", result.FailedItems),
		zap.Int("skipped", result.SkippedItems),
	)

	if !result.Succeeded() {
		return result, &BatchError{Result: result}
	}
	return result, nil
}

func (o *Orchestrator) invalidate(ctx context.Context, containerID string) {
	if o.opts.Invalidator == nil {
		return
	}
	if err := o.opts.Invalidator.Invalidate(ctx, containerID); err != nil {
		o.logger.Warn("failed to invalidate container after batch",
			zap.String("container_id", containerID),
			zap.Error(err),
		)
	}
}

// filterStale keeps ids that still name an actionable item of the container,
// in the order given, without duplicates.
func filterStale(ids []string, items []*models.Item) (operands []*models.Item, skipped []string) {
	byID := make(map[string]*models.Item, len(items))
	for _, it := range items {
		if it != nil {
			byID[it.ID] = it
		}
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		it, ok := byID[id]
		if !ok || !it.Actionable() {
			skipped = append(skipped, id)
			continue
		}
		operands = append(operands, it)
	}
	return operands, skipped
}
