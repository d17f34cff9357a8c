// Package workspace hosts one container of items: its selection, its rubber
// band gesture and the movement actions run against what is selected.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"stockdesk/internal/batch"
	"stockdesk/internal/gesture"
	"stockdesk/internal/models"
	"stockdesk/internal/movement"
	"stockdesk/internal/selection"
)

var (
	ErrNotOpen      = errors.New("workspace has no open container")
	ErrUnknownItem  = errors.New("item is not part of the open container")
	ErrFlowNotReady = errors.New("exit flow is neither confirmed nor redirected")
)

// TransferIntent is returned when the exit dialog was redirected to a
// transfer. The host opens its transfer flow with these operands.
type TransferIntent struct {
	ContainerID string
	ItemIDs     []string
}

// ExitOutcome is the result of ExitSelected: either a batch ran or the user
// asked for a transfer instead.
type ExitOutcome struct {
	Result   *models.BatchResult
	Transfer *TransferIntent
}

type Deps struct {
	Source batch.ItemSource
	Mover  batch.Mover
	Batch  *batch.Orchestrator
}

type Config struct {
	Gesture           gesture.Options
	Frames            gesture.FrameScheduler
	VisibleAttributes []string
	Logger            *zap.Logger
}

// Workspace is bound to at most one container at a time. Switching container
// identity resets selection and discards any gesture in progress.
type Workspace struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger

	selection *selection.Controller
	layout    *gesture.Layout
	tracker   *gesture.Tracker

	mu          sync.RWMutex
	containerID string
	gen         uint64
	items       []*models.Item
	byID        map[string]*models.Item
}

func New(deps Deps, cfg Config) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Gesture.Logger == nil {
		cfg.Gesture.Logger = logger
	}
	w := &Workspace{
		deps:      deps,
		cfg:       cfg,
		logger:    logger,
		selection: selection.NewController(nil),
		layout:    gesture.NewLayout(),
		byID:      make(map[string]*models.Item),
	}
	w.tracker = gesture.NewTracker(w.selection, w.layout, cfg.Frames, cfg.Gesture)
	return w
}

func (w *Workspace) Selection() *selection.Controller { return w.selection }

func (w *Workspace) Layout() *gesture.Layout { return w.layout }

func (w *Workspace) Tracker() *gesture.Tracker { return w.tracker }

func (w *Workspace) ContainerID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.containerID
}

// Open binds the workspace to containerID. Opening a different container
// than the current one clears selection, layout and gesture state before the
// new items are installed.
func (w *Workspace) Open(ctx context.Context, containerID string) error {
	w.mu.Lock()
	switching := w.containerID != containerID
	if switching {
		w.containerID = containerID
		w.gen++
		w.items = nil
		w.byID = make(map[string]*models.Item)
	}
	w.mu.Unlock()

	if switching {
		w.tracker.Cancel()
		w.layout.Clear()
		w.selection.Reset(nil)
	}
	return w.Refresh(ctx)
}

// SwitchContainer is Open under the name hosts use when the route changes.
func (w *Workspace) SwitchContainer(ctx context.Context, containerID string) error {
	return w.Open(ctx, containerID)
}

// Refresh reloads the items of the open container and re-derives the
// selectable universe. Selected ids that are no longer in stock are dropped.
func (w *Workspace) Refresh(ctx context.Context) error {
	w.mu.RLock()
	containerID, gen := w.containerID, w.gen
	w.mu.RUnlock()
	if containerID == "" {
		return ErrNotOpen
	}

	items, err := w.deps.Source.Items(ctx, containerID)
	if err != nil {
		return fmt.Errorf("load container %s: %w", containerID, err)
	}

	w.mu.Lock()
	if w.gen != gen {
		// container switched while loading
		w.mu.Unlock()
		return nil
	}
	w.items = items
	w.byID = make(map[string]*models.Item, len(items))
	for _, it := range items {
		if it != nil {
			w.byID[it.ID] = it
		}
	}
	w.mu.Unlock()

	w.selection.SetAvailable(movement.AvailableIDs(items))
	return nil
}

// Items returns the container's items in list order, exited ones included.
func (w *Workspace) Items() []*models.Item {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*models.Item, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Workspace) Item(id string) (*models.Item, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	it, ok := w.byID[id]
	return it, ok
}

// Card is what a list view renders for one item.
type Card struct {
	Item       *models.Item
	Selected   bool
	Badge      string // reason badge, exited items only
	Attributes []models.Attribute
}

func (w *Workspace) Cards() []Card {
	items := w.Items()
	snap := w.selection.Snapshot()
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		badge, _ := movement.Badge(it)
		cards = append(cards, Card{
			Item:       it,
			Selected:   snap.IsSelected(it.ID),
			Badge:      badge,
			Attributes: models.VisibleAttributes(it, w.cfg.VisibleAttributes),
		})
	}
	return cards
}

// Click applies a single activation to the selection.
func (w *Workspace) Click(id string, mods selection.Modifiers) {
	w.selection.Click(id, mods)
}

// DoubleClick opens an item's detail. Selection is never changed.
func (w *Workspace) DoubleClick(id string) (*models.Item, error) {
	it, ok := w.Item(id)
	if !ok {
		return nil, ErrUnknownItem
	}
	return it, nil
}

// Pending reports whether a batch action is running for the open container.
func (w *Workspace) Pending() bool {
	containerID := w.ContainerID()
	return containerID != "" && w.deps.Batch.Pending(containerID)
}

// ExitItem runs a confirmed single item exit, as from the item detail view.
func (w *Workspace) ExitItem(ctx context.Context, id string, flow *movement.ExitFlow) (*ExitOutcome, error) {
	it, ok := w.Item(id)
	if !ok {
		return nil, ErrUnknownItem
	}
	if flow.Stage() == movement.StageRedirected {
		return &ExitOutcome{Transfer: &TransferIntent{ContainerID: w.ContainerID(), ItemIDs: []string{id}}}, nil
	}
	req, err := flow.Confirm()
	if err != nil {
		return nil, err
	}
	if err := w.deps.Mover.Exit(ctx, it, req); err != nil {
		return nil, err
	}
	w.refreshAfterMutation(ctx)
	return &ExitOutcome{}, nil
}

// ExitSelected finishes an exit dialog over the current selection. A
// redirected flow issues nothing and returns the selection as transfer
// operands.
func (w *Workspace) ExitSelected(ctx context.Context, flow *movement.ExitFlow) (*ExitOutcome, error) {
	containerID := w.ContainerID()
	if containerID == "" {
		return nil, ErrNotOpen
	}
	switch flow.Stage() {
	case movement.StageRedirected:
		return &ExitOutcome{Transfer: &TransferIntent{
			ContainerID: containerID,
			ItemIDs:     w.selection.SelectedIDs(),
		}}, nil
	case movement.StageConfirm:
	default:
		return nil, ErrFlowNotReady
	}

	req, err := flow.Confirm()
	if err != nil {
		return nil, err
	}
	result, err := w.runBatch(ctx, containerID, batch.ExitAction(req))
	return &ExitOutcome{Result: result}, err
}

// TransferSelected moves every selected item to destination.
func (w *Workspace) TransferSelected(ctx context.Context, destination, notes string) (*models.BatchResult, error) {
	containerID := w.ContainerID()
	if containerID == "" {
		return nil, ErrNotOpen
	}
	return w.runBatch(ctx, containerID, batch.TransferAction(movement.TransferRequest{
		Destination: destination,
		Notes:       notes,
	}))
}

func (w *Workspace) runBatch(ctx context.Context, containerID string, action batch.Action) (*models.BatchResult, error) {
	result, err := w.deps.Batch.Run(ctx, containerID, w.selection, action)
	if result != nil {
		w.refreshAfterMutation(ctx)
	}
	return result, err
}

// The item list is authoritative; after any mutation it is reloaded rather
// than patched.
func (w *Workspace) refreshAfterMutation(ctx context.Context) {
	if err := w.Refresh(context.WithoutCancel(ctx)); err != nil {
		w.logger.Warn("failed to refresh container after movement",
			zap.String("container_id", w.ContainerID()),
			zap.Error(err),
		)
	}
}

// Close unbinds the workspace, discarding gesture and selection state.
func (w *Workspace) Close() {
	w.tracker.Cancel()
	w.layout.Clear()
	w.selection.Reset(nil)

	w.mu.Lock()
	w.containerID = ""
	w.gen++
	w.items = nil
	w.byID = make(map[string]*models.Item)
	w.mu.Unlock()
}
