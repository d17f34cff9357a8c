package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"stockdesk/internal/models"
)

// PlanFunc plans a movement against a locked item and applies its effect to
// the item in place. Returning an error aborts the transaction.
type PlanFunc func(item *models.Item, now time.Time) (models.Movement, error)

type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error)
	ListVariantIDs(ctx context.Context) ([]string, error)
	CreateWithMovement(ctx context.Context, item *models.Item, mv models.Movement) error
	ApplyMovement(ctx context.Context, itemID string, plan PlanFunc) (*models.Item, models.Movement, error)
}

type itemRepo struct {
	db  Database
	now func() time.Time
}

func NewItemRepo(db Database) ItemRepository {
	return &itemRepo{db: db, now: time.Now}
}

const itemColumns = `id, variant_id, current_quantity::text, status, location_ref, attributes, last_exit_reason_code, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var (
		item   models.Item
		qty    string
		status string
		attrs  []byte
	)
	if err := row.Scan(&item.ID, &item.VariantID, &qty, &status, &item.LocationRef, &attrs, &item.LastExitReasonCode, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid quantity %q for item %s", qty, item.ID)
	}
	item.CurrentQuantity = q
	item.Status = models.ItemStatus(status)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &item.Attributes); err != nil {
			return nil, errors.Wrapf(err, "invalid attributes for item %s", item.ID)
		}
	}
	return &item, nil
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "failed to get item by ID")
	}
	return item, nil
}

// List returns a variant's items in creation order, which is the order list
// views render them in.
func (r *itemRepo) List(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE variant_id = $1`
	args := []any{filter.VariantID}
	n := 1

	if !filter.IncludeExited {
		query += ` AND current_quantity > 0`
	}
	if len(filter.Statuses) > 0 {
		n++
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(` AND status = ANY($%d)`, n)
		args = append(args, statuses)
	}
	if filter.LocationRef != nil {
		n++
		query += fmt.Sprintf(` AND location_ref = $%d`, n)
		args = append(args, *filter.LocationRef)
	}

	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(` LIMIT $%d`, n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(` OFFSET $%d`, n)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	return items, nil
}

func (r *itemRepo) ListVariantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT variant_id FROM items ORDER BY variant_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list variants")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan variant id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateWithMovement inserts a new item and the entry movement that created it.
func (r *itemRepo) CreateWithMovement(ctx context.Context, item *models.Item, mv models.Movement) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	attrs, err := json.Marshal(item.Attributes)
	if err != nil {
		return errors.Wrap(err, "failed to encode attributes")
	}
	query := `
		INSERT INTO items (id, variant_id, current_quantity, status, location_ref, attributes, last_exit_reason_code, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.Exec(ctx, query, item.ID, item.VariantID, item.CurrentQuantity.String(), string(item.Status),
		item.LocationRef, attrs, item.LastExitReasonCode, item.CreatedAt, item.UpdatedAt); err != nil {
		return errors.Wrap(err, "failed to insert item")
	}
	if err := insertMovement(ctx, tx, mv); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "failed to commit entry")
}

// ApplyMovement locks the item row, lets plan decide the movement, then
// persists the item and the movement together.
func (r *itemRepo) ApplyMovement(ctx context.Context, itemID string, plan PlanFunc) (*models.Item, models.Movement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, models.Movement{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	item, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		return nil, models.Movement{}, notFound(err, "failed to lock item")
	}

	mv, err := plan(item, r.now())
	if err != nil {
		return nil, models.Movement{}, err
	}

	query := `
		UPDATE items
		SET current_quantity = $1::numeric, status = $2, location_ref = $3, last_exit_reason_code = $4, updated_at = $5
		WHERE id = $6
	`
	if _, err := tx.Exec(ctx, query, item.CurrentQuantity.String(), string(item.Status), item.LocationRef,
		item.LastExitReasonCode, item.UpdatedAt, item.ID); err != nil {
		return nil, models.Movement{}, errors.Wrap(err, "failed to update item")
	}
	if err := insertMovement(ctx, tx, mv); err != nil {
		return nil, models.Movement{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, models.Movement{}, errors.Wrap(err, "failed to commit movement")
	}
	return item, mv, nil
}
