package repositories

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"stockdesk/internal/models"
)

type MovementRepository interface {
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]models.Movement, error)
}

type movementRepo struct {
	db Database
}

func NewMovementRepo(db Database) MovementRepository {
	return &movementRepo{db: db}
}

func insertMovement(ctx context.Context, q querier, mv models.Movement) error {
	query := `
		INSERT INTO movements (id, item_id, movement_type, quantity, reason_code, notes, from_location, to_location, occurred_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query, mv.ID, mv.ItemID, string(mv.MovementType), mv.Quantity.String(),
		mv.ReasonCode, mv.Notes, mv.FromLocation, mv.ToLocation, mv.OccurredAt)
	return errors.Wrap(err, "failed to insert movement")
}

// ListByItem returns an item's movements, newest first.
func (r *movementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]models.Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, item_id, movement_type, quantity::text, reason_code, notes, from_location, to_location, occurred_at
		FROM movements
		WHERE item_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list movements")
	}
	defer rows.Close()

	var out []models.Movement
	for rows.Next() {
		var (
			mv    models.Movement
			mtype string
			qty   string
		)
		if err := rows.Scan(&mv.ID, &mv.ItemID, &mtype, &qty, &mv.ReasonCode, &mv.Notes, &mv.FromLocation, &mv.ToLocation, &mv.OccurredAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan movement")
		}
		if mv.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, errors.Wrapf(err, "invalid quantity on movement %s", mv.ID)
		}
		mv.MovementType = models.MovementType(mtype)
		out = append(out, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list movements")
	}
	return out, nil
}
