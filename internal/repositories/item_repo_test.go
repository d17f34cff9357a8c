package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stockdesk/internal/models"
)

var itemCols = []string{"id", "variant_id", "current_quantity", "status", "location_ref", "attributes", "last_exit_reason_code", "created_at", "updated_at"}

func stringPtr(s string) *string { return &s }

type ItemRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    ItemRepository
	movs    MovementRepository
	now     time.Time
	context context.Context
}

func (suite *ItemRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	suite.repo = &itemRepo{db: mock, now: func() time.Time { return suite.now }}
	suite.movs = NewMovementRepo(mock)
	suite.context = context.Background()
}

func (suite *ItemRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestItemRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ItemRepoTestSuite))
}

func (suite *ItemRepoTestSuite) itemRow(rows *pgxmock.Rows, id, qty string, reason *string) *pgxmock.Rows {
	return rows.AddRow(id, "v1", qty, "AVAILABLE", stringPtr("bin-1"), []byte(`{"color":"red"}`), reason, suite.now, suite.now)
}

func (suite *ItemRepoTestSuite) TestGetByID_Success() {
	rows := suite.itemRow(pgxmock.NewRows(itemCols), "i1", "2.500", nil)
	suite.mock.ExpectQuery(`FROM items WHERE id = \$1`).WithArgs("i1").WillReturnRows(rows)

	item, err := suite.repo.GetByID(suite.context, "i1")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), item.CurrentQuantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(suite.T(), models.ItemStatusAvailable, item.Status)
	assert.Equal(suite.T(), "red", item.Attributes["color"])
	assert.Equal(suite.T(), "bin-1", item.Location())
}

func (suite *ItemRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM items WHERE id = \$1`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, "missing")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestList_InStockOnlyByDefault() {
	rows := pgxmock.NewRows(itemCols)
	suite.itemRow(rows, "a", "1", nil)
	suite.itemRow(rows, "b", "3", nil)
	suite.mock.ExpectQuery(`WHERE variant_id = \$1 AND current_quantity > 0 AND status = ANY\(\$2\) ORDER BY created_at, id LIMIT \$3`).
		WithArgs("v1", []string{"AVAILABLE", "DAMAGED"}, 20).
		WillReturnRows(rows)

	items, err := suite.repo.List(suite.context, models.ItemFilter{
		VariantID: "v1",
		Statuses:  []models.ItemStatus{models.ItemStatusAvailable, models.ItemStatusDamaged},
		Limit:     20,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 2)
	assert.Equal(suite.T(), "a", items[0].ID)
}

func (suite *ItemRepoTestSuite) TestList_IncludeExited() {
	rows := suite.itemRow(pgxmock.NewRows(itemCols), "gone", "0", stringPtr("SALE"))
	suite.mock.ExpectQuery(`WHERE variant_id = \$1 ORDER BY created_at, id$`).
		WithArgs("v1").
		WillReturnRows(rows)

	items, err := suite.repo.List(suite.context, models.ItemFilter{VariantID: "v1", IncludeExited: true})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.True(suite.T(), items[0].IsExited())
	assert.Equal(suite.T(), "SALE", *items[0].LastExitReasonCode)
}

func (suite *ItemRepoTestSuite) TestList_QueryError() {
	suite.mock.ExpectQuery(`FROM items`).WillReturnError(errors.New("connection reset"))

	_, err := suite.repo.List(suite.context, models.ItemFilter{VariantID: "v1"})
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed to list items")
}

func (suite *ItemRepoTestSuite) TestCreateWithMovement() {
	loc := stringPtr("bin-2")
	item := &models.Item{
		ID:              "i9",
		VariantID:       "v1",
		CurrentQuantity: decimal.NewFromInt(4),
		Status:          models.ItemStatusAvailable,
		LocationRef:     loc,
		CreatedAt:       suite.now,
		UpdatedAt:       suite.now,
	}
	mv := models.Movement{ID: "m1", ItemID: "i9", MovementType: models.MovementPurchase, Quantity: item.CurrentQuantity, ReasonCode: "PURCHASE", ToLocation: loc, OccurredAt: suite.now}

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO items`).
		WithArgs("i9", "v1", "4", "AVAILABLE", loc, []byte("null"), (*string)(nil), suite.now, suite.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs("m1", "i9", "PURCHASE", "4", "PURCHASE", "", (*string)(nil), loc, suite.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	assert.NoError(suite.T(), suite.repo.CreateWithMovement(suite.context, item, mv))
}

func (suite *ItemRepoTestSuite) TestApplyMovement_PersistsPlannedState() {
	rows := suite.itemRow(pgxmock.NewRows(itemCols), "i1", "5", nil)
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM items WHERE id = \$1 FOR UPDATE`).WithArgs("i1").WillReturnRows(rows)
	suite.mock.ExpectExec(`UPDATE items`).
		WithArgs("0", "AVAILABLE", pgxmock.AnyArg(), pgxmock.AnyArg(), suite.now, "i1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs("m2", "i1", "LOSS", "5", "LOSS", "", pgxmock.AnyArg(), (*string)(nil), suite.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	item, mv, err := suite.repo.ApplyMovement(suite.context, "i1", func(it *models.Item, now time.Time) (models.Movement, error) {
		mv := models.Movement{ID: "m2", ItemID: it.ID, MovementType: models.MovementLoss, Quantity: it.CurrentQuantity, ReasonCode: "LOSS", FromLocation: it.LocationRef, OccurredAt: now}
		reason := "LOSS"
		it.CurrentQuantity = decimal.Zero
		it.LastExitReasonCode = &reason
		it.UpdatedAt = now
		return mv, nil
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), item.IsExited())
	assert.Equal(suite.T(), "m2", mv.ID)
}

func (suite *ItemRepoTestSuite) TestApplyMovement_PlanErrorRollsBack() {
	rows := suite.itemRow(pgxmock.NewRows(itemCols), "i1", "0", stringPtr("SALE"))
	planErr := errors.New("already exited")
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FOR UPDATE`).WithArgs("i1").WillReturnRows(rows)
	suite.mock.ExpectRollback()

	_, _, err := suite.repo.ApplyMovement(suite.context, "i1", func(*models.Item, time.Time) (models.Movement, error) {
		return models.Movement{}, planErr
	})
	assert.ErrorIs(suite.T(), err, planErr)
}

func (suite *ItemRepoTestSuite) TestApplyMovement_MissingItem() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FOR UPDATE`).WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectRollback()

	_, _, err := suite.repo.ApplyMovement(suite.context, "nope", nil)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestListMovements() {
	rows := pgxmock.NewRows([]string{"id", "item_id", "movement_type", "quantity", "reason_code", "notes", "from_location", "to_location", "occurred_at"}).
		AddRow("m2", "i1", "TRANSFER", "1", "TRANSFER", "", stringPtr("bin-1"), stringPtr("bin-3"), suite.now).
		AddRow("m1", "i1", "PURCHASE", "1", "PURCHASE", "first lot", (*string)(nil), stringPtr("bin-1"), suite.now.Add(-time.Hour))
	suite.mock.ExpectQuery(`FROM movements`).WithArgs("i1", 50, 0).WillReturnRows(rows)

	movs, err := suite.movs.ListByItem(suite.context, "i1", 0, 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), movs, 2)
	assert.Equal(suite.T(), models.MovementTransfer, movs[0].MovementType)
	assert.Equal(suite.T(), "first lot", movs[1].Notes)
}
