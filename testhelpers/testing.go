package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"stockdesk/internal/models"
	"stockdesk/pkg/database"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the schema. The test
// is skipped in short mode or when no database is configured.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{
		Pool:    pool,
		Cleanup: pool.Close,
	}
}

// NewVariantID returns a variant id unique to the calling test, so runs never
// see each other's rows.
func NewVariantID(t *testing.T) string {
	t.Helper()
	return "test-" + uuid.NewString()
}

// SetupTestItem inserts an in-stock item directly, bypassing the service.
func SetupTestItem(t *testing.T, db *TestDB, variantID, location, quantity string, createdAt time.Time) *models.Item {
	t.Helper()

	item := &models.Item{
		ID:          uuid.NewString(),
		VariantID:   variantID,
		Status:      models.ItemStatusAvailable,
		LocationRef: &location,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	query := `
		INSERT INTO items (id, variant_id, current_quantity, status, location_ref, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		item.ID, item.VariantID, quantity, string(item.Status), location, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}
	return item
}
