package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

func point(symbol string, ts int64, price string) *domain.PricePoint {
	return &domain.PricePoint{Symbol: symbol, Price: decimal.RequireFromString(price), TimestampMs: ts}
}

func TestPriceHistoryStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PricePoint{
		point("ZIL", 3000, "0.03"),
		point("ZIL", 1000, "0.01"),
		point("ZWAP", 1000, "5"),
		point("ZIL", 2000, "0.02"),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "ZIL", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("points not ordered by timestamp: %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}

	latest, err := store.GetLatest(ctx, "ZIL")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if !latest.Price.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("Expected latest price 0.03, got %s", latest.Price)
	}
}

func TestPriceHistoryStore_DuplicateKey(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.PricePoint{point("ZIL", 1000, "1")}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Duplicate against stored row fails the whole batch
	err := store.InsertBulk(ctx, []*domain.PricePoint{point("ZIL", 2000, "2"), point("ZIL", 1000, "1")})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	result, _ := store.GetByTimeRange(ctx, "ZIL", 0, 5000)
	if len(result) != 1 {
		t.Errorf("Expected batch to be rejected, got %d points", len(result))
	}

	// Intra-batch duplicate
	err = store.InsertBulk(ctx, []*domain.PricePoint{point("ZWAP", 1, "1"), point("ZWAP", 1, "2")})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPriceHistoryStore_Empty(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("empty insert should succeed: %v", err)
	}
	if _, err := store.GetLatest(ctx, "ZIL"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.PricePoint{{TimestampMs: 1}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
