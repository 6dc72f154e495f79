package equipment

import (
	"context"
	"testing"

	"yardops/internal/domain"
	"yardops/internal/repository/pgtest"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(ctx, t)

	repo := NewPostgres(pool)
	due := domain.MustParseDate("2024-07-01")
	first, err := repo.Upsert(ctx, domain.Equipment{Name: "Mower", NextMaintenanceDate: &due, HoursUsed: 80, AlertThreshold: 100})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Equipment{Name: "Mower", HoursUsed: 120, AlertThreshold: 100})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected upsert to keep id %s, got %s", first.ID, second.ID)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].HoursUsed != 120 || list[0].NextMaintenanceDate != nil {
		t.Fatalf("unexpected list %+v", list)
	}
}
