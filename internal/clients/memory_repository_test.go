package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMemoryRepositoryAddAssignsIdentity(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	stored, err := repo.Add(ctx, Client{
		Name:        "Ana Mbemba",
		DateOfBirth: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:      "F",
		Income:      decimal.RequireFromString("2500.50"),
	})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if stored.ID == "" {
		t.Fatalf("expected an assigned ID")
	}

	fetched, err := repo.GetByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get client: %v", err)
	}
	if fetched.Name != "Ana Mbemba" || !fetched.Income.Equal(decimal.RequireFromString("2500.5")) {
		t.Fatalf("unexpected client: %+v", fetched)
	}
}

func TestMemoryRepositoryGetMissing(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
