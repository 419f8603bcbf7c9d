package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

func TestPetMarkUnavailable_Idempotent(t *testing.T) {
	pet := domain.Pet{ID: "pet-1", Name: "Барсик", Price: decimal.NewFromInt(100), AvailabilityStatus: true}

	if changed := pet.MarkUnavailable(); !changed {
		t.Fatal("first call must flip availability")
	}
	if pet.AvailabilityStatus {
		t.Fatal("pet must be unavailable after MarkUnavailable")
	}
	// Повторный вызов — no-op, без лишней записи.
	if changed := pet.MarkUnavailable(); changed {
		t.Fatal("second call must be a no-op")
	}
}

func TestPetMarkAvailable_Idempotent(t *testing.T) {
	pet := domain.Pet{ID: "pet-1", Name: "Барсик", Price: decimal.NewFromInt(100), AvailabilityStatus: false}

	if changed := pet.MarkAvailable(); !changed {
		t.Fatal("first call must flip availability")
	}
	if changed := pet.MarkAvailable(); changed {
		t.Fatal("second call must be a no-op")
	}
	if !pet.AvailabilityStatus {
		t.Fatal("pet must be available after MarkAvailable")
	}
}

func TestPetValidate(t *testing.T) {
	pet := domain.Pet{Name: "", Price: decimal.NewFromInt(-5)}
	errs := pet.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
}
