package pet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/memory"
)

var staff = domain.Principal{UserID: "staff-1", Staff: true}

func TestCreatePet(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()

	pet, err := svc.Create(ctx, staff, "Барсик", decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.NotEmpty(t, pet.ID)
	assert.True(t, pet.AvailabilityStatus)

	got, err := svc.Get(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, pet.ID, got.ID)
}

func TestCreatePetValidation(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Principal{UserID: "user-1"}, "Барсик", decimal.NewFromInt(150))
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.Create(ctx, staff, "", decimal.NewFromInt(150))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Create(ctx, staff, "Барсик", decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestListPets(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()

	for _, name := range []string{"Барсик", "Шарик", "Мурка"} {
		_, err := svc.Create(ctx, staff, name, decimal.NewFromInt(100))
		require.NoError(t, err)
	}

	pets, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pets, 3)

	pets, err = svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, pets, 2)
}

func TestUpdatePrice(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()

	pet, err := svc.Create(ctx, staff, "Барсик", decimal.NewFromInt(150))
	require.NoError(t, err)

	updated, err := svc.UpdatePrice(ctx, staff, pet.ID, decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(200)))

	_, err = svc.UpdatePrice(ctx, staff, uuid.NewString(), decimal.NewFromInt(200))
	require.ErrorIs(t, err, domain.ErrPetNotFound)

	_, err = svc.UpdatePrice(ctx, domain.Principal{UserID: "user-1"}, pet.ID, decimal.NewFromInt(200))
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}
