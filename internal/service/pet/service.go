package pet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

// Service — тонкий каталог питомцев. Доступность здесь не меняется:
// ею управляет движок жизненного цикла заказа.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "pet")
	}
	return &Service{store: store, logger: logger}
}

// Create добавляет питомца в каталог. Только для персонала.
func (s *Service) Create(ctx context.Context, p domain.Principal, name string, price decimal.Decimal) (domain.Pet, error) {
	if !p.Staff {
		return domain.Pet{}, domain.Forbiddenf("only staff can add pets to the catalog")
	}

	now := time.Now().UTC()
	pet := domain.Pet{
		ID:                 uuid.NewString(),
		Name:               name,
		Price:              price,
		AvailabilityStatus: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if errs := pet.Validate(); len(errs) > 0 {
		return domain.Pet{}, domain.Validationf("pet is invalid: %v", errors.Join(errs...))
	}

	err := s.store.Do(ctx, func(tx domain.Tx) error {
		return tx.Pets().Create(pet)
	})
	if err != nil {
		return domain.Pet{}, err
	}

	s.logger.WithFields(log.Fields{
		"pet_id": pet.ID,
		"name":   pet.Name,
	}).Info("pet added to catalog")
	return pet, nil
}

// Get возвращает питомца по идентификатору.
func (s *Service) Get(ctx context.Context, petID string) (domain.Pet, error) {
	var pet domain.Pet
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		pet, err = tx.Pets().Get(petID)
		return err
	})
	return pet, err
}

// List возвращает каталог в порядке добавления.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Pet, error) {
	var pets []domain.Pet
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		pets, err = tx.Pets().List(limit)
		return err
	})
	return pets, err
}

// UpdatePrice меняет цену в каталоге. Снимки цен в заказах не трогаются.
func (s *Service) UpdatePrice(ctx context.Context, p domain.Principal, petID string, price decimal.Decimal) (domain.Pet, error) {
	if !p.Staff {
		return domain.Pet{}, domain.Forbiddenf("only staff can update pet prices")
	}
	if price.IsNegative() {
		return domain.Pet{}, domain.Validationf("pet price must be non-negative")
	}

	var pet domain.Pet
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		var err error
		pet, err = tx.Pets().Get(petID)
		if err != nil {
			return err
		}
		pet.Price = price
		pet.UpdatedAt = time.Now().UTC()
		return tx.Pets().Save(pet)
	})
	if err != nil {
		return domain.Pet{}, err
	}
	return pet, nil
}
