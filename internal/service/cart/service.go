package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

// Service — операции с корзиной: создание, позиции, просмотр с живой суммой.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис корзины.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "cart")
	}
	return &Service{store: store, logger: logger}
}

// ItemView — позиция корзины с текущей ценой из каталога.
type ItemView struct {
	ID        string
	PetID     string
	PetName   string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Summary — корзина с пересчитанной суммой. Сумма не хранится:
// она всегда вычисляется из актуальных цен каталога.
type Summary struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Items     []ItemView
	Total     decimal.Decimal
}

// Create заводит корзину для пользователя. Вторая корзина — конфликт.
func (s *Service) Create(ctx context.Context, p domain.Principal, userID string) (domain.Cart, error) {
	if !p.CanManage(userID) {
		return domain.Cart{}, domain.Forbiddenf("cannot create cart for another user")
	}

	cart := domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		if _, err := tx.Users().Get(userID); err != nil {
			return err
		}
		return tx.Carts().Create(cart)
	})
	if err != nil {
		return domain.Cart{}, err
	}

	s.logger.WithFields(log.Fields{
		"cart_id": cart.ID,
		"user_id": userID,
	}).Info("cart created")
	return cart, nil
}

// Get возвращает корзину с живой суммой по текущим ценам каталога.
func (s *Service) Get(ctx context.Context, p domain.Principal, cartID string) (Summary, error) {
	var summary Summary
	err := s.store.View(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().Get(cartID)
		if err != nil {
			return err
		}
		if !p.CanManage(cart.UserID) {
			return domain.Forbiddenf("cart belongs to another user")
		}
		summary, err = summarize(tx, cart)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// GetByUser возвращает корзину пользователя с живой суммой.
func (s *Service) GetByUser(ctx context.Context, p domain.Principal, userID string) (Summary, error) {
	if !p.CanManage(userID) {
		return Summary{}, domain.Forbiddenf("cart belongs to another user")
	}

	var summary Summary
	err := s.store.View(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().GetByUser(userID)
		if err != nil {
			return err
		}
		summary, err = summarize(tx, cart)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// AddItem добавляет питомца в корзину. Повторное добавление того же питомца
// увеличивает количество существующей позиции.
func (s *Service) AddItem(ctx context.Context, p domain.Principal, cartID, petID string, quantity int32) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, domain.Validationf("quantity must be at least 1")
	}

	var item domain.CartItem
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().Get(cartID)
		if err != nil {
			return err
		}
		if !p.CanManage(cart.UserID) {
			return domain.Forbiddenf("cart belongs to another user")
		}

		pet, err := tx.Pets().Get(petID)
		if err != nil {
			return err
		}
		if !pet.AvailabilityStatus {
			return domain.Validationf("pet %q is not available for adoption", pet.Name)
		}

		if existing := cart.FindItem(petID); existing != nil {
			existing.Quantity += quantity
			item = *existing
		} else {
			item = domain.CartItem{
				ID:       uuid.NewString(),
				CartID:   cart.ID,
				PetID:    petID,
				Quantity: quantity,
			}
		}
		return tx.Carts().SaveItem(item)
	})
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// UpdateItemQuantity задаёт точное количество позиции.
func (s *Service) UpdateItemQuantity(ctx context.Context, p domain.Principal, itemID string, quantity int32) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, domain.Validationf("quantity must be at least 1")
	}

	var item domain.CartItem
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		var err error
		item, err = tx.Carts().GetItem(itemID)
		if err != nil {
			return err
		}
		cart, err := tx.Carts().Get(item.CartID)
		if err != nil {
			return err
		}
		if !p.CanManage(cart.UserID) {
			return domain.Forbiddenf("cart belongs to another user")
		}

		item.Quantity = quantity
		return tx.Carts().SaveItem(item)
	})
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// RemoveItem удаляет позицию; опустевшая корзина удаляется целиком.
func (s *Service) RemoveItem(ctx context.Context, p domain.Principal, itemID string) error {
	return s.store.Do(ctx, func(tx domain.Tx) error {
		item, err := tx.Carts().GetItem(itemID)
		if err != nil {
			return err
		}
		cart, err := tx.Carts().Get(item.CartID)
		if err != nil {
			return err
		}
		if !p.CanManage(cart.UserID) {
			return domain.Forbiddenf("cart belongs to another user")
		}

		if err := tx.Carts().DeleteItem(itemID); err != nil {
			return err
		}
		if len(cart.Items) == 1 {
			return tx.Carts().Delete(cart.ID)
		}
		return nil
	})
}

func summarize(tx domain.Tx, cart domain.Cart) (Summary, error) {
	summary := Summary{
		ID:        cart.ID,
		UserID:    cart.UserID,
		CreatedAt: cart.CreatedAt,
		Items:     make([]ItemView, 0, len(cart.Items)),
		Total:     decimal.Zero,
	}
	for _, item := range cart.Items {
		pet, err := tx.Pets().Get(item.PetID)
		if err != nil {
			return Summary{}, err
		}
		lineTotal := pet.Price.Mul(decimal.NewFromInt32(item.Quantity))
		summary.Items = append(summary.Items, ItemView{
			ID:        item.ID,
			PetID:     item.PetID,
			PetName:   pet.Name,
			Quantity:  item.Quantity,
			UnitPrice: pet.Price,
			LineTotal: lineTotal,
		})
		summary.Total = summary.Total.Add(lineTotal)
	}
	return summary, nil
}
