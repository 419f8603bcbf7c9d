package order

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/petmarket/internal/metrics"
	"github.com/vladislavdragonenkov/petmarket/internal/service/ledger"
)

// ErrStatusNotCached возвращается кэшем статусов при промахе.
var ErrStatusNotCached = errors.New("order status not cached")

// StatusCache — необязательный кэш статусов заказов. Реализация должна
// возвращать ErrStatusNotCached при промахе.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID, userID string, status domain.OrderStatus) error
	GetStatus(ctx context.Context, orderID string) (userID string, status domain.OrderStatus, err error)
}

// Service — движок жизненного цикла заказа: оформление из корзины, отмена,
// административные переходы статусов и доставка с записью усыновлений.
type Service struct {
	store         domain.Store
	logger        *log.Entry
	metrics       *metrics.OrderMetrics
	ledgerMetrics *metrics.LedgerMetrics
	cache         StatusCache
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics подключает метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLedgerMetrics подключает метрики движений по балансу: оформление
// заказа — это payment, отмена — refund.
func WithLedgerMetrics(m *metrics.LedgerMetrics) Option {
	return func(s *Service) {
		s.ledgerMetrics = m
	}
}

// WithStatusCache подключает кэш статусов (read-through, write-through).
func WithStatusCache(cache StatusCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService создаёт движок заказов.
func NewService(store domain.Store, logger *log.Entry, options ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "order")
	}
	s := &Service{store: store, logger: logger}
	for _, option := range options {
		option(s)
	}
	return s
}

// Create оформляет заказ из корзины: снимок позиций по текущим ценам,
// списание с баланса, закрепление питомцев и удаление корзины — атомарно.
func (s *Service) Create(ctx context.Context, p domain.Principal, cartID string) (domain.Order, error) {
	started := time.Now()

	var order domain.Order
	var emptyCart bool
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().Get(cartID)
		if err != nil {
			if errors.Is(err, domain.ErrCartNotFound) {
				return domain.Validationf("invalid cart or permission denied")
			}
			return err
		}
		if !p.CanManage(cart.UserID) {
			// Чужая корзина неотличима от несуществующей.
			return domain.Validationf("invalid cart or permission denied")
		}
		if cart.Empty() {
			// Удаление пустой корзины должно закоммититься, поэтому из
			// транзакции выходим без ошибки и отвечаем отказом снаружи.
			emptyCart = true
			return tx.Carts().Delete(cart.ID)
		}

		now := time.Now().UTC()
		pets := make([]domain.Pet, 0, len(cart.Items))
		var unavailable []string
		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(cart.Items))
		orderID := uuid.NewString()

		for _, cartItem := range cart.Items {
			pet, err := tx.Pets().Get(cartItem.PetID)
			if err != nil {
				return err
			}
			if !pet.AvailabilityStatus {
				unavailable = append(unavailable, pet.Name)
				continue
			}
			pets = append(pets, pet)

			lineTotal := pet.Price.Mul(decimal.NewFromInt32(cartItem.Quantity))
			items = append(items, domain.OrderItem{
				ID:         uuid.NewString(),
				OrderID:    orderID,
				PetID:      pet.ID,
				Quantity:   cartItem.Quantity,
				UnitPrice:  pet.Price,
				TotalPrice: lineTotal,
				CreatedAt:  now,
			})
			total = total.Add(lineTotal)
		}
		if len(unavailable) > 0 {
			sort.Strings(unavailable)
			return domain.Validationf("pets are not available for adoption: %s", strings.Join(unavailable, ", "))
		}

		order = domain.Order{
			ID:         orderID,
			UserID:     cart.UserID,
			Status:     domain.OrderStatusReadyToShip,
			TotalPrice: total,
			Items:      items,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return domain.Validationf("order is invalid: %v", errors.Join(errs...))
		}
		if err := tx.Orders().Create(order); err != nil {
			return err
		}

		// Списание пишет payment-запись со ссылкой на заказ, поэтому идёт
		// после создания заказа.
		if _, err := ledger.Debit(tx, cart.UserID, total, orderID, now); err != nil {
			return err
		}

		for _, pet := range pets {
			pet.MarkUnavailable()
			pet.UpdatedAt = now
			if err := tx.Pets().Save(pet); err != nil {
				return err
			}
		}

		if err := tx.Carts().Delete(cart.ID); err != nil {
			return err
		}
		return enqueueOrderEvent(tx, kafka.EventTypeOrderCreated, order)
	})
	if err != nil {
		if s.ledgerMetrics != nil && errors.Is(err, domain.ErrInsufficientBalance) {
			s.ledgerMetrics.RecordDeclined()
		}
		return domain.Order{}, err
	}
	if emptyCart {
		return domain.Order{}, domain.Validationf("cannot create order from an empty cart")
	}

	s.cacheStatus(ctx, order)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		s.metrics.RecordCheckoutDuration(time.Since(started))
		s.metrics.RecordOutboxEvent()
	}
	if s.ledgerMetrics != nil {
		s.ledgerMetrics.RecordPayment()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice.StringFixed(2),
		"items":    len(order.Items),
	}).Info("order created")

	return order, nil
}

// Cancel отменяет заказ: возврат средств и освобождение питомцев — атомарно.
// Отгруженные и доставленные заказы отмене не подлежат.
func (s *Service) Cancel(ctx context.Context, p domain.Principal, orderID string) (domain.Order, error) {
	var order domain.Order
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		var err error
		order, err = tx.Orders().Get(orderID)
		if err != nil {
			return err
		}
		if !p.CanManage(order.UserID) {
			return domain.Forbiddenf("order belongs to another user")
		}
		if err := order.Cancelable(); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.Status = domain.OrderStatusCanceled
		order.UpdatedAt = now
		if err := tx.Orders().Save(order); err != nil {
			return err
		}
		order.Version++

		if _, err := ledger.Credit(tx, order.UserID, order.TotalPrice, order.ID, now); err != nil {
			return err
		}

		if err := releasePets(tx, order, now); err != nil {
			return err
		}
		return enqueueOrderEvent(tx, kafka.EventTypeOrderCanceled, order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.cacheStatus(ctx, order)
	if s.metrics != nil {
		s.metrics.RecordOrderCanceled()
		s.metrics.RecordOutboxEvent()
	}
	if s.ledgerMetrics != nil {
		s.ledgerMetrics.RecordRefund()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"refund":   order.TotalPrice.StringFixed(2),
	}).Info("order canceled")

	return order, nil
}

// UpdateStatus выполняет административный переход статуса. Доступно только
// персоналу; разрешены переходы ready_to_ship → shipped → delivered.
// Переход в delivered записывает усыновления.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !p.Staff {
		return domain.Order{}, domain.Forbiddenf("only staff can update order status")
	}
	if !status.Valid() {
		return domain.Order{}, domain.Validationf("unknown order status %q", status)
	}

	var order domain.Order
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		var err error
		order, err = tx.Orders().Get(orderID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, status) {
			return domain.Validationf("cannot transition order from %s to %s", order.Status, status)
		}

		now := time.Now().UTC()
		order.Status = status
		order.UpdatedAt = now
		if err := tx.Orders().Save(order); err != nil {
			return err
		}
		order.Version++

		if status == domain.OrderStatusDelivered {
			if err := recordAdoptions(tx, order, now); err != nil {
				return err
			}
		}
		return enqueueOrderEvent(tx, statusEventType(status), order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.cacheStatus(ctx, order)
	if s.metrics != nil {
		switch status {
		case domain.OrderStatusShipped:
			s.metrics.RecordOrderShipped()
		case domain.OrderStatusDelivered:
			s.metrics.RecordOrderDelivered(len(order.Items))
		}
		s.metrics.RecordOutboxEvent()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order status updated")

	return order, nil
}

// MarkDelivered — ярлык для перехода shipped → delivered.
func (s *Service) MarkDelivered(ctx context.Context, p domain.Principal, orderID string) (domain.Order, error) {
	return s.UpdateStatus(ctx, p, orderID, domain.OrderStatusDelivered)
}

// Delete удаляет заказ целиком. Только для персонала.
// Питомцы заказа возвращаются в каталог независимо от статуса, чтобы
// не остаться занятыми без существующего заказа; возврат средств не
// выполняется.
func (s *Service) Delete(ctx context.Context, p domain.Principal, orderID string) error {
	if !p.Staff {
		return domain.Forbiddenf("only staff can delete orders")
	}

	var wasActive bool
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		order, err := tx.Orders().Get(orderID)
		if err != nil {
			return err
		}
		// Доставленный заказ в счётчике активных уже не числится.
		wasActive = order.Status.Active() && order.Status != domain.OrderStatusDelivered

		now := time.Now().UTC()
		if err := releasePets(tx, order, now); err != nil {
			return err
		}
		if err := tx.Orders().Delete(order.ID); err != nil {
			return err
		}
		return enqueueOrderEvent(tx, kafka.EventTypeOrderDeleted, order)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted(wasActive)
		s.metrics.RecordOutboxEvent()
	}
	s.logger.WithField("order_id", orderID).Info("order deleted")
	return nil
}

// DeleteItem удаляет одну позицию заказа. Только для персонала.
// Питомец позиции возвращается в каталог независимо от статуса заказа;
// удаление последней позиции удаляет заказ. TotalPrice заказа не
// пересчитывается: это исторический факт оплаты.
func (s *Service) DeleteItem(ctx context.Context, p domain.Principal, orderID, itemID string) error {
	if !p.Staff {
		return domain.Forbiddenf("only staff can delete order items")
	}

	err := s.store.Do(ctx, func(tx domain.Tx) error {
		order, err := tx.Orders().Get(orderID)
		if err != nil {
			return err
		}
		item := order.FindItem(itemID)
		if item == nil {
			return domain.ErrOrderItemNotFound
		}

		now := time.Now().UTC()
		if err := releasePet(tx, item.PetID, now); err != nil {
			return err
		}

		if len(order.Items) == 1 {
			if err := tx.Orders().Delete(order.ID); err != nil {
				return err
			}
			return enqueueOrderEvent(tx, kafka.EventTypeOrderDeleted, order)
		}
		if err := tx.Orders().DeleteItem(orderID, itemID); err != nil {
			return err
		}
		return enqueueOrderEvent(tx, kafka.EventTypeOrderItemDeleted, order)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
	return nil
}

// Get возвращает заказ владельцу или персоналу.
func (s *Service) Get(ctx context.Context, p domain.Principal, orderID string) (domain.Order, error) {
	var order domain.Order
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		order, err = tx.Orders().Get(orderID)
		if err != nil {
			return err
		}
		if !p.CanManage(order.UserID) {
			return domain.Forbiddenf("order belongs to another user")
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// List возвращает заказы пользователя, новые первыми. Персонал с пустым
// userID получает все заказы.
func (s *Service) List(ctx context.Context, p domain.Principal, userID string, limit int) ([]domain.Order, error) {
	if userID == "" {
		if !p.Staff {
			userID = p.UserID
		}
	} else if !p.CanManage(userID) {
		return nil, domain.Forbiddenf("orders belong to another user")
	}

	var orders []domain.Order
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		if userID == "" {
			orders, err = tx.Orders().List(limit)
		} else {
			orders, err = tx.Orders().ListByUser(userID, limit)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Status возвращает статус заказа, по возможности из кэша.
func (s *Service) Status(ctx context.Context, p domain.Principal, orderID string) (domain.OrderStatus, error) {
	if s.cache != nil {
		ownerID, status, err := s.cache.GetStatus(ctx, orderID)
		if err == nil {
			if !p.CanManage(ownerID) {
				return "", domain.Forbiddenf("order belongs to another user")
			}
			return status, nil
		}
		if !errors.Is(err, ErrStatusNotCached) {
			// Недоступный кэш не должен ломать чтение статуса.
			s.logger.WithError(err).Warn("status cache read failed")
		}
	}

	order, err := s.Get(ctx, p, orderID)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, order)
	return order.Status, nil
}

func (s *Service) cacheStatus(ctx context.Context, order domain.Order) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStatus(ctx, order.ID, order.UserID, order.Status); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("status cache write failed")
	}
}

// releasePets возвращает питомцев заказа в каталог. Вызывается на любом
// пути удаления заказа независимо от его статуса: без заказа питомец не
// должен оставаться занятым.
func releasePets(tx domain.Tx, order domain.Order, now time.Time) error {
	for _, item := range order.Items {
		if err := releasePet(tx, item.PetID, now); err != nil {
			return err
		}
	}
	return nil
}

func releasePet(tx domain.Tx, petID string, now time.Time) error {
	pet, err := tx.Pets().Get(petID)
	if err != nil {
		// Питомец мог быть удалён из каталога; освобождать нечего.
		if errors.Is(err, domain.ErrPetNotFound) {
			return nil
		}
		return err
	}
	if !pet.MarkAvailable() {
		return nil
	}
	pet.UpdatedAt = now
	return tx.Pets().Save(pet)
}

func recordAdoptions(tx domain.Tx, order domain.Order, now time.Time) error {
	for _, item := range order.Items {
		record := domain.AdoptionRecord{
			ID:           uuid.NewString(),
			UserID:       order.UserID,
			PetID:        item.PetID,
			OrderID:      order.ID,
			AdoptionDate: now,
		}
		if err := tx.Adoptions().Append(record); err != nil {
			return err
		}
	}
	return nil
}

func statusEventType(status domain.OrderStatus) kafka.EventType {
	switch status {
	case domain.OrderStatusShipped:
		return kafka.EventTypeOrderShipped
	case domain.OrderStatusDelivered:
		return kafka.EventTypeOrderDelivered
	default:
		return kafka.EventTypeOrderStatusChanged
	}
}

func enqueueOrderEvent(tx domain.Tx, eventType kafka.EventType, order domain.Order) error {
	payload, err := json.Marshal(kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), map[string]interface{}{
		"total_price": order.TotalPrice.StringFixed(2),
		"items":       len(order.Items),
	}))
	if err != nil {
		return err
	}
	_, err = tx.Outbox().Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	})
	return err
}
