package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа на усыновление.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, но оплата ещё не проведена.
	// Рабочий процесс создаёт заказы сразу в ready_to_ship; статус оставлен
	// для совместимости данных со старыми записями.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusReadyToShip — заказ оплачен, питомцы закреплены.
	OrderStatusReadyToShip OrderStatus = "ready_to_ship"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — терминальный статус: усыновление состоялось.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCanceled — заказ отменён, деньги возвращены, питомцы освобождены.
	OrderStatusCanceled OrderStatus = "canceled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusReadyToShip, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// Active сообщает, удерживает ли заказ в этом статусе питомцев занятыми.
func (s OrderStatus) Active() bool {
	switch s {
	case OrderStatusReadyToShip, OrderStatusShipped, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransition разрешает только прямые административные переходы:
// ready_to_ship → shipped → delivered. Отмена идёт отдельной операцией.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusReadyToShip:
		return to == OrderStatusShipped
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		return false
	}
}

var (
	// Ошибка отсутствующего владельца заказа.
	ErrOrderUserRequired = errors.New("order user_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrOrderItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrOrderTotalNegative = errors.New("order total_price must be non-negative")
	// Ошибка при некорректном количестве в позиции (<= 0).
	ErrOrderItemQtyInvalid = errors.New("order item quantity must be greater than zero")
	// Ошибка отрицательной цены позиции.
	ErrOrderItemPriceInvalid = errors.New("order item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrOrderTotalMismatch = errors.New("order total_price does not match items sum")
)

// OrderItem — позиция заказа со снимком цены на момент оформления.
// Снимки не пересчитываются при последующих изменениях цены питомца.
type OrderItem struct {
	ID      string
	OrderID string
	PetID   string
	Quantity int32
	// UnitPrice — цена за единицу на момент создания заказа.
	UnitPrice decimal.Decimal
	// TotalPrice — UnitPrice * Quantity, зафиксировано при создании.
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// Order агрегирует состояние заказа и его позиции.
// TotalPrice неизменен после создания — это исторический факт оплаты.
type Order struct {
	ID         string
	UserID     string
	Status     OrderStatus
	TotalPrice decimal.Decimal
	Items      []OrderItem
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateInvariants проверяет инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrOrderUserRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrOrderItemsRequired)
	}
	if o.TotalPrice.IsNegative() {
		errs = append(errs, ErrOrderTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * unit_price.
	calc := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrOrderItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrOrderItemPriceInvalid)
		}
		calc = calc.Add(item.TotalPrice)
	}
	if !calc.Equal(o.TotalPrice) {
		errs = append(errs, ErrOrderTotalMismatch)
	}

	return errs
}

// Cancelable проверяет, допускает ли текущий статус отмену.
func (o *Order) Cancelable() error {
	switch o.Status {
	case OrderStatusShipped, OrderStatusDelivered:
		return ErrOrderNotCancelable
	case OrderStatusCanceled:
		return ErrOrderAlreadyCanceled
	default:
		return nil
	}
}

// FindItem возвращает позицию заказа по идентификатору или nil.
func (o *Order) FindItem(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
