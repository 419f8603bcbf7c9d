package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderCanceled      EventType = "order.canceled"
	EventTypeOrderShipped       EventType = "order.shipped"
	EventTypeOrderDelivered     EventType = "order.delivered"
	EventTypeOrderDeleted       EventType = "order.deleted"
	EventTypeOrderItemDeleted   EventType = "order.item_deleted"
	EventTypeOrderStatusChanged EventType = "order.status_changed"

	// Balance события
	EventTypeBalanceDeposited EventType = "balance.deposited"
	EventTypeBalanceDebited   EventType = "balance.debited"
	EventTypeBalanceRefunded  EventType = "balance.refunded"

	// Pet события
	EventTypePetAdopted EventType = "pet.adopted"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "petmarket.order.events"
	TopicBalanceEvents   = "petmarket.balance.events"
	TopicDeadLetterQueue = "petmarket.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// BalanceEvent представляет событие баланса
type BalanceEvent struct {
	EventType    EventType `json:"event_type"`
	UserID       string    `json:"user_id"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, userID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// NewBalanceEvent создает новое событие баланса
func NewBalanceEvent(eventType EventType, userID, amount, balanceAfter string) *BalanceEvent {
	return &BalanceEvent{
		EventType:    eventType,
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Timestamp:    time.Now(),
	}
}
