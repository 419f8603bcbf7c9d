package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/service/order"
)

const (
	statusKeyPrefix  = "petmarket:order-status:"
	defaultStatusTTL = 10 * time.Minute
)

// OrderStatusCache хранит статусы заказов в Redis. Значение — "owner|status":
// владелец нужен, чтобы проверять доступ без похода в основное хранилище.
type OrderStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderStatusCache создаёт кэш статусов поверх готового клиента.
func NewOrderStatusCache(client *redis.Client, ttl time.Duration) *OrderStatusCache {
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &OrderStatusCache{client: client, ttl: ttl}
}

// SetStatus пишет статус заказа с TTL.
func (c *OrderStatusCache) SetStatus(ctx context.Context, orderID, userID string, status domain.OrderStatus) error {
	value := userID + "|" + string(status)
	if err := c.client.Set(ctx, statusKeyPrefix+orderID, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("set order status in redis: %w", err)
	}
	return nil
}

// GetStatus читает статус заказа; при промахе возвращает order.ErrStatusNotCached.
func (c *OrderStatusCache) GetStatus(ctx context.Context, orderID string) (string, domain.OrderStatus, error) {
	value, err := c.client.Get(ctx, statusKeyPrefix+orderID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", order.ErrStatusNotCached
		}
		return "", "", fmt.Errorf("get order status from redis: %w", err)
	}

	userID, status, ok := strings.Cut(value, "|")
	if !ok {
		// Повреждённая запись равносильна промаху.
		return "", "", order.ErrStatusNotCached
	}
	return userID, domain.OrderStatus(status), nil
}

var _ order.StatusCache = (*OrderStatusCache)(nil)
