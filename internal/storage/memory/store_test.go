package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/memory"
)

func newPet(id string) domain.Pet {
	now := time.Now().UTC()
	return domain.Pet{
		ID:                 id,
		Name:               "Барсик",
		Price:              decimal.NewFromInt(100),
		AvailabilityStatus: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestStore_RollbackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Do(ctx, func(tx domain.Tx) error {
		if err := tx.Pets().Create(newPet("pet-1")); err != nil {
			return err
		}
		if _, err := tx.Outbox().Enqueue(domain.OutboxMessage{EventType: "pet.created"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Откат: ни питомца, ни outbox-события.
	err = store.View(ctx, func(tx domain.Tx) error {
		if _, err := tx.Pets().Get("pet-1"); !errors.Is(err, domain.ErrPetNotFound) {
			t.Fatalf("expected pet rollback, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}

	pending, err := store.Outbox().PullPending(10)
	if err != nil {
		t.Fatalf("pull pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after rollback, got %d", len(pending))
	}
}

func TestStore_CommitPublishesOutbox(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Do(ctx, func(tx domain.Tx) error {
		_, err := tx.Outbox().Enqueue(domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   "order-1",
			EventType:     "order.created",
		})
		return err
	})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}

	pending, err := store.Outbox().PullPending(10)
	if err != nil {
		t.Fatalf("pull pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	if pending[0].ID == "" {
		t.Fatal("enqueue must assign message id")
	}

	if err := store.Outbox().MarkSent(pending[0].ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ = store.Outbox().PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after MarkSent, got %d", len(pending))
	}
}

func TestCartRepository_OneCartPerUser(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	cart := domain.Cart{ID: "cart-1", UserID: "user-1", CreatedAt: time.Now().UTC()}
	if err := store.Do(ctx, func(tx domain.Tx) error {
		return tx.Carts().Create(cart)
	}); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	err := store.Do(ctx, func(tx domain.Tx) error {
		return tx.Carts().Create(domain.Cart{ID: "cart-2", UserID: "user-1"})
	})
	if !errors.Is(err, domain.ErrCartAlreadyExists) {
		t.Fatalf("expected ErrCartAlreadyExists, got %v", err)
	}
}

func TestCartRepository_ItemLifecycle(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Do(ctx, func(tx domain.Tx) error {
		if err := tx.Carts().Create(domain.Cart{ID: "cart-1", UserID: "user-1"}); err != nil {
			return err
		}
		return tx.Carts().SaveItem(domain.CartItem{ID: "item-1", CartID: "cart-1", PetID: "pet-1", Quantity: 1})
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Обновление количества.
	err = store.Do(ctx, func(tx domain.Tx) error {
		item, err := tx.Carts().GetItem("item-1")
		if err != nil {
			return err
		}
		item.Quantity = 3
		return tx.Carts().SaveItem(item)
	})
	if err != nil {
		t.Fatalf("update item failed: %v", err)
	}

	err = store.View(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().Get("cart-1")
		if err != nil {
			return err
		}
		if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
			t.Fatalf("unexpected cart items: %+v", cart.Items)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}

	// Удаление позиции и корзины.
	err = store.Do(ctx, func(tx domain.Tx) error {
		if err := tx.Carts().DeleteItem("item-1"); err != nil {
			return err
		}
		return tx.Carts().Delete("cart-1")
	})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	err = store.View(ctx, func(tx domain.Tx) error {
		_, err := tx.Carts().GetByUser("user-1")
		if !errors.Is(err, domain.ErrCartNotFound) {
			t.Fatalf("expected ErrCartNotFound, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	now := time.Now().UTC()
	order := domain.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Status:     domain.OrderStatusReadyToShip,
		TotalPrice: decimal.NewFromInt(100),
		Items: []domain.OrderItem{{
			ID: "item-1", OrderID: "order-1", PetID: "pet-1", Quantity: 1,
			UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(100), CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.Do(ctx, func(tx domain.Tx) error {
		return tx.Orders().Create(order)
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stale := order
	stale.Version = 42
	err := store.Do(ctx, func(tx domain.Tx) error {
		return tx.Orders().Save(stale)
	})
	if !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	// Успешное сохранение инкрементирует версию.
	err = store.Do(ctx, func(tx domain.Tx) error {
		current, err := tx.Orders().Get(order.ID)
		if err != nil {
			return err
		}
		current.Status = domain.OrderStatusShipped
		return tx.Orders().Save(current)
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_ = store.View(ctx, func(tx domain.Tx) error {
		updated, err := tx.Orders().Get(order.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if updated.Version != order.Version+1 {
			t.Fatalf("expected version increment, got %d", updated.Version)
		}
		return nil
	})
}

func TestHistoryRepository_NewestFirst(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	base := time.Now().UTC()
	err := store.Do(ctx, func(tx domain.Tx) error {
		for i, entryType := range []domain.TransactionType{
			domain.TransactionTypeDeposit,
			domain.TransactionTypePayment,
			domain.TransactionTypeRefund,
		} {
			entry := domain.TransactionHistory{
				ID:        string(rune('a' + i)),
				UserID:    "user-1",
				Type:      entryType,
				Amount:    decimal.NewFromInt(int64(i + 1)),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			}
			if err := tx.History().Append(entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	_ = store.View(ctx, func(tx domain.Tx) error {
		entries, err := tx.History().ListByUser("user-1")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Type != domain.TransactionTypeRefund {
			t.Fatalf("expected newest entry first, got %s", entries[0].Type)
		}
		count, err := tx.History().CountByUser("user-1")
		if err != nil || count != 3 {
			t.Fatalf("count = %d, err = %v", count, err)
		}
		return nil
	})
}
