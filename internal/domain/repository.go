package domain

import "context"

// UserRepository хранит пользователей.
type UserRepository interface {
	// Create сохраняет пользователя; ErrUserAlreadyExists при занятом email.
	Create(user User) error
	Get(id string) (User, error)
	GetByEmail(email string) (User, error)
	Save(user User) error
}

// PetRepository хранит каталог питомцев.
type PetRepository interface {
	Create(pet Pet) error
	// Get возвращает питомца или ErrPetNotFound. Внутри Store.Do чтение
	// блокирует строку (postgres: SELECT ... FOR UPDATE).
	Get(id string) (Pet, error)
	List(limit int) ([]Pet, error)
	Save(pet Pet) error
}

// CartRepository хранит корзины и их позиции.
type CartRepository interface {
	// Create сохраняет корзину; ErrCartAlreadyExists, если у пользователя
	// корзина уже есть.
	Create(cart Cart) error
	Get(id string) (Cart, error)
	GetByUser(userID string) (Cart, error)
	GetItem(itemID string) (CartItem, error)
	// SaveItem вставляет новую позицию или перезаписывает существующую по ID.
	SaveItem(item CartItem) error
	DeleteItem(itemID string) error
	// Delete удаляет корзину вместе с позициями.
	Delete(id string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(userID string, limit int) ([]Order, error)
	// List возвращает все заказы (для персонала).
	List(limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
	// Delete удаляет заказ вместе с позициями.
	Delete(id string) error
	// DeleteItem удаляет одну позицию заказа.
	DeleteItem(orderID, itemID string) error
}

// BalanceRepository хранит балансы пользователей.
type BalanceRepository interface {
	Create(balance AccountBalance) error
	// GetByUser возвращает баланс или ErrBalanceNotFound. Внутри Store.Do
	// чтение блокирует строку, чтобы сериализовать списания и пополнения.
	GetByUser(userID string) (AccountBalance, error)
	Save(balance AccountBalance) error
}

// TransactionHistoryRepository — append-only журнал движений по балансу.
type TransactionHistoryRepository interface {
	Append(entry TransactionHistory) error
	// ListByUser возвращает записи пользователя, новые первыми.
	ListByUser(userID string) ([]TransactionHistory, error)
	CountByUser(userID string) (int, error)
}

// AdoptionRepository — append-only история усыновлений.
type AdoptionRepository interface {
	Append(record AdoptionRecord) error
	ListByUser(userID string) ([]AdoptionRecord, error)
}

// Tx даёт доступ к репозиториям в рамках одной транзакции хранилища.
type Tx interface {
	Users() UserRepository
	Pets() PetRepository
	Carts() CartRepository
	Orders() OrderRepository
	Balances() BalanceRepository
	History() TransactionHistoryRepository
	Adoptions() AdoptionRepository
	Outbox() OutboxEnqueuer
}

// Store — unit of work поверх хранилища. Все многошаговые операции ядра
// выполняются внутри Do: либо фиксируются целиком, либо не оставляют следов.
type Store interface {
	// Do выполняет fn в транзакции с блокировками изменяемых строк.
	Do(ctx context.Context, fn func(tx Tx) error) error
	// View выполняет fn в читающей транзакции без блокировок.
	View(ctx context.Context, fn func(tx Tx) error) error
}
