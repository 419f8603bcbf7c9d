package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

const opTimeout = 5 * time.Second

// Do выполняет fn в одной SQL-транзакции. Чтения изменяемых строк внутри
// Do блокируют их (SELECT ... FOR UPDATE), поэтому параллельные оформления
// одного питомца сериализуются на уровне базы.
func (s *Store) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, fn, false)
}

// View выполняет fn в read-only транзакции без блокировок.
func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, fn, true)
}

func (s *Store) run(ctx context.Context, fn func(tx domain.Tx) error, readOnly bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	t := &storeTx{ctx: ctx, tx: tx, locking: !readOnly}
	if err := fn(t); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// storeTx реализует domain.Tx поверх *sql.Tx.
type storeTx struct {
	ctx     context.Context
	tx      *sql.Tx
	locking bool
}

func (t *storeTx) Users() domain.UserRepository                 { return &userRepository{t: t} }
func (t *storeTx) Pets() domain.PetRepository                   { return &petRepository{t: t} }
func (t *storeTx) Carts() domain.CartRepository                 { return &cartRepository{t: t} }
func (t *storeTx) Orders() domain.OrderRepository               { return &orderRepository{t: t} }
func (t *storeTx) Balances() domain.BalanceRepository           { return &balanceRepository{t: t} }
func (t *storeTx) History() domain.TransactionHistoryRepository { return &historyRepository{t: t} }
func (t *storeTx) Adoptions() domain.AdoptionRepository         { return &adoptionRepository{t: t} }
func (t *storeTx) Outbox() domain.OutboxEnqueuer                { return &outboxEnqueuer{t: t} }

// forUpdate дополняет запрос блокировкой строки в пишущих транзакциях.
func (t *storeTx) forUpdate() string {
	if t.locking {
		return " FOR UPDATE"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*storeTx)(nil)
)
