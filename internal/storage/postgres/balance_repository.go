package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type balanceRepository struct {
	t *storeTx
}

func (r *balanceRepository) Create(balance domain.AccountBalance) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO account_balances (id, user_id, balance, add_money, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		balance.ID, balance.UserID, balance.Balance, balance.AddMoney,
		balance.CreatedAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account balance: %w", err)
	}
	return nil
}

// GetByUser блокирует строку баланса в пишущей транзакции: списание и
// пополнение одного пользователя не перемешиваются.
func (r *balanceRepository) GetByUser(userID string) (domain.AccountBalance, error) {
	var balance domain.AccountBalance
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, user_id, balance, add_money, created_at, updated_at
		FROM account_balances
		WHERE user_id = $1
	`+r.t.forUpdate(), userID).Scan(
		&balance.ID, &balance.UserID, &balance.Balance, &balance.AddMoney,
		&balance.CreatedAt, &balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AccountBalance{}, domain.ErrBalanceNotFound
		}
		return domain.AccountBalance{}, fmt.Errorf("select account balance: %w", err)
	}
	return balance, nil
}

func (r *balanceRepository) Save(balance domain.AccountBalance) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		UPDATE account_balances
		SET balance = $2, add_money = $3, updated_at = $4
		WHERE id = $1
	`, balance.ID, balance.Balance, balance.AddMoney, balance.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

var _ domain.BalanceRepository = (*balanceRepository)(nil)
