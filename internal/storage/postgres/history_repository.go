package postgres

import (
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type historyRepository struct {
	t *storeTx
}

func (r *historyRepository) Append(entry domain.TransactionHistory) error {
	// order_id хранится как NULL для пополнений: deposit не привязан к заказу.
	var orderID sql.NullString
	if entry.OrderID != "" {
		orderID = sql.NullString{String: entry.OrderID, Valid: true}
	}

	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO transaction_history (
			id, user_id, order_id, type, amount, balance_after, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		entry.ID, entry.UserID, orderID, string(entry.Type),
		entry.Amount, entry.BalanceAfter, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction history: %w", err)
	}
	return nil
}

func (r *historyRepository) ListByUser(userID string) ([]domain.TransactionHistory, error) {
	rows, err := r.t.tx.QueryContext(r.t.ctx, `
		SELECT id, user_id, order_id, type, amount, balance_after, created_at
		FROM transaction_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transaction history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.TransactionHistory, 0)
	for rows.Next() {
		var (
			entry   domain.TransactionHistory
			orderID sql.NullString
			kind    string
		)
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &orderID, &kind,
			&entry.Amount, &entry.BalanceAfter, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction history row: %w", err)
		}
		entry.OrderID = orderID.String
		entry.Type = domain.TransactionType(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction history rows: %w", err)
	}

	return entries, nil
}

func (r *historyRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT COUNT(*)
		FROM transaction_history
		WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transaction history: %w", err)
	}
	return count, nil
}

var _ domain.TransactionHistoryRepository = (*historyRepository)(nil)
