package postgres

import (
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type adoptionRepository struct {
	t *storeTx
}

func (r *adoptionRepository) Append(record domain.AdoptionRecord) error {
	// order_id без FK: запись об усыновлении переживает удаление заказа.
	var orderID sql.NullString
	if record.OrderID != "" {
		orderID = sql.NullString{String: record.OrderID, Valid: true}
	}

	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO adoption_records (id, user_id, pet_id, order_id, adoption_date)
		VALUES ($1,$2,$3,$4,$5)
	`, record.ID, record.UserID, record.PetID, orderID, record.AdoptionDate)
	if err != nil {
		return fmt.Errorf("insert adoption record: %w", err)
	}
	return nil
}

func (r *adoptionRepository) ListByUser(userID string) ([]domain.AdoptionRecord, error) {
	rows, err := r.t.tx.QueryContext(r.t.ctx, `
		SELECT id, user_id, pet_id, order_id, adoption_date
		FROM adoption_records
		WHERE user_id = $1
		ORDER BY adoption_date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list adoption records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AdoptionRecord, 0)
	for rows.Next() {
		var (
			record  domain.AdoptionRecord
			orderID sql.NullString
		)
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.PetID, &orderID, &record.AdoptionDate,
		); err != nil {
			return nil, fmt.Errorf("scan adoption record: %w", err)
		}
		record.OrderID = orderID.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adoption records: %w", err)
	}

	return records, nil
}

var _ domain.AdoptionRepository = (*adoptionRepository)(nil)
