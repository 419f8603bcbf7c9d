package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type petRepository struct {
	t *storeTx
}

func (r *petRepository) Create(pet domain.Pet) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO pets (id, name, price, availability_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, pet.ID, pet.Name, pet.Price, pet.AvailabilityStatus, pet.CreatedAt, pet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

// Get блокирует строку питомца в пишущей транзакции: два параллельных
// оформления одного питомца сериализуются здесь.
func (r *petRepository) Get(id string) (domain.Pet, error) {
	var pet domain.Pet
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, name, price, availability_status, created_at, updated_at
		FROM pets
		WHERE id = $1
	`+r.t.forUpdate(), id).Scan(
		&pet.ID, &pet.Name, &pet.Price, &pet.AvailabilityStatus,
		&pet.CreatedAt, &pet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pet{}, domain.ErrPetNotFound
		}
		return domain.Pet{}, fmt.Errorf("select pet: %w", err)
	}
	return pet, nil
}

func (r *petRepository) List(limit int) ([]domain.Pet, error) {
	query := `
		SELECT id, name, price, availability_status, created_at, updated_at
		FROM pets
		ORDER BY created_at ASC, id ASC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.t.tx.QueryContext(r.t.ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.t.tx.QueryContext(r.t.ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	pets := make([]domain.Pet, 0)
	for rows.Next() {
		var pet domain.Pet
		if err := rows.Scan(
			&pet.ID, &pet.Name, &pet.Price, &pet.AvailabilityStatus,
			&pet.CreatedAt, &pet.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pet row: %w", err)
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pet rows: %w", err)
	}

	return pets, nil
}

func (r *petRepository) Save(pet domain.Pet) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		UPDATE pets
		SET name = $2, price = $3, availability_status = $4, updated_at = $5
		WHERE id = $1
	`, pet.ID, pet.Name, pet.Price, pet.AvailabilityStatus, pet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPetNotFound
	}

	return nil
}

var _ domain.PetRepository = (*petRepository)(nil)
