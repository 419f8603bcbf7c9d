package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type userRepository struct {
	t *storeTx
}

func (r *userRepository) Create(user domain.User) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO users (id, email, pin, staff, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.ID, user.Email, user.PIN, user.Staff, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(id string) (domain.User, error) {
	return r.scanOne(`
		SELECT id, email, pin, staff, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	return r.scanOne(`
		SELECT id, email, pin, staff, created_at
		FROM users
		WHERE email = $1
	`, email)
}

func (r *userRepository) Save(user domain.User) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		UPDATE users
		SET email = $2, pin = $3, staff = $4
		WHERE id = $1
	`, user.ID, user.Email, user.PIN, user.Staff)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) scanOne(query, arg string) (domain.User, error) {
	var user domain.User
	err := r.t.tx.QueryRowContext(r.t.ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PIN, &user.Staff, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
