package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type cartRepository struct {
	t *storeTx
}

func (r *cartRepository) Create(cart domain.Cart) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1,$2,$3)
	`, cart.ID, cart.UserID, cart.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCartAlreadyExists
		}
		return fmt.Errorf("insert cart: %w", err)
	}

	for _, item := range cart.Items {
		if err := r.SaveItem(item); err != nil {
			return err
		}
	}

	return nil
}

func (r *cartRepository) Get(id string) (domain.Cart, error) {
	return r.getOne(`
		SELECT id, user_id, created_at
		FROM carts
		WHERE id = $1
	`, id)
}

func (r *cartRepository) GetByUser(userID string) (domain.Cart, error) {
	return r.getOne(`
		SELECT id, user_id, created_at
		FROM carts
		WHERE user_id = $1
	`, userID)
}

func (r *cartRepository) GetItem(itemID string) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, cart_id, pet_id, quantity
		FROM cart_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.CartID, &item.PetID, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartItem{}, domain.ErrCartItemNotFound
		}
		return domain.CartItem{}, fmt.Errorf("select cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) SaveItem(item domain.CartItem) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO cart_items (id, cart_id, pet_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, item.ID, item.CartID, item.PetID, item.Quantity)
	if err != nil {
		return fmt.Errorf("save cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID string) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepository) Delete(id string) error {
	// cart_items удаляются каскадом по FK.
	res, err := r.t.tx.ExecContext(r.t.ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}

func (r *cartRepository) getOne(query, arg string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.t.tx.QueryRowContext(r.t.ctx, query+r.t.forUpdate(), arg).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	items, err := r.loadItems(cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items = items

	return cart, nil
}

func (r *cartRepository) loadItems(cartID string) ([]domain.CartItem, error) {
	rows, err := r.t.tx.QueryContext(r.t.ctx, `
		SELECT id, cart_id, pet_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.PetID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
