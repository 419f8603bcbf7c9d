package domain

import "time"

// CartItem — одна позиция корзины. Пара (cart, pet) уникальна:
// повторное добавление питомца увеличивает количество.
type CartItem struct {
	ID       string
	CartID   string
	PetID    string
	Quantity int32
}

// Cart — временная корзина пользователя перед оформлением заказа.
// У пользователя может быть не больше одной корзины.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Items     []CartItem
}

// FindItem возвращает позицию с указанным питомцем или nil.
func (c *Cart) FindItem(petID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].PetID == petID {
			return &c.Items[i]
		}
	}
	return nil
}

// Empty сообщает, что в корзине не осталось позиций.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}
