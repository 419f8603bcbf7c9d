package domain

import "time"

// AdoptionRecord — запись в истории усыновлений пользователя. Появляется,
// когда заказ помечен доставленным; отдельный аудит от TransactionHistory.
type AdoptionRecord struct {
	ID      string
	UserID  string
	PetID   string
	OrderID string
	// AdoptionDate — момент доставки заказа (updated_at заказа).
	AdoptionDate time.Time
}
