package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Ошибка отсутствующего имени питомца.
	ErrPetNameRequired = errors.New("pet name is required")
	// Ошибка отрицательной цены питомца.
	ErrPetPriceNegative = errors.New("pet price must be non-negative")
)

// Pet описывает питомца в каталоге. Доступность меняется только движком
// жизненного цикла заказа: корзина питомцев не трогает.
type Pet struct {
	ID   string
	Name string
	// Price — цена усыновления, два знака после запятой.
	Price decimal.Decimal
	// AvailabilityStatus true, пока питомец не закреплён за активным заказом.
	AvailabilityStatus bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MarkUnavailable переводит питомца в состояние «занят».
// Возвращает false, если питомец уже занят: повторный вызов не пишет
// лишних изменений и не плодит дублирующий аудит.
func (p *Pet) MarkUnavailable() bool {
	if !p.AvailabilityStatus {
		return false
	}
	p.AvailabilityStatus = false
	return true
}

// MarkAvailable возвращает питомца в каталог. No-op, если он уже доступен.
func (p *Pet) MarkAvailable() bool {
	if p.AvailabilityStatus {
		return false
	}
	p.AvailabilityStatus = true
	return true
}

// Validate проверяет базовые инварианты питомца.
func (p *Pet) Validate() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrPetNameRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPetPriceNegative)
	}

	return errs
}
