package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType описывает тип движения по балансу.
type TransactionType string

const (
	// TransactionTypeDeposit — пополнение баланса пользователем.
	TransactionTypeDeposit TransactionType = "deposit"
	// TransactionTypePayment — списание при создании заказа.
	TransactionTypePayment TransactionType = "payment"
	// TransactionTypeRefund — возврат средств при отмене заказа.
	TransactionTypeRefund TransactionType = "refund"
)

// AccountBalance — запись хранимого баланса пользователя (1:1).
// AddMoney — накопленная сумма пополнений за всё время; возвраты её не меняют.
type AccountBalance struct {
	ID     string
	UserID string
	// Balance — доступные средства, единственный платёжный инструмент.
	Balance decimal.Decimal
	// AddMoney растёт только при пополнениях (монотонно).
	AddMoney  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccountBalance создаёт нулевой баланс для нового пользователя.
func NewAccountBalance(userID string, now time.Time) AccountBalance {
	return AccountBalance{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   decimal.Zero,
		AddMoney:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyDeposit увеличивает баланс и накопленную сумму пополнений.
func (b *AccountBalance) ApplyDeposit(amount decimal.Decimal, now time.Time) {
	b.Balance = b.Balance.Add(amount)
	b.AddMoney = b.AddMoney.Add(amount)
	b.UpdatedAt = now
}

// ApplyDebit списывает средства; при нехватке возвращает ErrInsufficientBalance
// и не меняет состояние.
func (b *AccountBalance) ApplyDebit(amount decimal.Decimal, now time.Time) error {
	if b.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	b.Balance = b.Balance.Sub(amount)
	b.UpdatedAt = now
	return nil
}

// ApplyCredit возвращает средства на баланс. AddMoney не меняется:
// возврат — не пополнение.
func (b *AccountBalance) ApplyCredit(amount decimal.Decimal, now time.Time) {
	b.Balance = b.Balance.Add(amount)
	b.UpdatedAt = now
}

// TransactionHistory — неизменяемая запись о движении по балансу.
// Записи только добавляются; обновление и удаление не поддерживаются.
type TransactionHistory struct {
	ID     string
	UserID string
	// OrderID заполнен для payment/refund, пуст для deposit.
	OrderID      string
	Type         TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}
