package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/petmarket/internal/metrics"
)

// DefaultMinDeposit — минимальная сумма пополнения (политика продукта).
var DefaultMinDeposit = decimal.NewFromInt(100)

// Service — операции баланса: пополнение и чтение истории.
// Списание и возврат выполняются внутри чужих транзакций (см. Debit/Credit).
type Service struct {
	store      domain.Store
	logger     *log.Entry
	minDeposit decimal.Decimal
	metrics    *metrics.LedgerMetrics
}

// Option настраивает Service.
type Option func(*Service)

// WithMinDeposit переопределяет минимальную сумму пополнения.
func WithMinDeposit(min decimal.Decimal) Option {
	return func(s *Service) {
		if min.IsPositive() {
			s.minDeposit = min
		}
	}
}

// WithMetrics подключает метрики операций баланса.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService создаёт сервис баланса.
func NewService(store domain.Store, logger *log.Entry, options ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "ledger")
	}
	s := &Service{
		store:      store,
		logger:     logger,
		minDeposit: DefaultMinDeposit,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Deposit пополняет баланс пользователя после проверки PIN.
// Сумма, PIN, запись баланса, история и outbox-событие — одна транзакция.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal, pin string) (domain.AccountBalance, error) {
	if amount.LessThan(s.minDeposit) {
		return domain.AccountBalance{}, domain.Validationf(
			"deposit amount must be at least %s", s.minDeposit.StringFixed(2))
	}

	var balance domain.AccountBalance
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		user, err := tx.Users().Get(userID)
		if err != nil {
			return err
		}
		if user.PIN != pin {
			return domain.ErrInvalidPIN
		}

		now := time.Now().UTC()
		balance, err = getOrCreateBalance(tx, userID, now)
		if err != nil {
			return err
		}

		balance.ApplyDeposit(amount, now)
		if err := tx.Balances().Save(balance); err != nil {
			return err
		}

		entry := domain.TransactionHistory{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         domain.TransactionTypeDeposit,
			Amount:       amount,
			BalanceAfter: balance.Balance,
			CreatedAt:    now,
		}
		if err := tx.History().Append(entry); err != nil {
			return err
		}

		return enqueueLedgerEvent(tx, kafka.EventTypeBalanceDeposited, userID, amount, balance.Balance)
	})
	if err != nil {
		return domain.AccountBalance{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordDeposit(amount)
	}
	s.logger.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount.StringFixed(2),
	}).Info("balance deposited")

	return balance, nil
}

// Balance возвращает текущий баланс пользователя.
func (s *Service) Balance(ctx context.Context, userID string) (domain.AccountBalance, error) {
	var balance domain.AccountBalance
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		balance, err = tx.Balances().GetByUser(userID)
		return err
	})
	return balance, err
}

// History возвращает журнал операций пользователя, новые первыми.
func (s *Service) History(ctx context.Context, userID string) ([]domain.TransactionHistory, int, error) {
	var (
		entries []domain.TransactionHistory
		count   int
	)
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		entries, err = tx.History().ListByUser(userID)
		if err != nil {
			return err
		}
		count, err = tx.History().CountByUser(userID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

// Debit списывает средства внутри транзакции вызывающей операции и пишет
// `payment`-запись в историю. Возвращает ErrInsufficientBalance при нехватке.
func Debit(tx domain.Tx, userID string, amount decimal.Decimal, orderID string, now time.Time) (domain.AccountBalance, error) {
	balance, err := tx.Balances().GetByUser(userID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			return domain.AccountBalance{}, domain.Validationf("user account balance not found")
		}
		return domain.AccountBalance{}, err
	}

	if err := balance.ApplyDebit(amount, now); err != nil {
		return domain.AccountBalance{}, err
	}
	if err := tx.Balances().Save(balance); err != nil {
		return domain.AccountBalance{}, err
	}

	entry := domain.TransactionHistory{
		ID:           uuid.NewString(),
		UserID:       userID,
		OrderID:      orderID,
		Type:         domain.TransactionTypePayment,
		Amount:       amount,
		BalanceAfter: balance.Balance,
		CreatedAt:    now,
	}
	if err := tx.History().Append(entry); err != nil {
		return domain.AccountBalance{}, err
	}
	return balance, nil
}

// Credit возвращает средства внутри транзакции вызывающей операции и пишет
// `refund`-запись. Запись баланса создаётся лениво, если её почему-то нет.
// AddMoney не меняется: возврат — не пополнение.
func Credit(tx domain.Tx, userID string, amount decimal.Decimal, orderID string, now time.Time) (domain.AccountBalance, error) {
	balance, err := getOrCreateBalance(tx, userID, now)
	if err != nil {
		return domain.AccountBalance{}, err
	}

	balance.ApplyCredit(amount, now)
	if err := tx.Balances().Save(balance); err != nil {
		return domain.AccountBalance{}, err
	}

	entry := domain.TransactionHistory{
		ID:           uuid.NewString(),
		UserID:       userID,
		OrderID:      orderID,
		Type:         domain.TransactionTypeRefund,
		Amount:       amount,
		BalanceAfter: balance.Balance,
		CreatedAt:    now,
	}
	if err := tx.History().Append(entry); err != nil {
		return domain.AccountBalance{}, err
	}
	return balance, nil
}

func getOrCreateBalance(tx domain.Tx, userID string, now time.Time) (domain.AccountBalance, error) {
	balance, err := tx.Balances().GetByUser(userID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		return domain.AccountBalance{}, err
	}

	balance = domain.NewAccountBalance(userID, now)
	if err := tx.Balances().Create(balance); err != nil {
		return domain.AccountBalance{}, err
	}
	return balance, nil
}

func enqueueLedgerEvent(tx domain.Tx, eventType kafka.EventType, userID string, amount, balanceAfter decimal.Decimal) error {
	payload, err := json.Marshal(map[string]string{
		"user_id":       userID,
		"amount":        amount.StringFixed(2),
		"balance_after": balanceAfter.StringFixed(2),
	})
	if err != nil {
		return err
	}
	_, err = tx.Outbox().Enqueue(domain.OutboxMessage{
		AggregateType: "balance",
		AggregateID:   userID,
		EventType:     string(eventType),
		Payload:       payload,
	})
	return err
}
