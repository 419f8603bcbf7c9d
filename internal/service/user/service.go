package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

// Service — регистрация пользователей и чтение профиля.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис пользователей.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "user")
	}
	return &Service{store: store, logger: logger}
}

// Profile — профиль пользователя вместе с балансом и историей усыновлений.
type Profile struct {
	User      domain.User
	Balance   domain.AccountBalance
	Adoptions []domain.AdoptionRecord
}

// Register создаёт пользователя и его нулевой баланс одной транзакцией.
// Новый пользователь получает PIN по умолчанию.
func (s *Service) Register(ctx context.Context, email string, staff bool) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.Validationf("a valid email is required")
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		PIN:       domain.DefaultPIN,
		Staff:     staff,
		CreatedAt: now,
	}
	err := s.store.Do(ctx, func(tx domain.Tx) error {
		if err := tx.Users().Create(user); err != nil {
			return err
		}
		return tx.Balances().Create(domain.NewAccountBalance(user.ID, now))
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")
	return user, nil
}

// GetProfile возвращает профиль пользователя: сам владелец или персонал.
func (s *Service) GetProfile(ctx context.Context, p domain.Principal, userID string) (Profile, error) {
	if !p.CanManage(userID) {
		return Profile{}, domain.Forbiddenf("profile belongs to another user")
	}

	var profile Profile
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		profile.User, err = tx.Users().Get(userID)
		if err != nil {
			return err
		}
		profile.Balance, err = tx.Balances().GetByUser(userID)
		if err != nil {
			return err
		}
		profile.Adoptions, err = tx.Adoptions().ListByUser(userID)
		return err
	})
	if err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// ChangePIN меняет PIN владельца после проверки текущего.
func (s *Service) ChangePIN(ctx context.Context, p domain.Principal, userID, currentPIN, newPIN string) error {
	if p.UserID != userID {
		return domain.Forbiddenf("pin can only be changed by its owner")
	}
	if len(newPIN) != 4 {
		return domain.Validationf("pin must be exactly 4 characters")
	}

	return s.store.Do(ctx, func(tx domain.Tx) error {
		user, err := tx.Users().Get(userID)
		if err != nil {
			return err
		}
		if user.PIN != currentPIN {
			return domain.ErrInvalidPIN
		}
		user.PIN = newPIN
		return tx.Users().Save(user)
	})
}
