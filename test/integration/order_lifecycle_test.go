package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/service/cart"
	"github.com/vladislavdragonenkov/petmarket/internal/service/ledger"
	"github.com/vladislavdragonenkov/petmarket/internal/service/order"
	"github.com/vladislavdragonenkov/petmarket/internal/service/pet"
	"github.com/vladislavdragonenkov/petmarket/internal/service/user"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/memory"
)

// OrderLifecycleTestSuite прогоняет полный жизненный цикл заказа через все
// сервисы поверх общего in-memory хранилища.
type OrderLifecycleTestSuite struct {
	suite.Suite

	ctx    context.Context
	store  *memory.Store
	users  *user.Service
	pets   *pet.Service
	carts  *cart.Service
	orders *order.Service
	ledger *ledger.Service

	staff    domain.Principal
	customer domain.Principal
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.users = user.NewService(suite.store, logger)
	suite.pets = pet.NewService(suite.store, logger)
	suite.carts = cart.NewService(suite.store, logger)
	suite.orders = order.NewService(suite.store, logger)
	suite.ledger = ledger.NewService(suite.store, logger)

	staff, err := suite.users.Register(suite.ctx, "staff@petmarket.dev", true)
	suite.Require().NoError(err)
	suite.staff = domain.Principal{UserID: staff.ID, Staff: true}

	customer, err := suite.users.Register(suite.ctx, "customer@petmarket.dev", false)
	suite.Require().NoError(err)
	suite.customer = domain.Principal{UserID: customer.ID}
}

// addPet добавляет питомца в каталог от имени персонала.
func (suite *OrderLifecycleTestSuite) addPet(name string, price int64) domain.Pet {
	created, err := suite.pets.Create(suite.ctx, suite.staff, name, decimal.NewFromInt(price))
	suite.Require().NoError(err)
	return created
}

// checkout собирает корзину из перечисленных питомцев и оформляет заказ.
func (suite *OrderLifecycleTestSuite) checkout(pets ...domain.Pet) domain.Order {
	created, err := suite.carts.Create(suite.ctx, suite.customer, suite.customer.UserID)
	suite.Require().NoError(err)
	for _, p := range pets {
		_, err = suite.carts.AddItem(suite.ctx, suite.customer, created.ID, p.ID, 1)
		suite.Require().NoError(err)
	}

	placed, err := suite.orders.Create(suite.ctx, suite.customer, created.ID)
	suite.Require().NoError(err)
	return placed
}

func (suite *OrderLifecycleTestSuite) deposit(amount int64) {
	_, err := suite.ledger.Deposit(suite.ctx, suite.customer.UserID, decimal.NewFromInt(amount), domain.DefaultPIN)
	suite.Require().NoError(err)
}

func (suite *OrderLifecycleTestSuite) balance() decimal.Decimal {
	b, err := suite.ledger.Balance(suite.ctx, suite.customer.UserID)
	suite.Require().NoError(err)
	return b.Balance
}

func (suite *OrderLifecycleTestSuite) TestHappyPathToDelivery() {
	rex := suite.addPet("Рекс", 300)
	murka := suite.addPet("Мурка", 200)
	suite.deposit(1000)

	placed := suite.checkout(rex, murka)
	suite.Equal(domain.OrderStatusReadyToShip, placed.Status)
	suite.True(placed.TotalPrice.Equal(decimal.NewFromInt(500)))
	suite.True(suite.balance().Equal(decimal.NewFromInt(500)))

	// Питомцы закреплены за заказом.
	for _, id := range []string{rex.ID, murka.ID} {
		got, err := suite.pets.Get(suite.ctx, id)
		suite.Require().NoError(err)
		suite.False(got.AvailabilityStatus)
	}

	// Персонал продвигает заказ до доставки.
	shipped, err := suite.orders.UpdateStatus(suite.ctx, suite.staff, placed.ID, domain.OrderStatusShipped)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusShipped, shipped.Status)

	delivered, err := suite.orders.MarkDelivered(suite.ctx, suite.staff, placed.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusDelivered, delivered.Status)

	// Профиль пользователя пополнился двумя усыновлениями.
	profile, err := suite.users.GetProfile(suite.ctx, suite.customer, suite.customer.UserID)
	suite.Require().NoError(err)
	suite.Len(profile.Adoptions, 2)

	// Доставленный заказ больше не продвигается и не отменяется.
	_, err = suite.orders.UpdateStatus(suite.ctx, suite.staff, placed.ID, domain.OrderStatusShipped)
	suite.Error(err)
	_, err = suite.orders.Cancel(suite.ctx, suite.customer, placed.ID)
	suite.ErrorIs(err, domain.ErrOrderNotCancelable)
}

func (suite *OrderLifecycleTestSuite) TestCancelReturnsMoneyAndPets() {
	rex := suite.addPet("Рекс", 300)
	suite.deposit(400)

	placed := suite.checkout(rex)
	suite.True(suite.balance().Equal(decimal.NewFromInt(100)))

	canceled, err := suite.orders.Cancel(suite.ctx, suite.customer, placed.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCanceled, canceled.Status)

	suite.True(suite.balance().Equal(decimal.NewFromInt(400)))

	got, err := suite.pets.Get(suite.ctx, rex.ID)
	suite.Require().NoError(err)
	suite.True(got.AvailabilityStatus)

	// Освобождённого питомца можно оформить снова.
	second := suite.checkout(got)
	suite.Equal(domain.OrderStatusReadyToShip, second.Status)

	// История: deposit, payment, refund, payment — новые записи первыми.
	history, total, err := suite.ledger.History(suite.ctx, suite.customer.UserID)
	suite.Require().NoError(err)
	suite.Equal(4, total)
	suite.Equal(domain.TransactionTypePayment, history[0].Type)
	suite.Equal(domain.TransactionTypeRefund, history[1].Type)
}

func (suite *OrderLifecycleTestSuite) TestInsufficientBalanceKeepsEverything() {
	rex := suite.addPet("Рекс", 300)
	suite.deposit(100)

	created, err := suite.carts.Create(suite.ctx, suite.customer, suite.customer.UserID)
	suite.Require().NoError(err)
	_, err = suite.carts.AddItem(suite.ctx, suite.customer, created.ID, rex.ID, 1)
	suite.Require().NoError(err)

	_, err = suite.orders.Create(suite.ctx, suite.customer, created.ID)
	suite.ErrorIs(err, domain.ErrInsufficientBalance)

	// Ничего не изменилось: корзина на месте, питомец доступен, баланс цел.
	summary, err := suite.carts.Get(suite.ctx, suite.customer, created.ID)
	suite.Require().NoError(err)
	suite.Len(summary.Items, 1)

	got, err := suite.pets.Get(suite.ctx, rex.ID)
	suite.Require().NoError(err)
	suite.True(got.AvailabilityStatus)

	suite.True(suite.balance().Equal(decimal.NewFromInt(100)))
}

func (suite *OrderLifecycleTestSuite) TestStaffDeleteReleasesWithoutRefund() {
	rex := suite.addPet("Рекс", 300)
	suite.deposit(500)

	placed := suite.checkout(rex)
	suite.True(suite.balance().Equal(decimal.NewFromInt(200)))

	// Удаление заказа — административная операция.
	err := suite.orders.Delete(suite.ctx, suite.customer, placed.ID)
	suite.Error(err)

	suite.Require().NoError(suite.orders.Delete(suite.ctx, suite.staff, placed.ID))

	_, err = suite.orders.Get(suite.ctx, suite.staff, placed.ID)
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	// Питомец освобождён, но возврата средств нет.
	got, err := suite.pets.Get(suite.ctx, rex.ID)
	suite.Require().NoError(err)
	suite.True(got.AvailabilityStatus)
	suite.True(suite.balance().Equal(decimal.NewFromInt(200)))
}

func (suite *OrderLifecycleTestSuite) TestOutboxCollectsLifecycleEvents() {
	rex := suite.addPet("Рекс", 300)
	suite.deposit(1000)

	placed := suite.checkout(rex)
	_, err := suite.orders.Cancel(suite.ctx, suite.customer, placed.ID)
	suite.Require().NoError(err)

	pending, err := suite.store.Outbox().PullPending(100)
	suite.Require().NoError(err)

	types := make([]string, 0, len(pending))
	for _, msg := range pending {
		types = append(types, msg.EventType)
	}
	suite.Contains(types, "balance.deposited")
	suite.Contains(types, "order.created")
	suite.Contains(types, "order.canceled")
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
