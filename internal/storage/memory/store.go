package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Один мьютекс сериализует транзакции; откат выполняется восстановлением
// снимка состояния, поэтому неудачная операция не оставляет частичных записей.
type Store struct {
	mu     sync.Mutex
	st     *state
	outbox *outboxRepository
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		st:     newState(),
		outbox: newOutboxRepository(),
	}
}

// Do выполняет fn атомарно: при ошибке состояние откатывается к снимку,
// поставленные в outbox события отбрасываются.
func (s *Store) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	t := &tx{st: s.st}
	if err := fn(t); err != nil {
		s.st = snapshot
		return err
	}

	for _, msg := range t.staged {
		s.outbox.add(msg)
	}
	return nil
}

// View выполняет fn на текущем состоянии. Мутировать состояние внутри View
// нельзя; для простоты используется тот же мьютекс.
func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&tx{st: s.st})
}

// Outbox возвращает репозиторий для outbox-воркера.
func (s *Store) Outbox() domain.OutboxRepository {
	return s.outbox
}

// state хранит все агрегаты. Значения в map — копии, наружу тоже выдаются копии.
type state struct {
	users      map[string]domain.User
	emailIndex map[string]string
	pets       map[string]domain.Pet
	carts      map[string]domain.Cart
	cartByUser map[string]string
	itemToCart map[string]string
	orders     map[string]domain.Order
	balances   map[string]domain.AccountBalance
	history    map[string][]domain.TransactionHistory
	adoptions  map[string][]domain.AdoptionRecord
}

func newState() *state {
	return &state{
		users:      make(map[string]domain.User),
		emailIndex: make(map[string]string),
		pets:       make(map[string]domain.Pet),
		carts:      make(map[string]domain.Cart),
		cartByUser: make(map[string]string),
		itemToCart: make(map[string]string),
		orders:     make(map[string]domain.Order),
		balances:   make(map[string]domain.AccountBalance),
		history:    make(map[string][]domain.TransactionHistory),
		adoptions:  make(map[string][]domain.AdoptionRecord),
	}
}

func (st *state) clone() *state {
	cp := newState()
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, v := range st.emailIndex {
		cp.emailIndex[k] = v
	}
	for k, v := range st.pets {
		cp.pets[k] = v
	}
	for k, v := range st.carts {
		cp.carts[k] = cloneCart(v)
	}
	for k, v := range st.cartByUser {
		cp.cartByUser[k] = v
	}
	for k, v := range st.itemToCart {
		cp.itemToCart[k] = v
	}
	for k, v := range st.orders {
		cp.orders[k] = cloneOrder(v)
	}
	for k, v := range st.balances {
		cp.balances[k] = v
	}
	for k, v := range st.history {
		cp.history[k] = append([]domain.TransactionHistory(nil), v...)
	}
	for k, v := range st.adoptions {
		cp.adoptions[k] = append([]domain.AdoptionRecord(nil), v...)
	}
	return cp
}

func cloneCart(c domain.Cart) domain.Cart {
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return c
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

// tx реализует domain.Tx поверх общего состояния.
type tx struct {
	st     *state
	staged []domain.OutboxMessage
}

func (t *tx) Users() domain.UserRepository                 { return (*userRepository)(t) }
func (t *tx) Pets() domain.PetRepository                   { return (*petRepository)(t) }
func (t *tx) Carts() domain.CartRepository                 { return (*cartRepository)(t) }
func (t *tx) Orders() domain.OrderRepository               { return (*orderRepository)(t) }
func (t *tx) Balances() domain.BalanceRepository           { return (*balanceRepository)(t) }
func (t *tx) History() domain.TransactionHistoryRepository { return (*historyRepository)(t) }
func (t *tx) Adoptions() domain.AdoptionRepository         { return (*adoptionRepository)(t) }
func (t *tx) Outbox() domain.OutboxEnqueuer                { return (*outboxEnqueuer)(t) }

type userRepository tx

func (r *userRepository) Create(user domain.User) error {
	if _, exists := r.st.users[user.ID]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := r.st.emailIndex[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}
	r.st.users[user.ID] = user
	r.st.emailIndex[user.Email] = user.ID
	return nil
}

func (r *userRepository) Get(id string) (domain.User, error) {
	user, ok := r.st.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	id, ok := r.st.emailIndex[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.st.users[id], nil
}

func (r *userRepository) Save(user domain.User) error {
	current, ok := r.st.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if current.Email != user.Email {
		if _, taken := r.st.emailIndex[user.Email]; taken {
			return domain.ErrUserAlreadyExists
		}
		delete(r.st.emailIndex, current.Email)
		r.st.emailIndex[user.Email] = user.ID
	}
	r.st.users[user.ID] = user
	return nil
}

type petRepository tx

func (r *petRepository) Create(pet domain.Pet) error {
	r.st.pets[pet.ID] = pet
	return nil
}

func (r *petRepository) Get(id string) (domain.Pet, error) {
	pet, ok := r.st.pets[id]
	if !ok {
		return domain.Pet{}, domain.ErrPetNotFound
	}
	return pet, nil
}

func (r *petRepository) List(limit int) ([]domain.Pet, error) {
	result := make([]domain.Pet, 0, len(r.st.pets))
	for _, pet := range r.st.pets {
		result = append(result, pet)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *petRepository) Save(pet domain.Pet) error {
	if _, ok := r.st.pets[pet.ID]; !ok {
		return domain.ErrPetNotFound
	}
	r.st.pets[pet.ID] = pet
	return nil
}

type cartRepository tx

func (r *cartRepository) Create(cart domain.Cart) error {
	if _, exists := r.st.cartByUser[cart.UserID]; exists {
		return domain.ErrCartAlreadyExists
	}
	r.st.carts[cart.ID] = cloneCart(cart)
	r.st.cartByUser[cart.UserID] = cart.ID
	for _, item := range cart.Items {
		r.st.itemToCart[item.ID] = cart.ID
	}
	return nil
}

func (r *cartRepository) Get(id string) (domain.Cart, error) {
	cart, ok := r.st.carts[id]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (r *cartRepository) GetByUser(userID string) (domain.Cart, error) {
	id, ok := r.st.cartByUser[userID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return r.Get(id)
}

func (r *cartRepository) GetItem(itemID string) (domain.CartItem, error) {
	cartID, ok := r.st.itemToCart[itemID]
	if !ok {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	cart := r.st.carts[cartID]
	for _, item := range cart.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return domain.CartItem{}, domain.ErrCartItemNotFound
}

func (r *cartRepository) SaveItem(item domain.CartItem) error {
	cart, ok := r.st.carts[item.CartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	replaced := false
	for i := range cart.Items {
		if cart.Items[i].ID == item.ID {
			cart.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		cart.Items = append(cart.Items, item)
	}
	r.st.carts[item.CartID] = cart
	r.st.itemToCart[item.ID] = item.CartID
	return nil
}

func (r *cartRepository) DeleteItem(itemID string) error {
	cartID, ok := r.st.itemToCart[itemID]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	cart := r.st.carts[cartID]
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			break
		}
	}
	r.st.carts[cartID] = cart
	delete(r.st.itemToCart, itemID)
	return nil
}

func (r *cartRepository) Delete(id string) error {
	cart, ok := r.st.carts[id]
	if !ok {
		return domain.ErrCartNotFound
	}
	for _, item := range cart.Items {
		delete(r.st.itemToCart, item.ID)
	}
	delete(r.st.cartByUser, cart.UserID)
	delete(r.st.carts, id)
	return nil
}

type orderRepository tx

func (r *orderRepository) Create(order domain.Order) error {
	if _, exists := r.st.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.st.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	order, ok := r.st.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	result := make([]domain.Order, 0, len(r.st.orders))
	for _, order := range r.st.orders {
		if order.UserID != userID {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	sortOrders(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *orderRepository) List(limit int) ([]domain.Order, error) {
	result := make([]domain.Order, 0, len(r.st.orders))
	for _, order := range r.st.orders {
		result = append(result, cloneOrder(order))
	}
	sortOrders(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *orderRepository) Save(order domain.Order) error {
	current, ok := r.st.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	r.st.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) Delete(id string) error {
	if _, ok := r.st.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.st.orders, id)
	return nil
}

func (r *orderRepository) DeleteItem(orderID, itemID string) error {
	order, ok := r.st.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items = append(order.Items[:i], order.Items[i+1:]...)
			r.st.orders[orderID] = order
			return nil
		}
	}
	return domain.ErrOrderItemNotFound
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

type balanceRepository tx

func (r *balanceRepository) Create(balance domain.AccountBalance) error {
	r.st.balances[balance.UserID] = balance
	return nil
}

func (r *balanceRepository) GetByUser(userID string) (domain.AccountBalance, error) {
	balance, ok := r.st.balances[userID]
	if !ok {
		return domain.AccountBalance{}, domain.ErrBalanceNotFound
	}
	return balance, nil
}

func (r *balanceRepository) Save(balance domain.AccountBalance) error {
	if _, ok := r.st.balances[balance.UserID]; !ok {
		return domain.ErrBalanceNotFound
	}
	r.st.balances[balance.UserID] = balance
	return nil
}

type historyRepository tx

func (r *historyRepository) Append(entry domain.TransactionHistory) error {
	r.st.history[entry.UserID] = append(r.st.history[entry.UserID], entry)
	return nil
}

func (r *historyRepository) ListByUser(userID string) ([]domain.TransactionHistory, error) {
	entries := r.st.history[userID]
	result := make([]domain.TransactionHistory, len(entries))
	// Новые записи первыми; при равных метках позже добавленная идёт раньше.
	for i, entry := range entries {
		result[len(entries)-1-i] = entry
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *historyRepository) CountByUser(userID string) (int, error) {
	return len(r.st.history[userID]), nil
}

type adoptionRepository tx

func (r *adoptionRepository) Append(record domain.AdoptionRecord) error {
	r.st.adoptions[record.UserID] = append(r.st.adoptions[record.UserID], record)
	return nil
}

func (r *adoptionRepository) ListByUser(userID string) ([]domain.AdoptionRecord, error) {
	return append([]domain.AdoptionRecord(nil), r.st.adoptions[userID]...), nil
}

type outboxEnqueuer tx

func (e *outboxEnqueuer) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	e.staged = append(e.staged, msg)
	return msg, nil
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*tx)(nil)
)
