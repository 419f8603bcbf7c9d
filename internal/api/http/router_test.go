package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/petmarket/internal/service/cart"
	"github.com/vladislavdragonenkov/petmarket/internal/service/ledger"
	"github.com/vladislavdragonenkov/petmarket/internal/service/order"
	"github.com/vladislavdragonenkov/petmarket/internal/service/pet"
	"github.com/vladislavdragonenkov/petmarket/internal/service/user"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/memory"
)

type apiFixture struct {
	t      *testing.T
	server http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	services := Services{
		Users:  user.NewService(store, nil),
		Pets:   pet.NewService(store, nil),
		Carts:  cart.NewService(store, nil),
		Orders: order.NewService(store, nil),
		Ledger: ledger.NewService(store, nil),
	}
	return &apiFixture{t: t, server: NewRouter(NewHandler(services, nil))}
}

type identity struct {
	userID string
	staff  bool
}

func (f *apiFixture) do(method, path string, id identity, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if id.userID != "" {
		req.Header.Set(HeaderUserID, id.userID)
	}
	if id.staff {
		req.Header.Set(HeaderStaff, "true")
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) decode(rec *httptest.ResponseRecorder, dst any) {
	f.t.Helper()
	require.NoError(f.t, json.NewDecoder(rec.Body).Decode(dst))
}

func (f *apiFixture) registerUser(email string, staff bool) string {
	f.t.Helper()

	rec := f.do(http.MethodPost, "/v1/users", identity{}, map[string]any{
		"email": email,
		"staff": staff,
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created userResponse
	f.decode(rec, &created)
	return created.ID
}

func (f *apiFixture) createPet(staffID, name, price string) string {
	f.t.Helper()

	rec := f.do(http.MethodPost, "/v1/pets", identity{userID: staffID, staff: true}, map[string]any{
		"name":  name,
		"price": price,
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created petResponse
	f.decode(rec, &created)
	return created.ID
}

func (f *apiFixture) deposit(userID, amount string) {
	f.t.Helper()

	rec := f.do(http.MethodPost, "/v1/balance/deposit", identity{userID: userID}, map[string]any{
		"amount": amount,
		"pin":    "1234",
	})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAPI_RegisterAndProfile(t *testing.T) {
	f := newAPIFixture(t)

	userID := f.registerUser("alice@example.com", false)

	rec := f.do(http.MethodGet, "/v1/users/"+userID, identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile profileResponse
	f.decode(rec, &profile)
	assert.Equal(t, "alice@example.com", profile.User.Email)
	assert.True(t, profile.Balance.Balance.IsZero())
	assert.Empty(t, profile.Adoptions)
}

func TestAPI_RegisterRejectsInvalidEmail(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/v1/users", identity{}, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	f.decode(rec, &body)
	assert.Equal(t, "validation", body.Error.Kind)
}

func TestAPI_MissingIdentityHeader(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/v1/pets", identity{}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorBody
	f.decode(rec, &body)
	assert.Contains(t, body.Error.Message, HeaderUserID)
}

func TestAPI_ForeignProfileForbidden(t *testing.T) {
	f := newAPIFixture(t)

	alice := f.registerUser("alice@example.com", false)
	bob := f.registerUser("bob@example.com", false)

	rec := f.do(http.MethodGet, "/v1/users/"+alice, identity{userID: bob}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Персонал видит любой профиль.
	staff := f.registerUser("staff@example.com", true)
	rec = f.do(http.MethodGet, "/v1/users/"+alice, identity{userID: staff, staff: true}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_PetCreationRequiresStaff(t *testing.T) {
	f := newAPIFixture(t)

	userID := f.registerUser("alice@example.com", false)
	rec := f.do(http.MethodPost, "/v1/pets", identity{userID: userID}, map[string]any{
		"name":  "Барсик",
		"price": "100",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_DuplicateEmailConflict(t *testing.T) {
	f := newAPIFixture(t)

	f.registerUser("alice@example.com", false)
	rec := f.do(http.MethodPost, "/v1/users", identity{}, map[string]any{"email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_DepositWrongPIN(t *testing.T) {
	f := newAPIFixture(t)

	userID := f.registerUser("alice@example.com", false)
	rec := f.do(http.MethodPost, "/v1/balance/deposit", identity{userID: userID}, map[string]any{
		"amount": "500",
		"pin":    "0000",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ForeignBalanceForbidden(t *testing.T) {
	f := newAPIFixture(t)

	alice := f.registerUser("alice@example.com", false)
	bob := f.registerUser("bob@example.com", false)

	rec := f.do(http.MethodGet, "/v1/balance?user_id="+alice, identity{userID: bob}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	staff := f.registerUser("staff@example.com", true)
	rec = f.do(http.MethodGet, "/v1/balance?user_id="+alice, identity{userID: staff, staff: true}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_CheckoutFlow(t *testing.T) {
	f := newAPIFixture(t)

	staff := f.registerUser("staff@example.com", true)
	userID := f.registerUser("alice@example.com", false)
	petID := f.createPet(staff, "Барсик", "150")
	f.deposit(userID, "1000")

	// Корзина.
	rec := f.do(http.MethodPost, "/v1/carts", identity{userID: userID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var createdCart cartResponse
	f.decode(rec, &createdCart)

	rec = f.do(http.MethodPost, "/v1/carts/"+createdCart.ID+"/items", identity{userID: userID}, map[string]any{
		"pet_id":   petID,
		"quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/v1/carts/"+createdCart.ID, identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary cartResponse
	f.decode(rec, &summary)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "300", summary.Total.String())

	// Своя корзина доступна и без идентификатора.
	rec = f.do(http.MethodGet, "/v1/carts/mine", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine cartResponse
	f.decode(rec, &mine)
	assert.Equal(t, createdCart.ID, mine.ID)

	rec = f.do(http.MethodPatch, "/v1/cart-items/"+summary.Items[0].ID, identity{userID: userID}, map[string]any{
		"quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updatedItem cartItemResponse
	f.decode(rec, &updatedItem)
	assert.Equal(t, int32(1), updatedItem.Quantity)

	rec = f.do(http.MethodPatch, "/v1/cart-items/"+summary.Items[0].ID, identity{userID: userID}, map[string]any{
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Оформление заказа.
	rec = f.do(http.MethodPost, "/v1/orders", identity{userID: userID}, map[string]any{
		"cart_id": createdCart.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var createdOrder orderResponse
	f.decode(rec, &createdOrder)
	assert.Equal(t, "ready_to_ship", createdOrder.Status)
	assert.Equal(t, "300", createdOrder.TotalPrice.String())

	// Корзина удалена после оформления.
	rec = f.do(http.MethodGet, "/v1/carts/"+createdCart.ID, identity{userID: userID}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Баланс уменьшился.
	rec = f.do(http.MethodGet, "/v1/balance", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance balanceResponse
	f.decode(rec, &balance)
	assert.Equal(t, "700", balance.Balance.String())

	// Статус заказа.
	rec = f.do(http.MethodGet, "/v1/orders/"+createdOrder.ID+"/status", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status orderStatusResponse
	f.decode(rec, &status)
	assert.Equal(t, "ready_to_ship", status.Status)

	// Питомец занят: повторное добавление в новую корзину отклоняется.
	rec = f.do(http.MethodGet, "/v1/pets/"+petID, identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var busyPet petResponse
	f.decode(rec, &busyPet)
	assert.False(t, busyPet.Available)

	// История транзакций: payment и deposit, новые первыми.
	rec = f.do(http.MethodGet, "/v1/transactions", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history transactionListResponse
	f.decode(rec, &history)
	require.Equal(t, 2, history.Total)
	assert.Equal(t, "payment", history.Transactions[0].Type)
	assert.Equal(t, "deposit", history.Transactions[1].Type)
}

func TestAPI_OrderLifecycleTransitions(t *testing.T) {
	f := newAPIFixture(t)

	staff := f.registerUser("staff@example.com", true)
	userID := f.registerUser("alice@example.com", false)
	petID := f.createPet(staff, "Рекс", "200")
	f.deposit(userID, "500")

	rec := f.do(http.MethodPost, "/v1/carts", identity{userID: userID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var createdCart cartResponse
	f.decode(rec, &createdCart)

	rec = f.do(http.MethodPost, "/v1/carts/"+createdCart.ID+"/items", identity{userID: userID}, map[string]any{
		"pet_id":   petID,
		"quantity": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/v1/orders", identity{userID: userID}, map[string]any{
		"cart_id": createdCart.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createdOrder orderResponse
	f.decode(rec, &createdOrder)

	// Обычный пользователь не продвигает статусы.
	rec = f.do(http.MethodPatch, "/v1/orders/"+createdOrder.ID+"/status", identity{userID: userID}, map[string]any{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Персонал: пропуск шага запрещён.
	rec = f.do(http.MethodPatch, "/v1/orders/"+createdOrder.ID+"/status", identity{userID: staff, staff: true}, map[string]any{
		"status": "delivered",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/v1/orders/"+createdOrder.ID+"/status", identity{userID: staff, staff: true}, map[string]any{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Отмена после отгрузки запрещена.
	rec = f.do(http.MethodPost, "/v1/orders/"+createdOrder.ID+"/cancel", identity{userID: userID}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/v1/orders/"+createdOrder.ID+"/deliver", identity{userID: staff, staff: true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var delivered orderResponse
	f.decode(rec, &delivered)
	assert.Equal(t, "delivered", delivered.Status)

	// Доставка пополняет историю усыновлений в профиле.
	rec = f.do(http.MethodGet, "/v1/users/"+userID, identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile profileResponse
	f.decode(rec, &profile)
	require.Len(t, profile.Adoptions, 1)
	assert.Equal(t, petID, profile.Adoptions[0].PetID)
}

func TestAPI_CancelRefundsAndReleases(t *testing.T) {
	f := newAPIFixture(t)

	staff := f.registerUser("staff@example.com", true)
	userID := f.registerUser("alice@example.com", false)
	petID := f.createPet(staff, "Мурка", "300")
	f.deposit(userID, "400")

	rec := f.do(http.MethodPost, "/v1/carts", identity{userID: userID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var createdCart cartResponse
	f.decode(rec, &createdCart)

	rec = f.do(http.MethodPost, "/v1/carts/"+createdCart.ID+"/items", identity{userID: userID}, map[string]any{
		"pet_id":   petID,
		"quantity": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/v1/orders", identity{userID: userID}, map[string]any{
		"cart_id": createdCart.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createdOrder orderResponse
	f.decode(rec, &createdOrder)

	rec = f.do(http.MethodPost, "/v1/orders/"+createdOrder.ID+"/cancel", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var canceled orderResponse
	f.decode(rec, &canceled)
	assert.Equal(t, "canceled", canceled.Status)

	rec = f.do(http.MethodGet, "/v1/balance", identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance balanceResponse
	f.decode(rec, &balance)
	assert.Equal(t, "400", balance.Balance.String())

	rec = f.do(http.MethodGet, "/v1/pets/"+petID, identity{userID: userID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var released petResponse
	f.decode(rec, &released)
	assert.True(t, released.Available)

	// Повторная отмена — ошибка валидации.
	rec = f.do(http.MethodPost, "/v1/orders/"+createdOrder.ID+"/cancel", identity{userID: userID}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_NotFoundMapping(t *testing.T) {
	f := newAPIFixture(t)

	userID := f.registerUser("alice@example.com", false)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/pets/missing"},
		{http.MethodGet, "/v1/orders/missing"},
		{http.MethodGet, "/v1/carts/missing"},
	}
	for _, tc := range cases {
		rec := f.do(tc.method, tc.path, identity{userID: userID}, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, fmt.Sprintf("%s %s", tc.method, tc.path))
	}
}

func TestAPI_InvalidBody(t *testing.T) {
	f := newAPIFixture(t)

	userID := f.registerUser("alice@example.com", false)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString("{not json"))
	req.Header.Set(HeaderUserID, userID)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
