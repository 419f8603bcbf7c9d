package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/service/cart"
	"github.com/vladislavdragonenkov/petmarket/internal/service/user"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Staff     bool      `json:"staff"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Staff: u.Staff, CreatedAt: u.CreatedAt}
}

type adoptionResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	OrderID      string    `json:"order_id,omitempty"`
	AdoptionDate time.Time `json:"adoption_date"`
}

type profileResponse struct {
	User      userResponse       `json:"user"`
	Balance   balanceResponse    `json:"balance"`
	Adoptions []adoptionResponse `json:"adoptions"`
}

func toProfileResponse(p user.Profile) profileResponse {
	adoptions := make([]adoptionResponse, 0, len(p.Adoptions))
	for _, rec := range p.Adoptions {
		adoptions = append(adoptions, adoptionResponse{
			ID:           rec.ID,
			PetID:        rec.PetID,
			OrderID:      rec.OrderID,
			AdoptionDate: rec.AdoptionDate,
		})
	}
	return profileResponse{
		User:      toUserResponse(p.User),
		Balance:   toBalanceResponse(p.Balance),
		Adoptions: adoptions,
	}
}

type petResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toPetResponse(p domain.Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Available: p.AvailabilityStatus,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type cartItemResponse struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cart_id"`
	PetID     string          `json:"pet_id"`
	PetName   string          `json:"pet_name,omitempty"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []cartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
}

func toCartResponse(s cart.Summary) cartResponse {
	items := make([]cartItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, cartItemResponse{
			ID:        item.ID,
			CartID:    s.ID,
			PetID:     item.PetID,
			PetName:   item.PetName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return cartResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		Items:     items,
		Total:     s.Total,
	}
}

type orderItemResponse struct {
	ID         string          `json:"id"`
	PetID      string          `json:"pet_id"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Status     string              `json:"status"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	Items      []orderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:         item.ID,
			PetID:      item.PetID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return orderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		Items:      items,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type balanceResponse struct {
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	AddMoney  decimal.Decimal `json:"add_money"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toBalanceResponse(b domain.AccountBalance) balanceResponse {
	return balanceResponse{
		UserID:    b.UserID,
		Balance:   b.Balance,
		AddMoney:  b.AddMoney,
		UpdatedAt: b.UpdatedAt,
	}
}

type transactionResponse struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id,omitempty"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

type transactionListResponse struct {
	Total        int                   `json:"total"`
	Transactions []transactionResponse `json:"transactions"`
}

func toTransactionListResponse(entries []domain.TransactionHistory, total int) transactionListResponse {
	out := transactionListResponse{
		Total:        total,
		Transactions: make([]transactionResponse, 0, len(entries)),
	}
	for _, e := range entries {
		out.Transactions = append(out.Transactions, transactionResponse{
			ID:           e.ID,
			OrderID:      e.OrderID,
			Type:         string(e.Type),
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
