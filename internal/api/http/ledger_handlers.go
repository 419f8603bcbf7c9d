package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PIN    string          `json:"pin"`
}

// deposit пополняет баланс вызывающего. Чужой баланс пополнить нельзя:
// PIN подтверждает именно владельца.
func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	balance, err := h.services.Ledger.Deposit(r.Context(), p.UserID, req.Amount, req.PIN)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceResponse(balance))
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	userID, err := resolveLedgerUser(p, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	balance, err := h.services.Ledger.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceResponse(balance))
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	userID, err := resolveLedgerUser(p, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, total, err := h.services.Ledger.History(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionListResponse(entries, total))
}

// resolveLedgerUser выбирает, чей баланс читать: свой по умолчанию,
// чужой — только для персонала.
func resolveLedgerUser(p domain.Principal, r *http.Request) (string, error) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return p.UserID, nil
	}
	if !p.CanManage(userID) {
		return "", domain.Forbiddenf("cannot view another user's balance")
	}
	return userID, nil
}
