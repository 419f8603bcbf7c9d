package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

type createOrderRequest struct {
	CartID string `json:"cart_id"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	created, err := h.services.Orders.Create(r.Context(), p, req.CartID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	userID := r.URL.Query().Get("user_id")
	if userID == "" && !p.Staff {
		userID = p.UserID
	}

	orders, err := h.services.Orders.List(r.Context(), p, userID, queryLimit(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	found, err := h.services.Orders.Get(r.Context(), p, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(found))
}

type orderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	status, err := h.services.Orders.Status(r.Context(), p, orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orderStatusResponse{OrderID: orderID, Status: string(status)})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	canceled, err := h.services.Orders.Cancel(r.Context(), p, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(canceled))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	updated, err := h.services.Orders.UpdateStatus(r.Context(), p, chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) deliverOrder(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	delivered, err := h.services.Orders.MarkDelivered(r.Context(), p, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(delivered))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := h.services.Orders.Delete(r.Context(), p, chi.URLParam(r, "orderID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) deleteOrderItem(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	err := h.services.Orders.DeleteItem(r.Context(), p, chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
