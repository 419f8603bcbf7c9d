package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/petmarket/internal/service/cart"
	"github.com/vladislavdragonenkov/petmarket/internal/service/ledger"
	"github.com/vladislavdragonenkov/petmarket/internal/service/order"
	"github.com/vladislavdragonenkov/petmarket/internal/service/pet"
	"github.com/vladislavdragonenkov/petmarket/internal/service/user"
)

// Services — слой бизнес-логики, который обслуживает REST API.
type Services struct {
	Users  *user.Service
	Pets   *pet.Service
	Carts  *cart.Service
	Orders *order.Service
	Ledger *ledger.Service
}

// Handler держит сервисы и логгер HTTP-слоя.
type Handler struct {
	services Services
	logger   *log.Entry
}

// NewHandler создаёт HTTP-обработчик поверх сервисов.
func NewHandler(services Services, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{services: services, logger: logger}
}

// Router собирает маршруты API.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(withPrincipal)

	r.Route("/v1", func(r chi.Router) {
		// Регистрация открыта: identity появляется после неё.
		r.Post("/users", h.registerUser)

		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)

			r.Get("/users/{userID}", h.getProfile)
			r.Put("/users/{userID}/pin", h.changePIN)

			r.Post("/pets", h.createPet)
			r.Get("/pets", h.listPets)
			r.Get("/pets/{petID}", h.getPet)
			r.Put("/pets/{petID}/price", h.updatePetPrice)

			r.Post("/carts", h.createCart)
			r.Get("/carts/mine", h.getCartByUser)
			r.Get("/carts/{cartID}", h.getCart)
			r.Post("/carts/{cartID}/items", h.addCartItem)
			r.Patch("/cart-items/{itemID}", h.updateCartItem)
			r.Delete("/cart-items/{itemID}", h.removeCartItem)

			r.Post("/orders", h.createOrder)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderID}", h.getOrder)
			r.Get("/orders/{orderID}/status", h.getOrderStatus)
			r.Post("/orders/{orderID}/cancel", h.cancelOrder)
			r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
			r.Post("/orders/{orderID}/deliver", h.deliverOrder)
			r.Delete("/orders/{orderID}", h.deleteOrder)
			r.Delete("/orders/{orderID}/items/{itemID}", h.deleteOrderItem)

			r.Post("/balance/deposit", h.deposit)
			r.Get("/balance", h.getBalance)
			r.Get("/transactions", h.listTransactions)
		})
	})

	return r
}

// requestLogger пишет строку на каждый завершённый запрос.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}
