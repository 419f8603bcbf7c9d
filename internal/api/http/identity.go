package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/petmarket/internal/domain"
)

// Заголовки, через которые внешний слой аутентификации передаёт identity.
// Сервис доверяет им: проверка подписи токена происходит до нас.
const (
	HeaderUserID = "X-User-Id"
	HeaderStaff  = "X-User-Staff"
)

type principalKey struct{}

// withPrincipal кладёт identity из заголовков в контекст запроса.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := domain.Principal{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		}
		switch strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderStaff))) {
		case "1", "true", "yes":
			p.Staff = true
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}

// requireIdentity отклоняет запросы без идентификатора пользователя.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principalFrom(r.Context()).UserID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{
				Kind:    string(domain.KindUnauthorized),
				Message: "missing " + HeaderUserID + " header",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
