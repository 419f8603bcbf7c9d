package domain

import "time"

// User — минимальный профиль, который нужен ядру: идентичность, PIN для
// подтверждения пополнений и признак персонала. Аутентификация живёт во
// внешнем слое, сюда приходит уже проверенная identity.
type User struct {
	ID    string
	Email string
	// PIN подтверждает пополнение баланса. По умолчанию "1234".
	PIN       string
	Staff     bool
	CreatedAt time.Time
}

// DefaultPIN выдаётся новым пользователям, пока они не сменят его.
const DefaultPIN = "1234"

// Principal — действующий субъект операции: пользователь плюс признак
// персонала. Передаётся явно в каждую операцию вместо глобального контекста.
type Principal struct {
	UserID string
	Staff  bool
}

// CanManage разрешает действие владельцу ресурса или персоналу.
func (p Principal) CanManage(ownerID string) bool {
	return p.Staff || (p.UserID != "" && p.UserID == ownerID)
}
