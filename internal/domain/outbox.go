package domain

import "time"

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxEnqueuer ставит событие в outbox в рамках текущей транзакции:
// событие фиксируется вместе с породившей его операцией или не фиксируется вовсе.
type OutboxEnqueuer interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
}

// OutboxRepository — сторона воркера: выборка pending-сообщений и отметка результата.
type OutboxRepository interface {
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}
