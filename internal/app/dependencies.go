package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/vladislavdragonenkov/petmarket/internal/api/http"
	"github.com/vladislavdragonenkov/petmarket/internal/cache"
	"github.com/vladislavdragonenkov/petmarket/internal/domain"
	"github.com/vladislavdragonenkov/petmarket/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/petmarket/internal/metrics"
	"github.com/vladislavdragonenkov/petmarket/internal/service/cart"
	"github.com/vladislavdragonenkov/petmarket/internal/service/ledger"
	"github.com/vladislavdragonenkov/petmarket/internal/service/order"
	"github.com/vladislavdragonenkov/petmarket/internal/service/pet"
	"github.com/vladislavdragonenkov/petmarket/internal/service/user"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/memory"
	"github.com/vladislavdragonenkov/petmarket/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Store      domain.Store
	OutboxRepo domain.OutboxRepository
	Services   httpapi.Services
	Logger     *log.Entry

	OrderMetrics  *metrics.OrderMetrics
	LedgerMetrics *metrics.LedgerMetrics

	KafkaProducer *kafka.Producer
	RedisClient   *redis.Client

	pgStore *postgres.Store
}

// NewDependencies инициализирует хранилище, внешние подключения и сервисы.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Logger:        logger,
		OrderMetrics:  metrics.NewOrderMetrics(),
		LedgerMetrics: metrics.NewLedgerMetrics(),
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, err
	}
	deps.initKafka(cfg)
	deps.initRedisStatusCache(cfg)
	deps.initServices(cfg)

	return deps, nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg Config) error {
	switch cfg.Storage.Driver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Storage.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return fmt.Errorf("apply migrations: %w", err)
			}
		}
		d.pgStore = store
		d.Store = store
		d.OutboxRepo = postgres.NewOutboxRepository(store)
		d.Logger.Info("postgres storage initialized")
	case StorageDriverMemory:
		store := memory.NewStore()
		d.Store = store
		d.OutboxRepo = store.Outbox()
		d.Logger.Info("in-memory storage initialized")
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return nil
}

// initKafka поднимает producer, если брокеры настроены. Ошибка подключения
// не фатальна: события остаются в outbox до появления брокера.
func (d *Dependencies) initKafka(cfg Config) {
	if len(cfg.Kafka.Brokers) == 0 {
		return
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		d.Logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return
	}
	d.KafkaProducer = producer
	d.Logger.WithField("brokers", cfg.Kafka.Brokers).Info("kafka producer initialized")
}

func (d *Dependencies) initRedisStatusCache(cfg Config) {
	if cfg.Redis.Addr == "" {
		return
	}

	d.RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	d.Logger.WithField("addr", cfg.Redis.Addr).Info("redis status cache initialized")
}

func (d *Dependencies) initServices(cfg Config) {
	ledgerOptions := []ledger.Option{ledger.WithMetrics(d.LedgerMetrics)}
	if minDeposit, err := decimal.NewFromString(cfg.Ledger.MinDeposit); err == nil {
		ledgerOptions = append(ledgerOptions, ledger.WithMinDeposit(minDeposit))
	} else if cfg.Ledger.MinDeposit != "" {
		d.Logger.WithField("min_deposit", cfg.Ledger.MinDeposit).
			Warn("invalid ledger.min_deposit, using default")
	}

	orderOptions := []order.Option{
		order.WithMetrics(d.OrderMetrics),
		order.WithLedgerMetrics(d.LedgerMetrics),
	}
	if d.RedisClient != nil {
		orderOptions = append(orderOptions,
			order.WithStatusCache(cache.NewOrderStatusCache(d.RedisClient, cfg.Redis.StatusTTL)))
	}

	d.Services = httpapi.Services{
		Users:  user.NewService(d.Store, d.Logger.WithField("component", "user")),
		Pets:   pet.NewService(d.Store, d.Logger.WithField("component", "pet")),
		Carts:  cart.NewService(d.Store, d.Logger.WithField("component", "cart")),
		Orders: order.NewService(d.Store, d.Logger.WithField("component", "order"), orderOptions...),
		Ledger: ledger.NewService(d.Store, d.Logger.WithField("component", "ledger"), ledgerOptions...),
	}
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.KafkaProducer != nil {
		if err := d.KafkaProducer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// PingStorage проверяет доступность хранилища для health check.
func (d *Dependencies) PingStorage(ctx context.Context) error {
	if d.pgStore != nil {
		return d.pgStore.Ping(ctx)
	}
	return nil
}
