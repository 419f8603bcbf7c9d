package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// envPrefix — префикс переменных окружения, перекрывающих конфиг.
// Вложенность кодируется двойным подчёркиванием:
// PETMARKET_STORAGE__POSTGRES_DSN → storage.postgres_dsn.
const envPrefix = "PETMARKET_"

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string `koanf:"http_addr"`
	MetricsAddr string `koanf:"metrics_addr"`

	Storage StorageConfig `koanf:"storage"`
	Kafka   KafkaConfig   `koanf:"kafka"`
	Redis   RedisConfig   `koanf:"redis"`
	Outbox  OutboxConfig  `koanf:"outbox"`
	Ledger  LedgerConfig  `koanf:"ledger"`
	Log     LogConfig     `koanf:"log"`
}

// StorageConfig выбирает хранилище: in-memory для разработки, postgres для
// продакшена.
type StorageConfig struct {
	Driver              string `koanf:"driver"`
	PostgresDSN         string `koanf:"postgres_dsn"`
	PostgresAutoMigrate bool   `koanf:"postgres_auto_migrate"`
}

// KafkaConfig настраивает публикацию событий. Пустой список брокеров
// отключает Kafka вместе с outbox worker.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
}

// RedisConfig настраивает кэш статусов заказов. Пустой адрес отключает кэш.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	StatusTTL time.Duration `koanf:"status_ttl"`
}

// OutboxConfig задаёт параметры фонового паблишера transactional outbox.
type OutboxConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval"`
	BatchSize      int           `koanf:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// LedgerConfig задаёт бизнес-константы баланса.
type LedgerConfig struct {
	// MinDeposit — минимальная сумма одного пополнения, десятичная строка.
	MinDeposit string `koanf:"min_deposit"`
}

// LogConfig настраивает формат и ротацию логов.
type LogConfig struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних
// зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		Storage: StorageConfig{
			Driver:              StorageDriverMemory,
			PostgresAutoMigrate: true,
		},
		Redis: RedisConfig{
			StatusTTL: 10 * time.Minute,
		},
		Outbox: OutboxConfig{
			PollInterval:   time.Second,
			BatchSize:      100,
			MaxAttempts:    3,
			RetryBaseDelay: 50 * time.Millisecond,
		},
		Ledger: LedgerConfig{
			MinDeposit: "100",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (если путь не пуст), затем переменные окружения.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKeyMapper(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox.poll_interval must be positive")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox.max_attempts must be positive")
	}
	return nil
}
