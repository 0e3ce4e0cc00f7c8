package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

const envPrefix = "BUDGET_"

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Storage  StorageConfig  `koanf:"storage"`
	Postgres PostgresConfig `koanf:"postgres"`
	Operator OperatorConfig `koanf:"operator"`
	Log      LogConfig      `koanf:"log"`
	Events   EventsConfig   `koanf:"events"`
}

type HTTPConfig struct {
	Port string `koanf:"port"`
}

type StorageConfig struct {
	Backend string `koanf:"backend"`
}

type PostgresConfig struct {
	Address  string `koanf:"address"`
	Port     string `koanf:"port"`
	DB       string `koanf:"db"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// OperatorConfig sizes the per-budget queues. An operator with nothing to do
// for IdleTimeout exits and is restarted by the budget's next action.
type OperatorConfig struct {
	QueueSize   int           `koanf:"queuesize"`
	IdleTimeout time.Duration `koanf:"idletimeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// EventsConfig selects the change-event publisher. An empty AMQPURL logs
// events instead of sending them to RabbitMQ.
type EventsConfig struct {
	AMQPURL    string `koanf:"amqpurl"`
	Exchange   string `koanf:"exchange"`
	BufferSize int    `koanf:"buffersize"`
}

// In all cases the default behavior should be for the docker compose setup
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"http.port":            "9446",
		"storage.backend":      BackendPostgres,
		"postgres.address":     "localhost",
		"postgres.port":        "5433",
		"postgres.db":          "postgres",
		"postgres.username":    "postgres",
		"postgres.password":    "testpassword",
		"postgres.sslmode":     "disable",
		"operator.queuesize":   1000,
		"operator.idletimeout": "5m",
		"log.level":            "info",
		"events.amqpurl":       "",
		"events.exchange":      "budget-ledger",
		"events.buffersize":    1024,
	}
}

// envKey maps BUDGET_POSTGRES_ADDRESS to postgres.address.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
}

// ProcessEnvironmentVariables loads defaults, then an optional .env file,
// then BUDGET_* variables.
func ProcessEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("config.ProcessEnvironmentVariables: no .env file loaded")
	}
	return Load(env.Provider(envPrefix, ".", envKey))
}

// Load builds a Config from the defaults overlaid with overrides, in order.
func Load(overrides ...koanf.Provider) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	for _, p := range overrides {
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.HTTP.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("http.port: %q is not a valid port", c.HTTP.Port))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.Address == "" {
			errs = append(errs, errors.New("postgres.address is required"))
		}
		if c.Postgres.DB == "" {
			errs = append(errs, errors.New("postgres.db is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: %q is not one of memory, postgres", c.Storage.Backend))
	}
	if c.Operator.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("operator.queuesize: must be positive, got %d", c.Operator.QueueSize))
	}
	if c.Operator.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("operator.idletimeout: must be positive, got %s", c.Operator.IdleTimeout))
	}
	if c.Events.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("events.buffersize: must be positive, got %d", c.Events.BufferSize))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Events.AMQPURL != "" && c.Events.Exchange == "" {
		errs = append(errs, errors.New("events.exchange is required when events.amqpurl is set"))
	}
	return errors.Join(errs...)
}

// PostgresURL is the lib/pq connection URL for the configured database.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.Username, c.Postgres.Password),
		Host:     c.Postgres.Address + ":" + c.Postgres.Port,
		Path:     "/" + c.Postgres.DB,
		RawQuery: url.Values{"sslmode": []string{c.Postgres.SSLMode}}.Encode(),
	}
	return u.String()
}
