// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Decision DecisionConfig `mapstructure:"decision"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address        string `mapstructure:"address"`
	ReadTimeout    int    `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"`   // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	GroupID         string   `mapstructure:"group_id"`
	DeadLetterTopic string   `mapstructure:"dead_letter_topic"`
	MaxAttempts     int      `mapstructure:"max_attempts"`
	WriteTimeout    int      `mapstructure:"write_timeout"` // milliseconds
}

// GetDeadLetterTopic returns the configured DLQ topic, defaulting to
// "<topic>.dlq".
func (k KafkaConfig) GetDeadLetterTopic() string {
	if k.DeadLetterTopic != "" {
		return k.DeadLetterTopic
	}
	return k.Topic + ".dlq"
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Enabled        bool   `mapstructure:"enabled"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	TTL       int    `mapstructure:"ttl"` // seconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

// GetTTL returns the per-entry expiration applied on every cache write.
func (c CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// DecisionConfig holds the decision worker settings.
type DecisionConfig struct {
	ApprovalLimit   float64 `mapstructure:"approval_limit"`
	CacheMaxRetries int     `mapstructure:"cache_max_retries"`
	ProcessTimeout  int     `mapstructure:"process_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
