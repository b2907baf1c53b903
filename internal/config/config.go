package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"autolytiq-desk/internal/txmanager"
)

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds the lib/pq connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis settings (audit stream sink)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT settings (audit topic sink)
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// TxConfig defaults applied by the transaction manager when a call does not override them
type TxConfig struct {
	Isolation        string // any spelling txmanager.ParseLevel accepts
	MaxRetries       int
	BaseDelay        time.Duration
	StatementTimeout time.Duration
}

// AuditConfig selects where audit events go after a transaction finishes
type AuditConfig struct {
	Sink   string // "log", "redis", "mqtt", "none"
	Stream string // Redis stream name
}

// Config deal-engine configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Tx       TxConfig
	Audit    AuditConfig

	Log struct {
		Level  string
		Format string
	}
}

// Audit sinks
const (
	AuditSinkLog   = "log"
	AuditSinkRedis = "redis"
	AuditSinkMQTT  = "mqtt"
	AuditSinkNone  = "none"
)

var validSinks = map[string]bool{
	AuditSinkLog:   true,
	AuditSinkRedis: true,
	AuditSinkMQTT:  true,
	AuditSinkNone:  true,
}

// Load reads configuration from environment variables, falling back to defaults
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "autolytiq")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "deal-engine")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "autolytiq/deals/audit")
	qos := getEnvInt("MQTT_QOS", 1)
	if qos > 2 {
		return nil, fmt.Errorf("invalid MQTT_QOS %d: must be 0, 1 or 2", qos)
	}
	cfg.MQTT.QoS = byte(qos)

	cfg.Tx.Isolation = strings.ToLower(strings.TrimSpace(getEnv("TX_ISOLATION", "default")))
	cfg.Tx.MaxRetries = getEnvInt("TX_MAX_RETRIES", 3)
	cfg.Tx.BaseDelay = time.Duration(getEnvInt("TX_BASE_DELAY_MS", 50)) * time.Millisecond
	cfg.Tx.StatementTimeout = time.Duration(getEnvInt("TX_STATEMENT_TIMEOUT_MS", 30000)) * time.Millisecond

	cfg.Audit.Sink = strings.ToLower(getEnv("AUDIT_SINK", "log"))
	cfg.Audit.Stream = getEnv("AUDIT_STREAM", "deal:audit")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if _, err := txmanager.ParseLevel(cfg.Tx.Isolation); err != nil {
		return nil, fmt.Errorf("invalid TX_ISOLATION: %w", err)
	}
	if !validSinks[cfg.Audit.Sink] {
		return nil, fmt.Errorf("invalid AUDIT_SINK %q", cfg.Audit.Sink)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the default for missing, malformed, or negative values
func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}
