package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.Database != "autolytiq" {
		t.Errorf("Expected DB_NAME default 'autolytiq', got '%s'", cfg.Database.Database)
	}
	if cfg.Tx.Isolation != "default" {
		t.Errorf("Expected TX_ISOLATION default 'default', got '%s'", cfg.Tx.Isolation)
	}
	if cfg.Tx.MaxRetries != 3 {
		t.Errorf("Expected TX_MAX_RETRIES default 3, got %d", cfg.Tx.MaxRetries)
	}
	if cfg.Tx.BaseDelay != 50*time.Millisecond {
		t.Errorf("Expected base delay 50ms, got %s", cfg.Tx.BaseDelay)
	}
	if cfg.Tx.StatementTimeout != 30*time.Second {
		t.Errorf("Expected statement timeout 30s, got %s", cfg.Tx.StatementTimeout)
	}
	if cfg.Audit.Sink != "log" {
		t.Errorf("Expected AUDIT_SINK default 'log', got '%s'", cfg.Audit.Sink)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_NAME", "test-db")
	t.Setenv("TX_ISOLATION", "Serializable")
	t.Setenv("TX_MAX_RETRIES", "5")
	t.Setenv("TX_BASE_DELAY_MS", "10")
	t.Setenv("TX_STATEMENT_TIMEOUT_MS", "1500")
	t.Setenv("AUDIT_SINK", "redis")
	t.Setenv("AUDIT_STREAM", "audit:test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Database != "test-db" {
		t.Errorf("Expected DB_NAME 'test-db', got '%s'", cfg.Database.Database)
	}
	if cfg.Tx.Isolation != "serializable" {
		t.Errorf("Expected isolation 'serializable', got '%s'", cfg.Tx.Isolation)
	}
	if cfg.Tx.MaxRetries != 5 {
		t.Errorf("Expected 5 retries, got %d", cfg.Tx.MaxRetries)
	}
	if cfg.Tx.BaseDelay != 10*time.Millisecond {
		t.Errorf("Expected base delay 10ms, got %s", cfg.Tx.BaseDelay)
	}
	if cfg.Tx.StatementTimeout != 1500*time.Millisecond {
		t.Errorf("Expected statement timeout 1.5s, got %s", cfg.Tx.StatementTimeout)
	}
	if cfg.Audit.Sink != "redis" || cfg.Audit.Stream != "audit:test" {
		t.Errorf("Unexpected audit config: %+v", cfg.Audit)
	}
}

func TestLoad_InvalidIsolation(t *testing.T) {
	t.Setenv("TX_ISOLATION", "snapshot")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown isolation level")
	}
}

func TestLoad_IsolationSpellings(t *testing.T) {
	for _, v := range []string{"read committed", "read_committed", "Repeatable Read", "repeatable_read", "SERIALIZABLE"} {
		t.Setenv("TX_ISOLATION", v)
		if _, err := Load(); err != nil {
			t.Errorf("Expected %q to be accepted, got %v", v, err)
		}
	}
}

func TestLoad_InvalidMQTTQoS(t *testing.T) {
	for _, v := range []string{"3", "256"} {
		t.Setenv("MQTT_QOS", v)
		if _, err := Load(); err == nil {
			t.Errorf("Expected error for MQTT_QOS=%s", v)
		}
	}

	t.Setenv("MQTT_QOS", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("Expected QoS 2, got %d", cfg.MQTT.QoS)
	}
}

func TestLoad_InvalidAuditSink(t *testing.T) {
	t.Setenv("AUDIT_SINK", "kafka")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown audit sink")
	}
}

func TestGetEnvInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	if v := getEnvInt("TEST_INT", 7); v != 7 {
		t.Errorf("Expected fallback 7, got %d", v)
	}

	t.Setenv("TEST_INT", "-3")
	if v := getEnvInt("TEST_INT", 7); v != 7 {
		t.Errorf("Expected fallback 7 for negative, got %d", v)
	}

	t.Setenv("TEST_INT", "42")
	if v := getEnvInt("TEST_INT", 7); v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 6543, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	want := "host=db port=6543 user=u password=p dbname=d sslmode=require"
	if got := c.GetDSN(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
