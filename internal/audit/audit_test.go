package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"autolytiq-desk/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleEvent() Event {
	return Event{
		Operation:  "create_deal",
		TenantID:   "11111111-1111-1111-1111-111111111111",
		DealID:     "33333333-3333-3333-3333-333333333333",
		DealNumber: "D-000001",
		Outcome:    OutcomeSuccess,
		Attempts:   2,
		DurationMs: 12,
		Timestamp:  time.Unix(1700000000, 0).UTC(),
	}
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStreamRecorder_Record(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	rec := NewRedisStreamRecorder(client, "deal:audit")
	require.NoError(t, rec.Record(ctx, sampleEvent()))

	msgs, err := client.XRange(ctx, "deal:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "create_deal", values["operation"])
	assert.Equal(t, "success", values["outcome"])
	assert.Equal(t, "2", values["attempts"])
	assert.Equal(t, "1700000000", values["timestamp"])
	assert.NotContains(t, values, "error_kind")

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, "D-000001", decoded.DealNumber)
}

func TestRedisStreamRecorder_ServerDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	mr.Close()

	rec := NewRedisStreamRecorder(client, "deal:audit")
	err := rec.Record(context.Background(), sampleEvent())
	assert.Error(t, err)
}

type fakePublisher struct {
	topic    string
	qos      byte
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	f.qos = qos
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestMQTTRecorder_Record(t *testing.T) {
	pub := &fakePublisher{}
	rec := NewMQTTRecorder(pub, "autolytiq/deals/audit", 1)

	e := sampleEvent()
	e.Outcome = OutcomeFailure
	e.ErrorKind = "conflict"
	require.NoError(t, rec.Record(context.Background(), e))

	assert.Equal(t, "autolytiq/deals/audit/"+e.TenantID, pub.topic)
	assert.Equal(t, byte(1), pub.qos)
	require.Len(t, pub.payloads, 1)

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "conflict", decoded.ErrorKind)
}

func TestMQTTRecorder_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	rec := NewMQTTRecorder(pub, "t", 0)

	assert.Error(t, rec.Record(context.Background(), sampleEvent()))
}

func TestLogRecorder_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := NewLogRecorder(zap.New(core))

	require.NoError(t, rec.Record(context.Background(), sampleEvent()))

	failed := sampleEvent()
	failed.Outcome = OutcomeFailure
	failed.ErrorKind = "validation"
	failed.Error = "tenant_id: required"
	require.NoError(t, rec.Record(context.Background(), failed))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "validation", entries[1].ContextMap()["error_kind"])
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Audit.Sink = config.AuditSinkNone
	rec, closeFn, err := NewFromConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, rec)
	closeFn()

	cfg.Audit.Sink = config.AuditSinkLog
	rec, _, err = NewFromConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogRecorder{}, rec)

	cfg.Audit.Sink = config.AuditSinkRedis
	cfg.Audit.Stream = "deal:audit"
	cfg.Redis.Addr = mr.Addr()
	rec, closeFn, err = NewFromConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RedisStreamRecorder{}, rec)
	closeFn()

	cfg.Audit.Sink = "kafka"
	_, _, err = NewFromConfig(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}
