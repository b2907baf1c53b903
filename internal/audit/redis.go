package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"autolytiq-desk/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient creates the client used by RedisStreamRecorder
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisStreamRecorder appends events to a Redis stream with XADD
type RedisStreamRecorder struct {
	client *redis.Client
	stream string
}

func NewRedisStreamRecorder(client *redis.Client, stream string) *RedisStreamRecorder {
	return &RedisStreamRecorder{client: client, stream: stream}
}

// Record flattens the event into stream fields; "data" carries the full JSON document
func (r *RedisStreamRecorder) Record(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	values := map[string]interface{}{
		"operation": e.Operation,
		"tenant_id": e.TenantID,
		"outcome":   e.Outcome,
		"attempts":  strconv.Itoa(e.Attempts),
		"data":      string(data),
		"timestamp": strconv.FormatInt(e.Timestamp.Unix(), 10),
	}
	if e.DealID != "" {
		values["deal_id"] = e.DealID
	}
	if e.ErrorKind != "" {
		values["error_kind"] = e.ErrorKind
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish audit event to stream %s: %w", r.stream, err)
	}
	return nil
}
