package audit

import (
	"context"
	"fmt"

	"autolytiq-desk/internal/config"

	"go.uber.org/zap"
)

// NewFromConfig builds the recorder selected by AUDIT_SINK.
// The returned close func releases the sink's client and is never nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Recorder, func(), error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkNone:
		return Nop{}, func() {}, nil
	case config.AuditSinkLog, "":
		return NewLogRecorder(logger), func() {}, nil
	case config.AuditSinkRedis:
		client := NewRedisClient(&cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStreamRecorder(client, cfg.Audit.Stream), func() { _ = client.Close() }, nil
	case config.AuditSinkMQTT:
		client, err := NewMQTTClient(&cfg.MQTT)
		if err != nil {
			return nil, nil, err
		}
		return NewMQTTRecorder(client, cfg.MQTT.Topic, cfg.MQTT.QoS), client.Disconnect, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}
}
