package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"autolytiq-desk/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of an MQTT client the recorder needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient paho client wrapper
type MQTTClient struct {
	client mqtt.Client
}

// NewMQTTClient connects to the broker
func NewMQTTClient(cfg *config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTTClient{client: client}, nil
}

func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect waits up to 250ms for in-flight publishes
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}

// MQTTRecorder publishes JSON events to <topic>/<tenant_id>
type MQTTRecorder struct {
	pub   Publisher
	topic string
	qos   byte
}

func NewMQTTRecorder(pub Publisher, topic string, qos byte) *MQTTRecorder {
	return &MQTTRecorder{pub: pub, topic: topic, qos: qos}
}

func (r *MQTTRecorder) Record(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	topic := r.topic
	if e.TenantID != "" {
		topic = topic + "/" + e.TenantID
	}
	return r.pub.Publish(topic, r.qos, false, payload)
}
