package mqtt

import (
	"errors"
	"testing"

	"github.com/noisewatch/noisewatch-core/internal/infrastructure/config"
)

func testClient() *Client {
	return &Client{
		cfg:           config.Default().MQTT,
		subscriptions: make(map[string]subscription),
	}
}

func TestPublish_ValidationErrors(t *testing.T) {
	c := testClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 0, ErrInvalidTopic},
		{"invalid qos", "noisewatch/telemetry/d1", []byte("x"), 3, ErrInvalidQoS},
		{"not connected", "noisewatch/telemetry/d1", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublish_OversizedPayload(t *testing.T) {
	c := testClient()

	payload := make([]byte, maxPayloadSize+1)
	err := c.Publish("noisewatch/telemetry/d1", payload, 0, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribe_ValidationErrors(t *testing.T) {
	c := testClient()
	handler := func(topic string, payload []byte) error { return nil }

	if err := c.Subscribe("", 0, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("noisewatch/telemetry/+", 5, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos: error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("noisewatch/telemetry/+", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("noisewatch/telemetry/+", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected: error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionCount(t *testing.T) {
	c := testClient()
	if got := c.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}

	c.subscriptions["a"] = subscription{topic: "a"}
	c.subscriptions["b"] = subscription{topic: "b"}
	if got := c.SubscriptionCount(); got != 2 {
		t.Errorf("SubscriptionCount() = %d, want 2", got)
	}

	c.dropSubscription("a")
	if got := c.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount() after drop = %d, want 1", got)
	}
}

func TestClose_NilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v, want nil", err)
	}
}
