package ingest

import (
	"errors"
	"testing"

	"github.com/noisewatch/noisewatch-core/internal/infrastructure/mqtt"
)

// mockSubscriber captures the registered handler so tests can inject
// messages without a broker.
type mockSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	err     error
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if m.err != nil {
		return m.err
	}
	m.topic = topic
	m.qos = qos
	m.handler = handler
	return nil
}

func TestStartBridge_SubscribesToTelemetry(t *testing.T) {
	pipeline, registry, _ := testPipeline(t)
	sub := &mockSubscriber{}

	if err := StartBridge(sub, 1, pipeline, nil); err != nil {
		t.Fatalf("StartBridge() error = %v", err)
	}
	if sub.topic != "noisewatch/telemetry/+" {
		t.Errorf("subscribed topic = %q, want noisewatch/telemetry/+", sub.topic)
	}
	if sub.qos != 1 {
		t.Errorf("qos = %d, want 1", sub.qos)
	}

	err := sub.handler("noisewatch/telemetry/d1", []byte(`{"deviceId":"d1","tableId":"T1","noiseLevel":50}`))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	state, ok := registry.Get("d1")
	if !ok {
		t.Fatal("device d1 not registered via bridge")
	}
	if state.ConnectionID != "" {
		t.Errorf("ConnectionID = %q, want empty for MQTT-delivered message", state.ConnectionID)
	}
}

func TestStartBridge_MalformedPayloadIsNonFatal(t *testing.T) {
	pipeline, _, _ := testPipeline(t)
	sub := &mockSubscriber{}

	if err := StartBridge(sub, 1, pipeline, nil); err != nil {
		t.Fatalf("StartBridge() error = %v", err)
	}
	if err := sub.handler("noisewatch/telemetry/d1", []byte("{garbage")); err != nil {
		t.Errorf("handler error = %v, want nil (per-message isolation)", err)
	}
}

func TestStartBridge_SubscribeFailure(t *testing.T) {
	pipeline, _, _ := testPipeline(t)
	sub := &mockSubscriber{err: mqtt.ErrNotConnected}

	err := StartBridge(sub, 1, pipeline, nil)
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("StartBridge() error = %v, want ErrNotConnected", err)
	}
}
