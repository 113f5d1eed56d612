package ingest

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/noisewatch/noisewatch-core/internal/alert"
	"github.com/noisewatch/noisewatch-core/internal/classify"
	"github.com/noisewatch/noisewatch-core/internal/device"
)

// mockEmitter records emitted events for assertions.
type mockEmitter struct {
	events []emittedEvent
}

type emittedEvent struct {
	event   string
	payload any
}

func (m *mockEmitter) Emit(event string, payload any) {
	m.events = append(m.events, emittedEvent{event: event, payload: payload})
}

func (m *mockEmitter) byEvent(event string) []any {
	var out []any
	for _, e := range m.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

// testPipeline wires a real registry and alert engine behind the pipeline,
// matching the production arrangement.
func testPipeline(t *testing.T) (*Pipeline, *device.Registry, *mockEmitter) {
	t.Helper()

	registry := device.NewRegistry()
	emitter := &mockEmitter{}
	engine := alert.NewEngine(alert.Config{
		NoiseThreshold:   65,
		InactivityWindow: 15 * time.Second,
		SweepInterval:    5 * time.Second,
	}, registry, emitter, nil)

	return NewPipeline(registry, engine, emitter, nil), registry, emitter
}

func TestProcess_MalformedPayload(t *testing.T) {
	p, registry, _ := testPipeline(t)

	_, err := p.Process([]byte("{not json"), "conn-1")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Process() error = %v, want ErrMalformedPayload", err)
	}
	if registry.Len() != 0 {
		t.Errorf("registry.Len() = %d after malformed payload, want 0", registry.Len())
	}
}

func TestProcess_MissingDeviceID(t *testing.T) {
	p, _, _ := testPipeline(t)

	_, err := p.Process([]byte(`{"tableId":"T1","noiseLevel":50}`), "conn-1")
	if !errors.Is(err, device.ErrMissingDeviceID) {
		t.Errorf("Process() error = %v, want ErrMissingDeviceID", err)
	}
}

func TestProcess_ClassifiesFeatureVector(t *testing.T) {
	p, _, _ := testPipeline(t)

	raw := []byte(`{"deviceId":"d1","tableId":"T1","noiseLevel":80,` +
		`"audioFeatures":{"lowFreqEnergy":0.5,"midFreqEnergy":0.3,"highFreqEnergy":0.2,"volatility":0.08}}`)
	state, err := p.Process(raw, "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if state.LastSoundType != classify.LabelVehicle {
		t.Errorf("LastSoundType = %q, want %q", state.LastSoundType, classify.LabelVehicle)
	}
	if state.LastNoiseLevel != 80 {
		t.Errorf("LastNoiseLevel = %v, want 80", state.LastNoiseLevel)
	}
	if state.TableID != "T1" {
		t.Errorf("TableID = %q, want T1", state.TableID)
	}
	if state.ConnectionID != "conn-1" {
		t.Errorf("ConnectionID = %q, want conn-1", state.ConnectionID)
	}
}

func TestProcess_ProducerLabelFallback(t *testing.T) {
	p, _, _ := testPipeline(t)

	state, err := p.Process([]byte(`{"deviceId":"d1","noiseLevel":50,"soundType":"drill"}`), "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if state.LastSoundType != "drill" {
		t.Errorf("LastSoundType = %q, want drill", state.LastSoundType)
	}
}

func TestProcess_FeatureVectorWinsOverProducerLabel(t *testing.T) {
	p, _, _ := testPipeline(t)

	raw := []byte(`{"deviceId":"d1","noiseLevel":30,"soundType":"drill","audioFeatures":{}}`)
	state, err := p.Process(raw, "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if state.LastSoundType != classify.LabelSilence {
		t.Errorf("LastSoundType = %q, want %q", state.LastSoundType, classify.LabelSilence)
	}
}

func TestProcess_UnknownLabelWithoutFeaturesOrLabel(t *testing.T) {
	p, _, _ := testPipeline(t)

	state, err := p.Process([]byte(`{"deviceId":"d1","noiseLevel":50}`), "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if state.LastSoundType != classify.LabelUnknown {
		t.Errorf("LastSoundType = %q, want %q", state.LastSoundType, classify.LabelUnknown)
	}
}

func TestProcess_UsesMessageTimestamp(t *testing.T) {
	p, _, _ := testPipeline(t)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	raw := []byte(`{"deviceId":"d1","noiseLevel":50,"timestamp":` + strconv.FormatInt(ts, 10) + `}`)
	state, err := p.Process(raw, "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if state.LastSeen.UnixMilli() != ts {
		t.Errorf("LastSeen = %d, want %d", state.LastSeen.UnixMilli(), ts)
	}
}

func TestProcess_DefaultsToReceiptTime(t *testing.T) {
	p, _, _ := testPipeline(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	state, err := p.Process([]byte(`{"deviceId":"d1","noiseLevel":50}`), "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !state.LastSeen.Equal(fixed) {
		t.Errorf("LastSeen = %v, want %v", state.LastSeen, fixed)
	}
}

func TestProcess_EmitsDeviceData(t *testing.T) {
	p, _, emitter := testPipeline(t)

	_, err := p.Process([]byte(`{"deviceId":"d1","tableId":"T1","noiseLevel":50,"soundType":"speech"}`), "conn-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	payloads := emitter.byEvent(EventDeviceData)
	if len(payloads) != 1 {
		t.Fatalf("device-data events = %d, want 1", len(payloads))
	}
	ev, ok := payloads[0].(TelemetryEvent)
	if !ok {
		t.Fatalf("payload type = %T, want TelemetryEvent", payloads[0])
	}
	if ev.DeviceID != "d1" || ev.TableID != "T1" || ev.NoiseLevel != 50 || ev.SoundType != "speech" {
		t.Errorf("TelemetryEvent = %+v", ev)
	}
}

func TestProcess_EmptyConnIDPreservesConnection(t *testing.T) {
	p, registry, _ := testPipeline(t)

	if _, err := p.Process([]byte(`{"deviceId":"d1","noiseLevel":50}`), "conn-1"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// An MQTT-delivered message must not clear the WebSocket connection ref.
	if _, err := p.Process([]byte(`{"deviceId":"d1","noiseLevel":55}`), ""); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	state, _ := registry.Get("d1")
	if state.ConnectionID != "conn-1" {
		t.Errorf("ConnectionID = %q, want conn-1", state.ConnectionID)
	}
	if state.LastNoiseLevel != 55 {
		t.Errorf("LastNoiseLevel = %v, want 55", state.LastNoiseLevel)
	}
}

// End-to-end: a lone loud device fires noise_exceed but not the peer rule.
func TestProcess_EndToEnd_NoPeers(t *testing.T) {
	p, _, emitter := testPipeline(t)

	raw := []byte(`{"deviceId":"d1","tableId":"T1","noiseLevel":80,` +
		`"audioFeatures":{"lowFreqEnergy":0.5,"midFreqEnergy":0.3,"highFreqEnergy":0.2,"volatility":0.08}}`)
	if _, err := p.Process(raw, "conn-1"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	alerts := emitter.byEvent(alert.EventAlert)
	if len(alerts) != 1 {
		t.Fatalf("alert events = %d, want 1", len(alerts))
	}
	a := alerts[0].(alert.Alert)
	if a.Type != alert.TypeNoiseExceed {
		t.Errorf("alert type = %q, want %q", a.Type, alert.TypeNoiseExceed)
	}
	if a.SoundType != classify.LabelVehicle {
		t.Errorf("alert sound type = %q, want %q", a.SoundType, classify.LabelVehicle)
	}
}

// End-to-end: a loud device with one quiet peer fires both the threshold
// and peer-consistency rules.
func TestProcess_EndToEnd_QuietPeer(t *testing.T) {
	p, _, emitter := testPipeline(t)

	quiet := []byte(`{"deviceId":"d2","tableId":"T1","noiseLevel":30,` +
		`"audioFeatures":{"lowFreqEnergy":0.2,"midFreqEnergy":0.2,"highFreqEnergy":0.2,"volatility":0.1}}`)
	if _, err := p.Process(quiet, "conn-2"); err != nil {
		t.Fatalf("Process(quiet) error = %v", err)
	}

	loud := []byte(`{"deviceId":"d1","tableId":"T1","noiseLevel":80,` +
		`"audioFeatures":{"lowFreqEnergy":0.5,"midFreqEnergy":0.3,"highFreqEnergy":0.2,"volatility":0.08}}`)
	if _, err := p.Process(loud, "conn-1"); err != nil {
		t.Fatalf("Process(loud) error = %v", err)
	}

	alerts := emitter.byEvent(alert.EventAlert)
	if len(alerts) != 2 {
		t.Fatalf("alert events = %d, want 2", len(alerts))
	}

	exceed := alerts[0].(alert.Alert)
	if exceed.Type != alert.TypeNoiseExceed || exceed.DeviceID != "d1" {
		t.Errorf("first alert = %+v, want noise_exceed for d1", exceed)
	}

	issue := alerts[1].(alert.Alert)
	if issue.Type != alert.TypeSensorIssue || issue.DeviceID != "d1" {
		t.Errorf("second alert = %+v, want possible_sensor_issue for d1", issue)
	}
	if len(issue.Peers) != 1 || issue.Peers[0].DeviceID != "d2" || issue.Peers[0].Noise != 30 {
		t.Errorf("issue peers = %+v, want [{d2 30}]", issue.Peers)
	}
}
