package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/homegraph/internal/home"
	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/mqtt"
)

var topics = mqtt.NewTopics("homegraph")

// startBridge wires a bridge between a fake client and a test graph.
func startBridge(t *testing.T, ackTimeout time.Duration) (*Bridge, *fakeClient, *memhost.Graph, *memhost.Characteristic) {
	t.Helper()
	client := newFakeClient()
	g, brightness := testGraph(t)

	b, err := New(Options{Client: client, Sink: g, Topics: topics, QoS: 1, AckTimeout: ackTimeout})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.SetWriter(b)

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(b.Stop)
	return b, client, g, brightness
}

func decodeCommand(t *testing.T, p publishRecord) CommandMessage {
	t.Helper()
	var cmd CommandMessage
	if err := decodeJSON(p.payload, &cmd); err != nil {
		t.Fatalf("decoding command: %v", err)
	}
	return cmd
}

func ackPayload(t *testing.T, ack AckMessage) []byte {
	t.Helper()
	b, err := json.Marshal(ack)
	if err != nil {
		t.Fatalf("json.Marshal(ack) error = %v", err)
	}
	return b
}

func TestNew(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without client should fail")
	}
	if _, err := New(Options{Client: newFakeClient(), QoS: 3}); !errors.Is(err, mqtt.ErrInvalidQoS) {
		t.Errorf("New(QoS 3) error = %v, want ErrInvalidQoS", err)
	}

	b, err := New(Options{Client: newFakeClient()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.ackTimeout != DefaultAckTimeout {
		t.Errorf("ackTimeout = %v, want %v", b.ackTimeout, DefaultAckTimeout)
	}
	if b.topics.Prefix != mqtt.DefaultTopicPrefix {
		t.Errorf("topics.Prefix = %q, want %q", b.topics.Prefix, mqtt.DefaultTopicPrefix)
	}
}

func TestStart_Subscribes(t *testing.T) {
	_, client, _, _ := startBridge(t, time.Second)

	for _, pattern := range []string{"homegraph/ack/+", "homegraph/state/+"} {
		if !client.subscribed(pattern) {
			t.Errorf("not subscribed to %s", pattern)
		}
	}
}

func TestStart_SubscribeFailure(t *testing.T) {
	client := newFakeClient()
	client.subscribeErr[topics.AllStates()] = errors.New("denied")

	b, err := New(Options{Client: client, Topics: topics})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() expected error")
	}
	if client.subscribed(topics.AllAcks()) {
		t.Error("ack subscription should be removed after a failed Start")
	}
}

func TestWrite_Accepted(t *testing.T) {
	b, client, _, brightness := startBridge(t, time.Second)

	errc := make(chan error, 1)
	brightness.WriteValue(75, func(err error) { errc <- err })

	p := client.nextPublish(t)
	if p.topic != "homegraph/command/lamp" {
		t.Errorf("topic = %q, want homegraph/command/lamp", p.topic)
	}
	if p.retained {
		t.Error("commands must not be retained")
	}

	cmd := decodeCommand(t, p)
	if cmd.AccessoryID != "lamp" || cmd.Characteristic != host.CharacteristicBrightness || cmd.Service != host.ServiceLightbulb {
		t.Errorf("command = %+v", cmd)
	}
	if fmt.Sprint(cmd.Value) != "75" {
		t.Errorf("command value = %v, want 75", cmd.Value)
	}

	// Value is not cached until the device accepts it.
	if brightness.Value() != 10 {
		t.Errorf("Value() before ack = %v, want 10", brightness.Value())
	}

	ack := ackPayload(t, AckMessage{CommandID: cmd.ID, AccessoryID: "lamp", Status: AckAccepted})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), ack); err != nil {
		t.Fatalf("handleAck() error = %v", err)
	}

	if err := waitErr(t, errc); err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if brightness.Value() != 75 {
		t.Errorf("Value() after ack = %v, want 75", brightness.Value())
	}

	stats := b.Stats()
	if stats.Accepted != 1 || stats.Pending != 0 {
		t.Errorf("Stats() = %+v, want 1 accepted, 0 pending", stats)
	}
}

func TestWrite_ThroughDomainAdapter(t *testing.T) {
	_, client, _, brightness := startBridge(t, time.Second)

	adapter, ok := home.NewBrightness(brightness)
	if !ok {
		t.Fatal("NewBrightness() reported absence")
	}

	// Acknowledge the command from a simulated device.
	go func() {
		p := <-client.published
		var cmd CommandMessage
		if err := decodeJSON(p.payload, &cmd); err != nil {
			return
		}
		ack, _ := json.Marshal(AckMessage{CommandID: cmd.ID, Status: AckAccepted})
		client.mu.Lock()
		h := client.handlers[topics.AllAcks()]
		client.mu.Unlock()
		_ = h(topics.Ack("lamp"), ack)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	err := home.Await(ctx, func(done host.Completion) { adapter.Set(140, done) })
	if err != nil {
		t.Fatalf("Await(Set) error = %v", err)
	}
	if v, _ := adapter.Value(); v != 100 {
		t.Errorf("Value() = %d, want clamped 100", v)
	}
}

func TestWrite_Failed(t *testing.T) {
	b, client, _, brightness := startBridge(t, time.Second)

	errc := make(chan error, 1)
	brightness.WriteValue(60, func(err error) { errc <- err })
	cmd := decodeCommand(t, client.nextPublish(t))

	ack := ackPayload(t, AckMessage{
		CommandID: cmd.ID,
		Status:    AckFailed,
		Error:     &AckError{Code: ErrCodeDeviceUnreachable, Message: "no response from dimmer"},
	})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), ack); err != nil {
		t.Fatalf("handleAck() error = %v", err)
	}

	err := waitErr(t, errc)
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("completion error = %v, want ErrCommandFailed", err)
	}
	if !strings.Contains(err.Error(), "no response from dimmer") {
		t.Errorf("error = %v, want device message", err)
	}
	if brightness.Value() != 10 {
		t.Errorf("Value() = %v, want unchanged 10", brightness.Value())
	}
	if b.Stats().Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", b.Stats().Failed)
	}
}

func TestWrite_QueuedThenAccepted(t *testing.T) {
	_, client, _, brightness := startBridge(t, time.Second)

	errc := make(chan error, 1)
	brightness.WriteValue(20, func(err error) { errc <- err })
	cmd := decodeCommand(t, client.nextPublish(t))

	queued := ackPayload(t, AckMessage{CommandID: cmd.ID, Status: AckQueued})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), queued); err != nil {
		t.Fatalf("handleAck(queued) error = %v", err)
	}

	select {
	case err := <-errc:
		t.Fatalf("completion after queued ack: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	accepted := ackPayload(t, AckMessage{CommandID: cmd.ID, Status: AckAccepted})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), accepted); err != nil {
		t.Fatalf("handleAck(accepted) error = %v", err)
	}
	if err := waitErr(t, errc); err != nil {
		t.Errorf("completion error = %v", err)
	}
}

func TestWrite_AckTimeout(t *testing.T) {
	b, client, _, brightness := startBridge(t, 20*time.Millisecond)

	var calls atomic.Int32
	errc := make(chan error, 2)
	brightness.WriteValue(90, func(err error) {
		calls.Add(1)
		errc <- err
	})
	cmd := decodeCommand(t, client.nextPublish(t))

	if err := waitErr(t, errc); !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("completion error = %v, want ErrAckTimeout", err)
	}

	// A late ack is ignored.
	late := ackPayload(t, AckMessage{CommandID: cmd.ID, Status: AckAccepted})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), late); err != nil {
		t.Fatalf("handleAck(late) error = %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("completion ran %d times, want 1", got)
	}
	if brightness.Value() != 10 {
		t.Errorf("Value() = %v, want unchanged 10", brightness.Value())
	}
	if b.Stats().TimedOut != 1 {
		t.Errorf("Stats().TimedOut = %d, want 1", b.Stats().TimedOut)
	}
}

func TestWrite_PublishError(t *testing.T) {
	b, client, _, brightness := startBridge(t, time.Second)
	brokerDown := errors.New("broker down")
	client.publishErr = brokerDown

	errc := make(chan error, 1)
	brightness.WriteValue(30, func(err error) { errc <- err })
	client.nextPublish(t)

	if err := waitErr(t, errc); !errors.Is(err, brokerDown) {
		t.Errorf("completion error = %v, want wrapped broker error", err)
	}
	if b.Stats().Pending != 0 {
		t.Errorf("Stats().Pending = %d, want 0", b.Stats().Pending)
	}
}

func TestWrite_NotStarted(t *testing.T) {
	b, err := New(Options{Client: newFakeClient(), Topics: topics})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	errc := make(chan error, 1)
	b.Write(memhost.WriteRequest{AccessoryID: "lamp", CharacteristicType: host.CharacteristicPowerState, Value: true},
		func(err error) { errc <- err })

	if err := waitErr(t, errc); !errors.Is(err, ErrNotStarted) {
		t.Errorf("completion error = %v, want ErrNotStarted", err)
	}
}

func TestHandleAck_Invalid(t *testing.T) {
	b, client, _, _ := startBridge(t, time.Second)

	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), []byte("{not json")); err == nil {
		t.Error("handleAck() expected error for invalid JSON")
	}
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), []byte(`{"status":"accepted"}`)); err == nil {
		t.Error("handleAck() expected error for missing command_id")
	}

	unknown := ackPayload(t, AckMessage{CommandID: "nope", Status: AckAccepted})
	if err := client.deliver(t, topics.AllAcks(), topics.Ack("lamp"), unknown); err != nil {
		t.Errorf("handleAck(unknown) error = %v, want nil", err)
	}
	if b.Stats().Accepted != 0 {
		t.Errorf("Stats().Accepted = %d, want 0", b.Stats().Accepted)
	}
}

func TestHandleState(t *testing.T) {
	b, client, g, brightness := startBridge(t, time.Second)

	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
		wantAny bool
	}{
		{name: "friendly name", topic: topics.State("lamp"), payload: `{"characteristic":"brightness","value":33}`},
		{name: "accessory in payload", topic: topics.State("other"), payload: `{"accessory_id":"lamp","characteristic":"8","value":34}`},
		{name: "unknown accessory", topic: topics.State("ghost"), payload: `{"characteristic":"on","value":true}`, wantErr: memhost.ErrAccessoryNotFound},
		{name: "unknown characteristic", topic: topics.State("lamp"), payload: `{"characteristic":"hue","value":1}`, wantErr: memhost.ErrCharacteristicNotFound},
		{name: "wrong value type", topic: topics.State("lamp"), payload: `{"characteristic":"brightness","value":"dim"}`, wantErr: memhost.ErrInvalidValue},
		{name: "missing characteristic", topic: topics.State("lamp"), payload: `{"value":1}`, wantAny: true},
		{name: "invalid json", topic: topics.State("lamp"), payload: `[`, wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.deliver(t, topics.AllStates(), tt.topic, []byte(tt.payload))
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("handleState() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil {
					t.Error("handleState() expected error")
				}
			default:
				if err != nil {
					t.Errorf("handleState() error = %v", err)
				}
			}
		})
	}

	if brightness.Value() != 34 {
		t.Errorf("Value() = %v, want 34", brightness.Value())
	}
	if b.Stats().StateUpdates != 2 {
		t.Errorf("Stats().StateUpdates = %d, want 2", b.Stats().StateUpdates)
	}

	lamp, _ := g.Accessory("lamp")
	on, _ := lamp.Characteristic(host.CharacteristicPowerState)
	if err := client.deliver(t, topics.AllStates(), topics.State("lamp"), []byte(`{"characteristic":"on","value":1}`)); err != nil {
		t.Fatalf("handleState(on=1) error = %v", err)
	}
	if on.Value() != true {
		t.Errorf("on Value() = %v, want true", on.Value())
	}
}

func TestStop_AbandonsPending(t *testing.T) {
	b, client, _, brightness := startBridge(t, time.Minute)

	errc := make(chan error, 1)
	brightness.WriteValue(50, func(err error) { errc <- err })
	client.nextPublish(t)

	b.Stop()

	if err := waitErr(t, errc); !errors.Is(err, ErrStopped) {
		t.Errorf("completion error = %v, want ErrStopped", err)
	}

	unsub := client.unsubscribedTopics()
	if len(unsub) != 2 {
		t.Errorf("unsubscribed = %v, want ack and state patterns", unsub)
	}

	brightness.WriteValue(60, func(err error) { errc <- err })
	if err := waitErr(t, errc); !errors.Is(err, ErrNotStarted) {
		t.Errorf("write after Stop error = %v, want ErrNotStarted", err)
	}

	// Stop is idempotent.
	b.Stop()
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	client := newFakeClient()
	b, err := New(Options{Client: client, Topics: topics})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(waitTimeout)
	for len(client.unsubscribedTopics()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("bridge did not stop after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
