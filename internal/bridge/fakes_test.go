package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/mqtt"
)

const waitTimeout = 2 * time.Second

type publishRecord struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// fakeClient records MQTT traffic and lets tests deliver messages to the
// bridge's handlers.
type fakeClient struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	subscribeErr map[string]error
	publishErr   error

	published chan publishRecord
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:     make(map[string]mqtt.MessageHandler),
		subscribeErr: make(map[string]error),
		published:    make(chan publishRecord, 16),
	}
}

func (f *fakeClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	err := f.publishErr
	f.mu.Unlock()

	f.published <- publishRecord{topic: topic, payload: payload, qos: qos, retained: retained}
	return err
}

func (f *fakeClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.subscribeErr[topic]; err != nil {
		return err
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeClient) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

// deliver hands payload to the handler subscribed on pattern.
func (f *fakeClient) deliver(t *testing.T, pattern, topic string, payload []byte) error {
	t.Helper()
	f.mu.Lock()
	h, ok := f.handlers[pattern]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed on %s", pattern)
	}
	return h(topic, payload)
}

func (f *fakeClient) subscribed(pattern string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[pattern]
	return ok
}

func (f *fakeClient) unsubscribedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unsubscribed...)
}

// nextPublish waits for the next published message.
func (f *fakeClient) nextPublish(t *testing.T) publishRecord {
	t.Helper()
	select {
	case p := <-f.published:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for publish")
		return publishRecord{}
	}
}

// testGraph builds a graph with one dimmable lamp.
func testGraph(t *testing.T) (*memhost.Graph, *memhost.Characteristic) {
	t.Helper()
	g := memhost.New(nil)
	home := g.AddHome("home-1", "Home")
	room := home.AddRoom("lounge", "Lounge")
	lamp := home.AddAccessory("lamp", "Lamp", host.CategoryLightbulb, room)
	svc := lamp.AddService(host.ServiceLightbulb, "Light")
	if _, err := svc.AddCharacteristic(host.CharacteristicPowerState, memhost.FormatBool, false); err != nil {
		t.Fatalf("AddCharacteristic(on) error = %v", err)
	}
	brightness, err := svc.AddCharacteristic(host.CharacteristicBrightness, memhost.FormatInt, 10)
	if err != nil {
		t.Fatalf("AddCharacteristic(brightness) error = %v", err)
	}
	return g, brightness
}

// waitErr waits for a completion result.
func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for completion")
		return nil
	}
}
