package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/mqtt"
)

// DefaultAckTimeout applies when Options.AckTimeout is zero.
const DefaultAckTimeout = 10 * time.Second

// MQTTClient is the subset of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// StateSink stores device-reported values. *memhost.Graph implements it.
type StateSink interface {
	UpdateValue(accessoryID string, t host.CharacteristicType, value any) error
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Bridge.
type Options struct {
	// Client is required.
	Client MQTTClient

	// Sink receives state reports. Optional; without it state messages
	// are dropped.
	Sink StateSink

	// Topics defaults to mqtt.NewTopics("").
	Topics mqtt.Topics

	QoS        byte
	AckTimeout time.Duration
	Logger     Logger
}

// Stats counts bridge traffic since Start.
type Stats struct {
	Published    uint64
	Accepted     uint64
	Failed       uint64
	TimedOut     uint64
	StateUpdates uint64
	Pending      int
}

type pendingCommand struct {
	accessoryID string
	done        host.Completion
	timer       *time.Timer
}

// Bridge implements memhost.Writer over MQTT.
//
// All methods are safe for concurrent use. Each command's completion runs
// at most once: on its ack, its timeout, a publish failure, or Stop.
type Bridge struct {
	client     MQTTClient
	sink       StateSink
	topics     mqtt.Topics
	qos        byte
	ackTimeout time.Duration
	logger     Logger

	pending map[string]*pendingCommand
	running bool
	mu      sync.Mutex

	wg       sync.WaitGroup
	stopOnce sync.Once

	published    atomic.Uint64
	accepted     atomic.Uint64
	failed       atomic.Uint64
	timedOut     atomic.Uint64
	stateUpdates atomic.Uint64
}

var _ memhost.Writer = (*Bridge)(nil)

// New creates a bridge. Call Start before writing.
func New(opts Options) (*Bridge, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.QoS > 2 {
		return nil, mqtt.ErrInvalidQoS
	}

	b := &Bridge{
		client:     opts.Client,
		sink:       opts.Sink,
		topics:     opts.Topics,
		qos:        opts.QoS,
		ackTimeout: opts.AckTimeout,
		logger:     opts.Logger,
		pending:    make(map[string]*pendingCommand),
	}
	if b.topics.Prefix == "" {
		b.topics = mqtt.NewTopics("")
	}
	if b.ackTimeout <= 0 {
		b.ackTimeout = DefaultAckTimeout
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	return b, nil
}

// Start subscribes to acknowledgement and state topics. The bridge stops
// when ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.client.Subscribe(b.topics.AllAcks(), b.qos, b.handleAck); err != nil {
		return fmt.Errorf("subscribe to acks: %w", err)
	}
	if err := b.client.Subscribe(b.topics.AllStates(), b.qos, b.handleState); err != nil {
		b.client.Unsubscribe(b.topics.AllAcks()) //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("subscribe to state: %w", err)
	}

	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	b.logger.Info("bridge started", "prefix", b.topics.Prefix, "ack_timeout", b.ackTimeout)
	return nil
}

// Stop unsubscribes and completes every pending command with ErrStopped.
// Further writes fail with ErrNotStarted.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.running = false
		pending := b.pending
		b.pending = make(map[string]*pendingCommand)
		b.mu.Unlock()

		for _, topic := range []string{b.topics.AllAcks(), b.topics.AllStates()} {
			if err := b.client.Unsubscribe(topic); err != nil {
				b.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			}
		}

		for id, p := range pending {
			p.timer.Stop()
			p.done(fmt.Errorf("%w: command %s for %s abandoned", ErrStopped, id, p.accessoryID))
		}

		b.wg.Wait()
		b.logger.Info("bridge stopped", "abandoned", len(pending))
	})
}

// Write publishes req as a command and completes done when the device
// acknowledges it. It returns immediately; done runs on another goroutine.
func (b *Bridge) Write(req memhost.WriteRequest, done host.Completion) {
	if done == nil {
		done = func(error) {}
	}

	cmd := NewCommandMessage(req)
	payload, err := json.Marshal(cmd)
	if err != nil {
		go done(fmt.Errorf("encoding command: %w", err))
		return
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		go done(ErrNotStarted)
		return
	}
	// Register before publishing; the ack can beat Publish's return.
	b.pending[cmd.ID] = &pendingCommand{
		accessoryID: cmd.AccessoryID,
		done:        done,
		timer: time.AfterFunc(b.ackTimeout, func() {
			if b.complete(cmd.ID, fmt.Errorf("%w: command %s for %s after %v", ErrAckTimeout, cmd.ID, cmd.AccessoryID, b.ackTimeout)) {
				b.timedOut.Add(1)
				b.logger.Warn("command timed out", "command_id", cmd.ID, "accessory_id", cmd.AccessoryID)
			}
		}),
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		if err := b.client.Publish(b.topics.Command(cmd.AccessoryID), payload, b.qos, false); err != nil {
			if b.complete(cmd.ID, fmt.Errorf("publishing command: %w", err)) {
				b.failed.Add(1)
			}
			return
		}
		b.published.Add(1)
		b.logger.Debug("command published",
			"command_id", cmd.ID,
			"accessory_id", cmd.AccessoryID,
			"characteristic", cmd.Characteristic)
	}()
}

// complete removes a pending command and runs its completion. It reports
// false when the command was already completed.
func (b *Bridge) complete(id string, err error) bool {
	b.mu.Lock()
	p, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()

	if !ok {
		return false
	}
	p.timer.Stop()
	p.done(err)
	return true
}

// handleAck completes the command an acknowledgement refers to.
func (b *Bridge) handleAck(topic string, payload []byte) error {
	var ack AckMessage
	if err := decodeJSON(payload, &ack); err != nil {
		return fmt.Errorf("decoding ack on %s: %w", topic, err)
	}
	if ack.CommandID == "" {
		return fmt.Errorf("ack on %s has no command_id", topic)
	}
	if !ack.Status.Terminal() {
		b.logger.Debug("command queued", "command_id", ack.CommandID)
		return nil
	}

	err := ack.err()
	if !b.complete(ack.CommandID, err) {
		b.logger.Debug("ack for unknown command", "command_id", ack.CommandID, "topic", topic)
		return nil
	}

	switch {
	case err == nil:
		b.accepted.Add(1)
	case errors.Is(err, ErrAckTimeout):
		b.timedOut.Add(1)
	default:
		b.failed.Add(1)
	}
	return nil
}

// handleState stores a device-reported value. The accessory ID in the
// payload wins over the one in the topic.
func (b *Bridge) handleState(topic string, payload []byte) error {
	var msg StateMessage
	if err := decodeJSON(payload, &msg); err != nil {
		return fmt.Errorf("decoding state on %s: %w", topic, err)
	}

	accessoryID := msg.AccessoryID
	if accessoryID == "" {
		id, ok := b.topics.AccessoryID(topic)
		if !ok {
			return fmt.Errorf("state on %s has no accessory_id", topic)
		}
		accessoryID = id
	}
	if msg.Characteristic == "" {
		return fmt.Errorf("state for %s has no characteristic", accessoryID)
	}
	if b.sink == nil {
		return nil
	}

	t := host.ParseCharacteristicType(msg.Characteristic)
	if err := b.sink.UpdateValue(accessoryID, t, msg.Value); err != nil {
		return fmt.Errorf("storing state for %s: %w", accessoryID, err)
	}
	b.stateUpdates.Add(1)
	return nil
}

// Stats returns traffic counters and the number of pending commands.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	pending := len(b.pending)
	b.mu.Unlock()

	return Stats{
		Published:    b.published.Load(),
		Accepted:     b.accepted.Load(),
		Failed:       b.failed.Load(),
		TimedOut:     b.timedOut.Load(),
		StateUpdates: b.stateUpdates.Load(),
		Pending:      pending,
	}
}
