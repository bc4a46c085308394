package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
)

// CommandMessage asks a device bridge to write one characteristic.
//
// Published on {prefix}/command/{accessory_id}.
type CommandMessage struct {
	// ID correlates the command with its AckMessage (UUIDv4).
	ID string `json:"id"`

	Timestamp      time.Time               `json:"timestamp"`
	AccessoryID    string                  `json:"accessory_id"`
	Service        host.ServiceType        `json:"service"`
	Characteristic host.CharacteristicType `json:"characteristic"`
	Value          any                     `json:"value"`
}

// AckStatus is the outcome reported for a command.
type AckStatus string

const (
	// AckAccepted means the device applied the value.
	AckAccepted AckStatus = "accepted"

	// AckQueued means the bridge will apply the value later. Not terminal.
	AckQueued AckStatus = "queued"

	// AckFailed means the device rejected the command.
	AckFailed AckStatus = "failed"

	// AckTimeout means the bridge gave up waiting for the device.
	AckTimeout AckStatus = "timeout"
)

// Terminal reports whether the status completes a command.
func (s AckStatus) Terminal() bool {
	return s == AckAccepted || s == AckFailed || s == AckTimeout
}

// AckMessage is a device bridge's answer to a CommandMessage.
//
// Received on {prefix}/ack/{accessory_id}.
type AckMessage struct {
	CommandID   string    `json:"command_id"`
	Timestamp   time.Time `json:"timestamp"`
	AccessoryID string    `json:"accessory_id"`
	Status      AckStatus `json:"status"`
	Error       *AckError `json:"error,omitempty"`
}

// AckError describes a failed command.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes reported in AckError.Code.
const (
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeNotSupported      = "NOT_SUPPORTED"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// StateMessage reports a characteristic value changed on the device side.
//
// Received on {prefix}/state/{accessory_id}. Characteristic accepts a HAP
// short code or a friendly name.
type StateMessage struct {
	AccessoryID    string    `json:"accessory_id"`
	Timestamp      time.Time `json:"timestamp"`
	Characteristic string    `json:"characteristic"`
	Value          any       `json:"value"`
}

// NewCommandMessage builds a command for a characteristic write with a
// fresh command ID.
func NewCommandMessage(req memhost.WriteRequest) CommandMessage {
	return CommandMessage{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		AccessoryID:    req.AccessoryID,
		Service:        req.ServiceType,
		Characteristic: req.CharacteristicType,
		Value:          req.Value,
	}
}

// err converts a terminal ack into the error its command completes with.
func (m AckMessage) err() error {
	switch m.Status {
	case AckAccepted:
		return nil
	case AckTimeout:
		return fmt.Errorf("%w: device did not respond to command %s", ErrAckTimeout, m.CommandID)
	}
	if m.Error == nil {
		return fmt.Errorf("%w: command %s", ErrCommandFailed, m.CommandID)
	}
	return fmt.Errorf("%w: %s: %s", ErrCommandFailed, m.Error.Code, m.Error.Message)
}

// decodeJSON unmarshals payload keeping numbers as json.Number so integer
// values survive exactly.
func decodeJSON(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	return dec.Decode(v)
}
