package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "homegraph"

// Topic categories below the prefix.
const (
	categoryCommand = "command"
	categoryAck     = "ack"
	categoryState   = "state"
	categorySystem  = "system"
)

// Topics builds homegraph MQTT topics under a prefix.
//
//	topics := mqtt.NewTopics("homegraph")
//	topics.Command("kitchen-ceiling")
//	// Returns: "homegraph/command/kitchen-ceiling"
type Topics struct {
	Prefix string
}

// NewTopics returns a builder for prefix, falling back to
// DefaultTopicPrefix when prefix is empty. Trailing slashes are dropped.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

// Command returns the topic characteristic writes are published on.
//
// Example: homegraph/command/kitchen-ceiling
func (t Topics) Command(accessoryID string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, categoryCommand, accessoryID)
}

// Ack returns the topic a bridge acknowledges commands on.
//
// Example: homegraph/ack/kitchen-ceiling
func (t Topics) Ack(accessoryID string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, categoryAck, accessoryID)
}

// State returns the topic a bridge reports device state on.
//
// Example: homegraph/state/kitchen-ceiling
func (t Topics) State(accessoryID string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, categoryState, accessoryID)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: homegraph/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/%s/status", t.Prefix, categorySystem)
}

// AllAcks matches every acknowledgement.
//
// Pattern: homegraph/ack/+
func (t Topics) AllAcks() string {
	return fmt.Sprintf("%s/%s/+", t.Prefix, categoryAck)
}

// AllStates matches every state report.
//
// Pattern: homegraph/state/+
func (t Topics) AllStates() string {
	return fmt.Sprintf("%s/%s/+", t.Prefix, categoryState)
}

// AccessoryID extracts the accessory ID from a command, ack or state topic.
// It reports false for topics outside the prefix or with an empty ID.
func (t Topics) AccessoryID(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	category, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	switch category {
	case categoryCommand, categoryAck, categoryState:
		return id, true
	default:
		return "", false
	}
}
