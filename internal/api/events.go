package api

import (
	"github.com/nerrad567/homegraph/internal/host/memhost"
)

// WebSocket event channels.
const (
	// ChannelLightState carries the full light view after any of its
	// values changes.
	ChannelLightState = "light.state_changed"

	// ChannelValue carries raw value changes for every accessory,
	// lights included.
	ChannelValue = "characteristic.changed"
)

// valueEvent is the payload of ChannelValue.
type valueEvent struct {
	AccessoryID    string `json:"accessory_id"`
	Service        string `json:"service"`
	Characteristic string `json:"characteristic"`
	Value          any    `json:"value"`
}

// watchChanges registers the hub with the change source. Safe to call more
// than once.
func (s *Server) watchChanges() {
	if s.changes == nil {
		return
	}
	s.watch.Do(func() {
		s.changes.Observe(s.publishChange)
	})
}

// publishChange runs on the goroutine that stored the value; Broadcast
// never blocks.
func (s *Server) publishChange(c memhost.Change) {
	s.hub.Broadcast(ChannelValue, c.AccessoryID, valueEvent{
		AccessoryID:    c.AccessoryID,
		Service:        string(c.ServiceType),
		Characteristic: string(c.Characteristic),
		Value:          c.Value,
	})

	if l, ok := s.dir.Light(c.AccessoryID); ok {
		s.hub.Broadcast(ChannelLightState, c.AccessoryID, newLightView(l))
	}
}
