package home

import (
	"sync"

	"github.com/nerrad567/homegraph/internal/host"
)

// fakeCharacteristic is a test double for host.Characteristic. Writes are
// recorded and completed synchronously with err, repeated completions
// times.
type fakeCharacteristic struct {
	typ   host.CharacteristicType
	value any

	mu          sync.Mutex
	writes      []any
	err         error
	completions int
}

func (c *fakeCharacteristic) Type() host.CharacteristicType { return c.typ }
func (c *fakeCharacteristic) Value() any                    { return c.value }

func (c *fakeCharacteristic) WriteValue(v any, done host.Completion) {
	c.mu.Lock()
	c.writes = append(c.writes, v)
	n := c.completions
	c.mu.Unlock()
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		done(c.err)
	}
}

func (c *fakeCharacteristic) written() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.writes...)
}

type fakeService struct {
	typ   host.ServiceType
	chars []host.Characteristic
}

func (s *fakeService) Type() host.ServiceType                 { return s.typ }
func (s *fakeService) Name() string                           { return string(s.typ) }
func (s *fakeService) Characteristics() []host.Characteristic { return s.chars }

type fakeRoom struct {
	id, name string
}

func (r *fakeRoom) ID() string   { return r.id }
func (r *fakeRoom) Name() string { return r.name }

type fakeAccessory struct {
	id       string
	category host.Category
	room     host.Room
	services []host.Service
}

func (a *fakeAccessory) ID() string               { return a.id }
func (a *fakeAccessory) Name() string             { return a.id }
func (a *fakeAccessory) Category() host.Category  { return a.category }
func (a *fakeAccessory) Room() host.Room          { return a.room }
func (a *fakeAccessory) Services() []host.Service { return a.services }

type fakeHome struct {
	id          string
	rooms       []host.Room
	accessories []host.Accessory
}

func (h *fakeHome) ID() string                    { return h.id }
func (h *fakeHome) Name() string                  { return h.id }
func (h *fakeHome) Rooms() []host.Room            { return h.rooms }
func (h *fakeHome) Accessories() []host.Accessory { return h.accessories }

type fakeManager struct {
	homes []host.Home
}

func (m *fakeManager) Homes() []host.Home { return m.homes }

// bulb builds a lightbulb accessory with power, brightness and hue.
func bulb(id string, room host.Room) *fakeAccessory {
	return &fakeAccessory{
		id:       id,
		category: host.CategoryLightbulb,
		room:     room,
		services: []host.Service{
			&fakeService{typ: host.ServiceAccessoryInformation},
			&fakeService{
				typ: host.ServiceLightbulb,
				chars: []host.Characteristic{
					&fakeCharacteristic{typ: host.CharacteristicPowerState, value: true},
					&fakeCharacteristic{typ: host.CharacteristicBrightness, value: 50},
					&fakeCharacteristic{typ: host.CharacteristicHue, value: 180},
				},
			},
		},
	}
}

// testHomes returns two homes where only the second contains the kitchen.
func testHomes() (first, second *fakeHome, kitchen *fakeRoom) {
	lounge := &fakeRoom{id: "lounge", name: "Lounge"}
	kitchen = &fakeRoom{id: "kitchen", name: "Kitchen"}
	pantry := &fakeRoom{id: "pantry", name: "Pantry"}

	first = &fakeHome{
		id:          "cabin",
		rooms:       []host.Room{lounge},
		accessories: []host.Accessory{bulb("lounge-lamp", lounge)},
	}
	second = &fakeHome{
		id:    "house",
		rooms: []host.Room{kitchen, pantry},
		accessories: []host.Accessory{
			bulb("kitchen-ceiling", kitchen),
			&fakeAccessory{id: "kitchen-plug", category: host.CategoryOutlet, room: kitchen},
			bulb("pantry-light", pantry),
			bulb("unassigned", nil),
		},
	}
	return first, second, kitchen
}
