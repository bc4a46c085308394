package home

import "github.com/nerrad567/homegraph/internal/host"

// Home is the domain view of a host home.
type Home struct {
	ID   string
	Name string

	handle host.Home
}

// NewHome converts a host home.
func NewHome(h host.Home) Home {
	return Home{ID: h.ID(), Name: h.Name(), handle: h}
}

// Handle returns the wrapped host home. It is nil for a zero Home.
func (h Home) Handle() host.Home { return h.handle }

// Room is the domain view of a host room. Rooms are identified by ID.
type Room struct {
	ID   string
	Name string

	handle host.Room
}

// NewRoom converts a host room.
func NewRoom(r host.Room) Room {
	return Room{ID: r.ID(), Name: r.Name(), handle: r}
}

// Handle returns the wrapped host room. It is nil for a zero Room.
func (r Room) Handle() host.Room { return r.handle }

// Light is the domain view of an accessory believed to be a light. Each
// adapter is nil when the accessory's lightbulb service lacks the matching
// characteristic.
type Light struct {
	ID     string
	Name   string
	RoomID string

	Brightness *Brightness
	Power      *Power
	Color      *Color

	handle host.Accessory
}

// NewLight converts an accessory and attaches the adapters found on its
// first lightbulb service.
func NewLight(a host.Accessory) Light {
	l := Light{ID: a.ID(), Name: a.Name(), handle: a}
	if r := a.Room(); r != nil {
		l.RoomID = r.ID()
	}

	svc, ok := LightService(a.Services())
	if !ok {
		return l
	}
	chars := svc.Characteristics()
	l.Brightness, _ = BrightnessOf(chars)
	l.Power, _ = PowerOf(chars)
	l.Color, _ = ColorOf(chars)
	return l
}

// Handle returns the wrapped host accessory.
func (l Light) Handle() host.Accessory { return l.handle }
