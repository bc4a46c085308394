package home

import "github.com/nerrad567/homegraph/internal/host"

// Logger defines the logging interface used by the Directory.
type Logger interface {
	Debug(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Directory answers home, room and light queries against a live host
// source. It holds no state of its own; every call re-reads the source.
type Directory struct {
	source host.HomeManager
	byRoom HomesByRoomStrategy
	bulbs  LightbulbsByRoomStrategy
	logger Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithHomesByRoom replaces the strategy deciding which home owns a room.
func WithHomesByRoom(s HomesByRoomStrategy) Option {
	return func(d *Directory) { d.byRoom = s }
}

// WithLightbulbsByRoom replaces the strategy deciding which accessories are
// lights in a room.
func WithLightbulbsByRoom(s LightbulbsByRoomStrategy) Option {
	return func(d *Directory) { d.bulbs = s }
}

// WithLogger sets a debug logger for lookups.
func WithLogger(l Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// NewDirectory creates a Directory over source using the default
// strategies unless overridden.
func NewDirectory(source host.HomeManager, opts ...Option) *Directory {
	d := &Directory{
		source: source,
		byRoom: RoomMembership{},
		bulbs:  LightbulbsInRoom{},
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Homes returns every home.
func (d *Directory) Homes() []Home {
	return ToHomes(d.source.Homes())
}

// HomeForRoom returns the first home containing room.
func (d *Directory) HomeForRoom(room Room) (Home, bool) {
	h, ok := HomeForRoom(d.source.Homes(), room, d.byRoom)
	if !ok {
		d.logger.Debug("no home contains room", "room_id", room.ID)
	}
	return h, ok
}

// Rooms returns the rooms of home, or an empty slice if it is unknown.
func (d *Directory) Rooms(home Home) []Room {
	return RoomsForHome(d.source.Homes(), home)
}

// Lights returns every light in home.
func (d *Directory) Lights(home Home) []Light {
	return LightsForHome(d.source.Homes(), home)
}

// LightsInRoom returns the lights assigned to room.
func (d *Directory) LightsInRoom(room Room) []Light {
	return LightsForRoom(d.source.Homes(), room, d.byRoom, d.bulbs)
}

// Light finds a light by accessory ID across all homes. Accessories outside
// the lightbulb category are not lights.
func (d *Directory) Light(id string) (Light, bool) {
	for _, h := range d.source.Homes() {
		for _, a := range h.Accessories() {
			if a.ID() == id && isLightbulb(a) {
				return NewLight(a), true
			}
		}
	}
	d.logger.Debug("light not found", "accessory_id", id)
	return Light{}, false
}
