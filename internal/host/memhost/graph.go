package memhost

import (
	"fmt"
	"sync"

	"github.com/nerrad567/homegraph/internal/host"
)

// Graph is the root of an in-memory host object graph. It implements
// host.HomeManager.
type Graph struct {
	homes       []*Home
	accessories map[string]*Accessory

	writer   Writer
	writerMu sync.RWMutex

	observers   []Observer
	observersMu sync.RWMutex
}

// Change describes a cached value replaced by an accepted write or a
// device report.
type Change struct {
	AccessoryID    string
	ServiceType    host.ServiceType
	Characteristic host.CharacteristicType
	Value          any
}

// Observer receives value changes. It runs on the goroutine that stored the
// value and must not block.
type Observer func(Change)

// Observe registers fn for every subsequent value change.
func (g *Graph) Observe(fn Observer) {
	if fn == nil {
		return
	}
	g.observersMu.Lock()
	g.observers = append(g.observers, fn)
	g.observersMu.Unlock()
}

func (g *Graph) notify(ch Change) {
	g.observersMu.RLock()
	observers := g.observers
	g.observersMu.RUnlock()

	for _, fn := range observers {
		fn(ch)
	}
}

// New creates an empty graph. A nil writer selects Loopback.
func New(w Writer) *Graph {
	if w == nil {
		w = Loopback{}
	}
	return &Graph{
		accessories: make(map[string]*Accessory),
		writer:      w,
	}
}

// SetWriter replaces the transport used for characteristic writes. Writes
// already in flight complete on the old writer.
func (g *Graph) SetWriter(w Writer) {
	if w == nil {
		w = Loopback{}
	}
	g.writerMu.Lock()
	g.writer = w
	g.writerMu.Unlock()
}

func (g *Graph) currentWriter() Writer {
	g.writerMu.RLock()
	defer g.writerMu.RUnlock()
	return g.writer
}

// Homes returns every home in insertion order.
func (g *Graph) Homes() []host.Home {
	out := make([]host.Home, len(g.homes))
	for i, h := range g.homes {
		out[i] = h
	}
	return out
}

// AddHome appends a new home.
func (g *Graph) AddHome(id, name string) *Home {
	h := &Home{id: id, name: name, graph: g}
	g.homes = append(g.homes, h)
	return h
}

// Accessory looks up an accessory by ID across all homes.
func (g *Graph) Accessory(id string) (*Accessory, bool) {
	a, ok := g.accessories[id]
	return a, ok
}

// UpdateValue stores a device-reported value on the first characteristic of
// the given type on the accessory. The value is normalised to the
// characteristic's format.
func (g *Graph) UpdateValue(accessoryID string, t host.CharacteristicType, value any) error {
	acc, ok := g.accessories[accessoryID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccessoryNotFound, accessoryID)
	}
	c, ok := acc.Characteristic(t)
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrCharacteristicNotFound, t, accessoryID)
	}
	return c.Store(value)
}

// Home is an in-memory host.Home.
type Home struct {
	id          string
	name        string
	rooms       []*Room
	accessories []*Accessory
	graph       *Graph
}

// ID returns the home identifier.
func (h *Home) ID() string { return h.id }

// Name returns the display name.
func (h *Home) Name() string { return h.name }

// Rooms returns the home's rooms in insertion order.
func (h *Home) Rooms() []host.Room {
	out := make([]host.Room, len(h.rooms))
	for i, r := range h.rooms {
		out[i] = r
	}
	return out
}

// Accessories returns the home's accessories in insertion order.
func (h *Home) Accessories() []host.Accessory {
	out := make([]host.Accessory, len(h.accessories))
	for i, a := range h.accessories {
		out[i] = a
	}
	return out
}

// AddRoom appends a room to the home.
func (h *Home) AddRoom(id, name string) *Room {
	r := &Room{id: id, name: name}
	h.rooms = append(h.rooms, r)
	return r
}

// AddAccessory appends an accessory. room may be nil for unassigned
// accessories.
func (h *Home) AddAccessory(id, name string, category host.Category, room *Room) *Accessory {
	a := &Accessory{id: id, name: name, category: category, room: room, graph: h.graph}
	h.accessories = append(h.accessories, a)
	h.graph.accessories[id] = a
	return a
}

// Room is an in-memory host.Room.
type Room struct {
	id   string
	name string
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Name returns the display name.
func (r *Room) Name() string { return r.name }

// Accessory is an in-memory host.Accessory.
type Accessory struct {
	id       string
	name     string
	category host.Category
	room     *Room
	services []*Service
	graph    *Graph
}

// ID returns the accessory identifier.
func (a *Accessory) ID() string { return a.id }

// Name returns the display name.
func (a *Accessory) Name() string { return a.name }

// Category returns the accessory category.
func (a *Accessory) Category() host.Category { return a.category }

// Room returns the assigned room, or nil.
func (a *Accessory) Room() host.Room {
	if a.room == nil {
		return nil
	}
	return a.room
}

// Services returns the accessory's services in insertion order.
func (a *Accessory) Services() []host.Service {
	out := make([]host.Service, len(a.services))
	for i, s := range a.services {
		out[i] = s
	}
	return out
}

// AddService appends a service.
func (a *Accessory) AddService(t host.ServiceType, name string) *Service {
	s := &Service{typ: t, name: name, accessory: a}
	a.services = append(a.services, s)
	return s
}

// Characteristic returns the first characteristic of type t across all of
// the accessory's services.
func (a *Accessory) Characteristic(t host.CharacteristicType) (*Characteristic, bool) {
	for _, s := range a.services {
		for _, c := range s.chars {
			if c.typ == t {
				return c, true
			}
		}
	}
	return nil, false
}

// Service is an in-memory host.Service.
type Service struct {
	typ       host.ServiceType
	name      string
	chars     []*Characteristic
	accessory *Accessory
}

// Type returns the service type tag.
func (s *Service) Type() host.ServiceType { return s.typ }

// Name returns the display name.
func (s *Service) Name() string { return s.name }

// Characteristics returns the service's characteristics in insertion order.
func (s *Service) Characteristics() []host.Characteristic {
	out := make([]host.Characteristic, len(s.chars))
	for i, c := range s.chars {
		out[i] = c
	}
	return out
}

// AddCharacteristic appends a writable characteristic. initial is
// normalised to format; an unrepresentable initial value is an error.
func (s *Service) AddCharacteristic(t host.CharacteristicType, format Format, initial any) (*Characteristic, error) {
	v, err := format.Normalize(initial)
	if err != nil {
		return nil, fmt.Errorf("characteristic %s on %s: %w", t, s.accessory.id, err)
	}
	c := &Characteristic{
		typ:      t,
		format:   format,
		writable: true,
		value:    v,
		service:  s,
	}
	s.chars = append(s.chars, c)
	return c, nil
}
