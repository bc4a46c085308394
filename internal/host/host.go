package host

// Completion receives the outcome of an asynchronous write: nil on success,
// the transport's error otherwise.
type Completion func(err error)

// Characteristic is a single readable and writable attribute of a device.
type Characteristic interface {
	Type() CharacteristicType

	// Value returns the last-known raw value, or nil if none is cached.
	// There is no freshness guarantee.
	Value() any

	// WriteValue asks the host to write value to the device. It returns
	// immediately; done is called from the host's own goroutine once the
	// host has an outcome.
	WriteValue(value any, done Completion)
}

// Service groups the characteristics of one function of an accessory.
type Service interface {
	Type() ServiceType
	Name() string
	Characteristics() []Characteristic
}

// Room is a sub-container of a home.
type Room interface {
	ID() string
	Name() string
}

// Accessory is a physical device.
type Accessory interface {
	ID() string
	Name() string
	Category() Category

	// Room returns the room the accessory is assigned to, or nil.
	Room() Room

	Services() []Service
}

// Home is a top-level container.
type Home interface {
	ID() string
	Name() string
	Rooms() []Room
	Accessories() []Accessory
}

// HomeManager is the entry point into the host graph.
type HomeManager interface {
	Homes() []Home
}
