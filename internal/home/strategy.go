package home

import "github.com/nerrad567/homegraph/internal/host"

// HomesByRoomStrategy decides whether a home contains a room.
type HomesByRoomStrategy interface {
	Contains(h host.Home, room Room) bool
}

// LightbulbsByRoomStrategy decides whether an accessory is a lightbulb in a
// room.
type LightbulbsByRoomStrategy interface {
	Matches(a host.Accessory, room Room) bool
}

// HomesByRoomFunc adapts a function to HomesByRoomStrategy.
type HomesByRoomFunc func(h host.Home, room Room) bool

// Contains calls f(h, room).
func (f HomesByRoomFunc) Contains(h host.Home, room Room) bool { return f(h, room) }

// LightbulbsByRoomFunc adapts a function to LightbulbsByRoomStrategy.
type LightbulbsByRoomFunc func(a host.Accessory, room Room) bool

// Matches calls f(a, room).
func (f LightbulbsByRoomFunc) Matches(a host.Accessory, room Room) bool { return f(a, room) }

// RoomMembership is the default HomesByRoomStrategy: a home contains a room
// when one of its rooms has the same ID.
type RoomMembership struct{}

// Contains reports whether h has a room with room's ID.
func (RoomMembership) Contains(h host.Home, room Room) bool {
	for _, r := range h.Rooms() {
		if r.ID() == room.ID {
			return true
		}
	}
	return false
}

// LightbulbsInRoom is the default LightbulbsByRoomStrategy: the accessory
// is in the lightbulb category and assigned to a room with room's ID.
type LightbulbsInRoom struct{}

// Matches reports whether a is a lightbulb assigned to room.
func (LightbulbsInRoom) Matches(a host.Accessory, room Room) bool {
	if !isLightbulb(a) {
		return false
	}
	r := a.Room()
	return r != nil && r.ID() == room.ID
}
