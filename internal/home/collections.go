package home

import "github.com/nerrad567/homegraph/internal/host"

// Convert maps every element of in through fn, preserving order.
func Convert[H, D any](in []H, fn func(H) D) []D {
	out := make([]D, 0, len(in))
	for _, h := range in {
		out = append(out, fn(h))
	}
	return out
}

// ToHomes converts host homes to domain homes.
func ToHomes(homes []host.Home) []Home {
	return Convert(homes, NewHome)
}

// ToRooms converts host rooms to domain rooms.
func ToRooms(rooms []host.Room) []Room {
	return Convert(rooms, NewRoom)
}

// ToLights converts accessories to lights with their adapters attached.
func ToLights(accessories []host.Accessory) []Light {
	return Convert(accessories, NewLight)
}

// HomeForRoom returns the first home, in input order, that strategy reports
// as containing room.
func HomeForRoom(homes []host.Home, room Room, strategy HomesByRoomStrategy) (Home, bool) {
	for _, h := range homes {
		if strategy.Contains(h, room) {
			return NewHome(h), true
		}
	}
	return Home{}, false
}

// RoomsForHome returns the rooms of the first home whose ID matches. The
// result is empty, never nil, when the home is not in homes.
func RoomsForHome(homes []host.Home, home Home) []Room {
	h, ok := findHome(homes, home.ID)
	if !ok {
		return []Room{}
	}
	return ToRooms(h.Rooms())
}

// LightsForHome returns every lighting-category accessory of the first home
// whose ID matches, as lights.
func LightsForHome(homes []host.Home, home Home) []Light {
	h, ok := findHome(homes, home.ID)
	if !ok {
		return []Light{}
	}
	return ToLights(filter(h.Accessories(), isLightbulb))
}

// LightsForRoom resolves the home containing room and returns the
// lighting-category accessories of that home which bulbs matches for room.
func LightsForRoom(homes []host.Home, room Room, byRoom HomesByRoomStrategy, bulbs LightbulbsByRoomStrategy) []Light {
	h, ok := HomeForRoom(homes, room, byRoom)
	if !ok {
		return []Light{}
	}
	return ToLights(filter(h.handle.Accessories(), func(a host.Accessory) bool {
		return isLightbulb(a) && bulbs.Matches(a, room)
	}))
}

// BrightnessOf returns an adapter for the first brightness characteristic.
func BrightnessOf(chars []host.Characteristic) (*Brightness, bool) {
	return firstOf(chars, NewBrightness)
}

// PowerOf returns an adapter for the first power-state characteristic.
func PowerOf(chars []host.Characteristic) (*Power, bool) {
	return firstOf(chars, NewPower)
}

// ColorOf returns an adapter for the first hue characteristic.
func ColorOf(chars []host.Characteristic) (*Color, bool) {
	return firstOf(chars, NewColor)
}

// LightService returns the first lightbulb service.
func LightService(services []host.Service) (host.Service, bool) {
	for _, s := range services {
		if s != nil && s.Type() == host.ServiceLightbulb {
			return s, true
		}
	}
	return nil, false
}

func firstOf[T any](chars []host.Characteristic, adapt func(host.Characteristic) (*T, bool)) (*T, bool) {
	for _, c := range chars {
		if a, ok := adapt(c); ok {
			return a, true
		}
	}
	return nil, false
}

func findHome(homes []host.Home, id string) (host.Home, bool) {
	for _, h := range homes {
		if h.ID() == id {
			return h, true
		}
	}
	return nil, false
}

func filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func isLightbulb(a host.Accessory) bool {
	return a.Category() == host.CategoryLightbulb
}
