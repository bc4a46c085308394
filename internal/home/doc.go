// Package home maps the host object graph onto homegraph's domain model.
//
// The domain model is deliberately small: Home, Room and Light, plus the
// characteristic adapters Brightness, Power and Color. Domain objects are
// built fresh from a live query against the host on every call and never
// cache device state; every read goes to the host handle.
//
// Absence is not failure. A characteristic of the wrong type, a missing
// raw value, or a room that belongs to no home are all reported as
// (zero, false) or an empty slice. The only errors this package surfaces
// are transport errors delivered through write completions, passed through
// unmodified from the host.
//
// # Usage
//
//	dir := home.NewDirectory(graph)
//	for _, h := range dir.Homes() {
//	    for _, light := range dir.Lights(h) {
//	        if light.Power != nil {
//	            light.Power.Set(true, func(err error) { ... })
//	        }
//	    }
//	}
package home
