// Package memhost is an in-memory implementation of the host capability
// sets.
//
// A Graph is assembled once (usually by the topology package) and is then
// treated as structurally immutable: homes, rooms, accessories, services
// and characteristics are never added or removed after Build. Only cached
// characteristic values change, either when a write succeeds or when a
// device reports new state via UpdateValue.
//
// Device communication is delegated to a Writer. The production writer is
// the MQTT bridge; Loopback completes every write locally.
//
// # Thread Safety
//
// All read methods and UpdateValue are safe for concurrent use. Builder
// methods (AddHome, AddRoom, ...) are not and must finish before the graph
// is shared.
package memhost
