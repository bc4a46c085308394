// Package host defines the capability sets homegraph consumes from a host
// home-automation framework.
//
// The host owns the live object graph: homes contain rooms and accessories,
// accessories expose services, and services expose characteristics. Each
// handle carries a type tag (HAP short-form identifiers) that the domain
// layer uses to recognise lights, brightness, power state and hue.
//
// Nothing in this package performs I/O. Implementations live elsewhere
// (see host/memhost) and are free to talk to real devices.
package host
