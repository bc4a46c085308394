package memhost

import "github.com/nerrad567/homegraph/internal/host"

// WriteRequest describes one characteristic write handed to a Writer.
type WriteRequest struct {
	AccessoryID        string
	ServiceType        host.ServiceType
	CharacteristicType host.CharacteristicType
	Value              any
}

// Writer performs device communication for characteristic writes.
//
// Write must not block on device I/O: it starts the write and later calls
// done exactly once with the outcome.
type Writer interface {
	Write(req WriteRequest, done host.Completion)
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(req WriteRequest, done host.Completion)

// Write calls f(req, done).
func (f WriterFunc) Write(req WriteRequest, done host.Completion) {
	f(req, done)
}

// Loopback is a Writer with no device behind it. Every write succeeds and
// completes on a new goroutine, mirroring the asynchrony of a real host.
type Loopback struct{}

// Write completes asynchronously with a nil error.
func (Loopback) Write(_ WriteRequest, done host.Completion) {
	go done(nil)
}
