package memhost

import (
	"fmt"
	"sync"

	"github.com/nerrad567/homegraph/internal/host"
)

// Characteristic is an in-memory host.Characteristic holding the
// last-known value of a device attribute.
type Characteristic struct {
	typ      host.CharacteristicType
	format   Format
	writable bool
	service  *Service

	mu    sync.RWMutex
	value any
}

// Type returns the characteristic type tag.
func (c *Characteristic) Type() host.CharacteristicType { return c.typ }

// Format returns the native value format.
func (c *Characteristic) Format() Format { return c.format }

// Writable reports whether WriteValue is permitted.
func (c *Characteristic) Writable() bool { return c.writable }

// SetReadOnly removes write permission. Builder use only.
func (c *Characteristic) SetReadOnly() { c.writable = false }

// Value returns the cached raw value, or nil.
func (c *Characteristic) Value() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Store normalises value and replaces the cached value.
func (c *Characteristic) Store(value any) error {
	v, err := c.format.Normalize(value)
	if err != nil {
		return err
	}
	c.set(v)
	return nil
}

// set replaces the cached value and notifies the graph's observers.
func (c *Characteristic) set(v any) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	c.service.accessory.graph.notify(Change{
		AccessoryID:    c.service.accessory.id,
		ServiceType:    c.service.typ,
		Characteristic: c.typ,
		Value:          v,
	})
}

// WriteValue normalises value and hands it to the graph's Writer. The cached
// value is updated only after the writer reports success. Validation
// failures are reported through done on a new goroutine so callers always
// observe an asynchronous completion.
func (c *Characteristic) WriteValue(value any, done host.Completion) {
	if done == nil {
		done = func(error) {}
	}
	if !c.writable {
		go done(fmt.Errorf("%w: %s on %s", ErrReadOnly, c.typ, c.service.accessory.id))
		return
	}
	v, err := c.format.Normalize(value)
	if err != nil {
		go done(err)
		return
	}

	req := WriteRequest{
		AccessoryID:        c.service.accessory.id,
		ServiceType:        c.service.typ,
		CharacteristicType: c.typ,
		Value:              v,
	}
	c.service.accessory.graph.currentWriter().Write(req, func(err error) {
		if err == nil {
			c.set(v)
		}
		done(err)
	})
}
