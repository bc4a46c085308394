package home

import (
	"sync"

	"github.com/nerrad567/homegraph/internal/host"
)

// Brightness percentage bounds.
const (
	minBrightness = 0
	maxBrightness = 100
)

// Brightness adapts a brightness characteristic. Values are percentages.
type Brightness struct {
	c host.Characteristic
}

// NewBrightness wraps c if it is a brightness characteristic.
func NewBrightness(c host.Characteristic) (*Brightness, bool) {
	if !isType(c, host.CharacteristicBrightness) {
		return nil, false
	}
	return &Brightness{c: c}, true
}

// Value returns the cached brightness percentage.
func (b *Brightness) Value() (int, bool) {
	v, ok := b.c.Value().(int)
	return v, ok
}

// Set writes a brightness percentage, clamped to [0,100].
func (b *Brightness) Set(percent int, done host.Completion) {
	percent = max(minBrightness, min(maxBrightness, percent))
	b.c.WriteValue(percent, once(done))
}

// Characteristic returns the wrapped host handle.
func (b *Brightness) Characteristic() host.Characteristic { return b.c }

// Power adapts a power-state characteristic.
type Power struct {
	c host.Characteristic
}

// NewPower wraps c if it is a power-state characteristic.
func NewPower(c host.Characteristic) (*Power, bool) {
	if !isType(c, host.CharacteristicPowerState) {
		return nil, false
	}
	return &Power{c: c}, true
}

// Value reports whether the device is on.
func (p *Power) Value() (bool, bool) {
	v, ok := p.c.Value().(bool)
	return v, ok
}

// Set switches the device on or off.
func (p *Power) Set(on bool, done host.Completion) {
	p.c.WriteValue(on, once(done))
}

// Characteristic returns the wrapped host handle.
func (p *Power) Characteristic() host.Characteristic { return p.c }

// Color adapts a hue characteristic. The raw value is whole degrees.
type Color struct {
	c host.Characteristic
}

// NewColor wraps c if it is a hue characteristic.
func NewColor(c host.Characteristic) (*Color, bool) {
	if !isType(c, host.CharacteristicHue) {
		return nil, false
	}
	return &Color{c: c}, true
}

// Value returns the cached hue as a fully saturated colour.
func (c *Color) Value() (HSB, bool) {
	deg, ok := c.c.Value().(int)
	if !ok {
		return HSB{}, false
	}
	return HSBFromDegrees(deg), true
}

// Set writes the hue of col. Saturation and brightness are ignored.
func (c *Color) Set(col HSB, done host.Completion) {
	c.c.WriteValue(col.HueDegrees(), once(done))
}

// Characteristic returns the wrapped host handle.
func (c *Color) Characteristic() host.Characteristic { return c.c }

func isType(c host.Characteristic, t host.CharacteristicType) bool {
	return c != nil && c.Type() == t
}

// once guards a completion against a host that calls it more than once.
// A nil completion is replaced with a no-op.
func once(done host.Completion) host.Completion {
	if done == nil {
		return func(error) {}
	}
	var o sync.Once
	return func(err error) {
		o.Do(func() { done(err) })
	}
}
