package home

import "math"

// hueEpsilon absorbs floating point error so that hue/360*360 truncates
// back to the same whole degree.
const hueEpsilon = 1e-9

// HSB is a colour with hue, saturation and brightness each in [0,1].
type HSB struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// HueDegrees converts the normalised hue to whole degrees in [0,360),
// truncating any fractional degree. Hues outside [0,1) wrap around; NaN
// and infinite hues map to 0.
func (c HSB) HueDegrees() int {
	if math.IsNaN(c.Hue) || math.IsInf(c.Hue, 0) {
		return 0
	}
	h := math.Mod(c.Hue, 1)
	if h < 0 {
		h++
	}
	return int(h*360+hueEpsilon) % 360
}

// HSBFromDegrees builds a fully saturated, full brightness colour from a
// hue in degrees. Saturation and brightness are not recoverable from a hue
// characteristic, so only the hue survives a round trip.
func HSBFromDegrees(degrees int) HSB {
	d := degrees % 360
	if d < 0 {
		d += 360
	}
	return HSB{
		Hue:        float64(d) / 360,
		Saturation: 1,
		Brightness: 1,
	}
}
