package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Ramp maps case counts onto a sequential colour scale, blending in CIE Lab
// so equal count steps look like equal colour steps.
type Ramp struct {
	low, high colorful.Color
}

// DefaultRamp runs from near-white to deep red, like matplotlib's "Reds".
var DefaultRamp = NewRamp("#fff5f0", "#67000d")

// NewRamp builds a ramp between two hex colours. It panics on malformed
// input; ramps are package-level constants.
func NewRamp(lowHex, highHex string) Ramp {
	return Ramp{low: mustHex(lowHex), high: mustHex(highHex)}
}

// At returns the colour for count on a scale whose ceiling is maxCount.
// Counts are clamped to [0, maxCount]; a zero ceiling maps everything to
// the low end.
func (r Ramp) At(count, maxCount int) color.RGBA {
	t := 0.0
	if maxCount > 0 {
		t = float64(count) / float64(maxCount)
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	var c colorful.Color
	switch t {
	case 0:
		c = r.low
	case 1:
		c = r.high
	default:
		c = r.low.BlendLab(r.high, t).Clamped()
	}
	cr, cg, cb := c.RGB255()
	return color.RGBA{R: cr, G: cg, B: cb, A: 0xff}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
