package render

import (
	"image"
	"math"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/paulmach/orb"
)

// projector maps lon/lat onto a pixel rectangle with an equirectangular
// projection. Longitude is scaled by cos(mean latitude) so shapes keep
// roughly their true proportions at NSW latitudes.
type projector struct {
	bound  orb.Bound
	kx     float64 // longitude compression
	scale  float64 // pixels per projected degree
	origin [2]float64
}

func newProjector(regions []domain.RegionCount, rect image.Rectangle) (projector, bool) {
	var bound orb.Bound
	found := false
	for _, rc := range regions {
		if len(rc.Region.Geometry) == 0 {
			continue
		}
		b := rc.Region.Geometry.Bound()
		if !found {
			bound = b
			found = true
			continue
		}
		bound = bound.Union(b)
	}
	if !found || rect.Dx() <= 0 || rect.Dy() <= 0 {
		return projector{}, false
	}

	midLat := (bound.Min[1] + bound.Max[1]) / 2
	kx := math.Cos(midLat * math.Pi / 180)
	w := (bound.Max[0] - bound.Min[0]) * kx
	h := bound.Max[1] - bound.Min[1]

	scale := 1.0
	switch {
	case w > 0 && h > 0:
		scale = math.Min(float64(rect.Dx())/w, float64(rect.Dy())/h)
	case w > 0:
		scale = float64(rect.Dx()) / w
	case h > 0:
		scale = float64(rect.Dy()) / h
	}

	// Centre the projected extent inside rect.
	ox := float64(rect.Min.X) + (float64(rect.Dx())-w*scale)/2
	oy := float64(rect.Min.Y) + (float64(rect.Dy())-h*scale)/2
	return projector{bound: bound, kx: kx, scale: scale, origin: [2]float64{ox, oy}}, true
}

// project returns the pixel position of p. Latitude grows upward, pixels
// grow downward.
func (pr projector) project(p orb.Point) (x, y float64) {
	x = pr.origin[0] + (p[0]-pr.bound.Min[0])*pr.kx*pr.scale
	y = pr.origin[1] + (pr.bound.Max[1]-p[1])*pr.scale
	return x, y
}

// pixelBounds returns the integer pixel rectangle covering g.
func (pr projector) pixelBounds(g orb.MultiPolygon) image.Rectangle {
	b := g.Bound()
	x0, y0 := pr.project(orb.Point{b.Min[0], b.Max[1]})
	x1, y1 := pr.project(orb.Point{b.Max[0], b.Min[1]})
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1))+1, int(math.Ceil(y1))+1)
}
