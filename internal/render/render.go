// Package render draws one choropleth frame per date: a map panel per
// region classification, a colour legend, and an optional vaccination
// progress bar.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/filewriter"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	margin       = 16
	titleHeight  = 48
	legendHeight = 44
	headingSize  = 22
	minWidth     = 320
	minHeight    = 240
)

var (
	background   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	outline      = color.RGBA{0x8c, 0x8c, 0x8c, 0xff}
	textColor    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	barEmpty     = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}
	firstDoseCol = color.RGBA{0x9e, 0xca, 0xe1, 0xff}
	secondDose   = color.RGBA{0x21, 0x66, 0xac, 0xff}
)

var errFrameTooSmall = errors.New("frame too small")

// Options configures a Renderer.
type Options struct {
	Dir        string // frame output directory
	Width      int
	Height     int
	Population int64 // denominator for vaccination percentages
	Ramp       Ramp
}

// Renderer draws frames onto a single canvas that is cleared and reused for
// every frame. It is not safe for concurrent use.
type Renderer struct {
	opts   Options
	canvas *image.RGBA
	raster *vector.Rasterizer
	logger *slog.Logger
}

// New creates a Renderer. A zero Ramp selects DefaultRamp.
func New(opts Options, logger *slog.Logger) (*Renderer, error) {
	if opts.Width < minWidth || opts.Height < minHeight {
		return nil, fmt.Errorf("%w: %dx%d, need at least %dx%d", errFrameTooSmall, opts.Width, opts.Height, minWidth, minHeight)
	}
	if opts.Ramp == (Ramp{}) {
		opts.Ramp = DefaultRamp
	}
	return &Renderer{
		opts:   opts,
		canvas: image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		raster: vector.NewRasterizer(0, 0),
		logger: logger,
	}, nil
}

// RenderFrame draws frame and writes it to the output directory as
// YYYY-MM-DD.png, returning the file path.
func (r *Renderer) RenderFrame(frame domain.Frame, maxCount int) (string, error) {
	img := r.Render(frame, maxCount)
	path := filepath.Join(r.opts.Dir, frame.FileName())
	err := filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(fw, img)
	})
	if err != nil {
		return "", fmt.Errorf("write frame %s: %w", path, err)
	}
	r.logger.Debug("frame written", "path", path, "cases", frame.Total())
	return path, nil
}

// Render draws frame onto the shared canvas and returns it. The returned
// image is overwritten by the next call.
func (r *Renderer) Render(frame domain.Frame, maxCount int) *image.RGBA {
	bounds := r.canvas.Bounds()
	draw.Draw(r.canvas, bounds, image.NewUniform(background), image.Point{}, draw.Src)

	title := fmt.Sprintf("NSW COVID-19 cases by LGA: %s", frame.Date.Format("2 January 2006"))
	r.text(margin, 24, title)
	r.text(margin, 40, fmt.Sprintf("%d cases notified", frame.Total()))

	maps := image.Rect(margin, titleHeight, bounds.Dx()-margin, bounds.Dy()-legendHeight)
	if frame.Vaccination != nil {
		barWidth := max(72, bounds.Dx()/10)
		bar := image.Rect(maps.Max.X-barWidth, maps.Min.Y+headingSize+28, maps.Max.X, maps.Max.Y)
		r.vaccinationBar(bar, *frame.Vaccination)
		maps.Max.X -= barWidth + margin
	}

	// Regional NSW covers far more area, so it gets the wider panel.
	split := maps.Min.X + maps.Dx()*11/20
	r.panel(image.Rect(maps.Min.X, maps.Min.Y, split-margin/2, maps.Max.Y), "Rest of NSW", frame.Other, maxCount)
	r.panel(image.Rect(split+margin/2, maps.Min.Y, maps.Max.X, maps.Max.Y), "Greater Sydney", frame.Capital, maxCount)

	r.legend(image.Rect(margin, bounds.Dy()-legendHeight+8, margin+240, bounds.Dy()-legendHeight+20), maxCount)
	return r.canvas
}

func (r *Renderer) panel(rect image.Rectangle, heading string, regions []domain.RegionCount, maxCount int) {
	r.text(rect.Min.X, rect.Min.Y+14, heading)
	body := image.Rect(rect.Min.X, rect.Min.Y+headingSize, rect.Max.X, rect.Max.Y)

	pr, ok := newProjector(regions, body)
	if !ok {
		r.text(body.Min.X, body.Min.Y+14, "no regions")
		return
	}
	for _, rc := range regions {
		r.fillRegion(pr, rc.Region, r.opts.Ramp.At(rc.Count, maxCount))
	}
	for _, rc := range regions {
		r.strokeRegion(pr, rc.Region)
	}
}

// fillRegion rasterises a region within its own pixel bounding box, which
// keeps the rasterizer buffer small for the many tiny Sydney LGAs.
func (r *Renderer) fillRegion(pr projector, region domain.Region, c color.Color) {
	box := pr.pixelBounds(region.Geometry).Intersect(r.canvas.Bounds())
	if box.Empty() {
		return
	}
	r.raster.Reset(box.Dx(), box.Dy())
	dx, dy := float32(box.Min.X), float32(box.Min.Y)
	for _, poly := range region.Geometry {
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			for i, p := range ring {
				x, y := pr.project(p)
				if i == 0 {
					r.raster.MoveTo(float32(x)-dx, float32(y)-dy)
					continue
				}
				r.raster.LineTo(float32(x)-dx, float32(y)-dy)
			}
			r.raster.ClosePath()
		}
	}
	r.raster.Draw(r.canvas, box, image.NewUniform(c), image.Point{})
}

func (r *Renderer) strokeRegion(pr projector, region domain.Region) {
	for _, poly := range region.Geometry {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				x0, y0 := pr.project(ring[i-1])
				x1, y1 := pr.project(ring[i])
				drawLine(r.canvas, int(x0), int(y0), int(x1), int(y1), outline)
			}
		}
	}
}

func (r *Renderer) legend(rect image.Rectangle, maxCount int) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		t := float64(x-rect.Min.X) / float64(rect.Dx()-1)
		c := r.opts.Ramp.At(int(t*1000), 1000)
		draw.Draw(r.canvas, image.Rect(x, rect.Min.Y, x+1, rect.Max.Y), image.NewUniform(c), image.Point{}, draw.Src)
	}
	r.text(rect.Min.X, rect.Max.Y+14, "0")
	label := strconv.Itoa(maxCount)
	w := font.MeasureString(basicfont.Face7x13, label).Ceil()
	r.text(rect.Max.X-w, rect.Max.Y+14, label)
	r.text(rect.Max.X+8, rect.Max.Y-1, "cases per LGA per day")
}

// vaccinationBar draws first and second dose coverage as overlaid vertical
// bars filling from the bottom, second dose in front.
func (r *Renderer) vaccinationBar(rect image.Rectangle, v domain.VaccinationSnapshot) {
	first, second := v.Percentages(r.opts.Population)

	r.text(rect.Min.X, rect.Min.Y-34, "Vaccinated")
	r.text(rect.Min.X, rect.Min.Y-20, fmt.Sprintf("1st %.1f%%", first))
	r.text(rect.Min.X, rect.Min.Y-6, fmt.Sprintf("2nd %.1f%%", second))

	draw.Draw(r.canvas, rect, image.NewUniform(barEmpty), image.Point{}, draw.Src)
	fill := func(pct float64, c color.Color) {
		top := rect.Max.Y - int(float64(rect.Dy())*pct/100+0.5)
		draw.Draw(r.canvas, image.Rect(rect.Min.X, top, rect.Max.X, rect.Max.Y), image.NewUniform(c), image.Point{}, draw.Src)
	}
	fill(first, firstDoseCol)
	fill(second, secondDose)
}

func (r *Renderer) text(x, y int, s string) {
	d := font.Drawer{
		Dst:  r.canvas,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine plots a one-pixel Bresenham line, clipped by the image bounds.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if (image.Point{x0, y0}).In(img.Rect) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
