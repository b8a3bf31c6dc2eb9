// Package animate assembles rendered frames into a looping GIF.
package animate

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/filewriter"
)

// ErrNoFrames is returned when the frame directory holds no dated frames.
var ErrNoFrames = errors.New("no frames to assemble")

// FrameFile is a frame image on disk and the date parsed from its name.
type FrameFile struct {
	Path string
	Date time.Time
}

// Assembler writes frame sequences as animated GIFs.
type Assembler struct {
	frameRate int
	logger    *slog.Logger
}

// NewAssembler creates an Assembler playing frameRate frames per second.
func NewAssembler(frameRate int, logger *slog.Logger) *Assembler {
	if frameRate <= 0 {
		frameRate = 1
	}
	return &Assembler{frameRate: frameRate, logger: logger}
}

// Delay is the per-frame delay in hundredths of a second.
func (a *Assembler) Delay() int {
	d := 100 / a.frameRate
	if d < 1 {
		d = 1
	}
	return d
}

// ListFrames returns the PNG files in dir whose base name is a date, ordered
// by that date. Anything else in the directory is skipped.
func (a *Assembler) ListFrames(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []FrameFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		date, err := domain.ParseDate(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			a.logger.Debug("ignoring non-frame file", "file", name)
			continue
		}
		frames = append(frames, FrameFile{Path: filepath.Join(dir, name), Date: date})
	}

	sort.SliceStable(frames, func(i, j int) bool { return frames[i].Date.Before(frames[j].Date) })
	return frames, nil
}

// Assemble encodes every frame in dir, in date order, into an infinitely
// looping GIF at out. It returns the number of frames written.
func (a *Assembler) Assemble(dir, out string) (int, error) {
	frames, err := a.ListFrames(dir)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	anim := &gif.GIF{LoopCount: 0}
	delay := a.Delay()
	for _, f := range frames {
		img, err := decodePNG(f.Path)
		if err != nil {
			return 0, err
		}
		anim.Image = append(anim.Image, quantize(img))
		anim.Delay = append(anim.Delay, delay)
	}

	err = filewriter.WriteFile(out, func(fw *filewriter.FileWriter) error {
		return gif.EncodeAll(fw, anim)
	})
	if err != nil {
		return 0, fmt.Errorf("write animation %s: %w", out, err)
	}

	a.logger.Info("animation written",
		"path", out,
		"frames", len(frames),
		"first", frames[0].Date.Format(domain.DateLayout),
		"last", frames[len(frames)-1].Date.Format(domain.DateLayout),
	)
	return len(frames), nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return img, nil
}

func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}
