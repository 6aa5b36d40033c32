package vision

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/gift"
	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

var ErrPatternMissing = errors.New("pattern missing")

// PatternSpec names one reference image on disk.
type PatternSpec struct {
	Name       string
	File       string
	Confidence float32
	Scale      float64
}

// Patterns is the read only reference pattern store, loaded once at startup.
type Patterns struct {
	byName map[string]*Pattern
}

// LoadPatterns reads every spec from dir. A file named like
// "cast_bar.1080.png" was captured on a 1080 pixel high screen and gets
// rescaled to screenHeight unless the spec sets an explicit scale. Any
// missing or unreadable file fails the whole load.
func LoadPatterns(logger *zap.Logger, dir string, specs []PatternSpec, screenHeight int) (*Patterns, error) {
	logger = logger.Named("patterns")
	p := &Patterns{byName: make(map[string]*Pattern, len(specs))}
	for _, spec := range specs {
		pat, err := loadPattern(dir, spec, screenHeight)
		if err != nil {
			p.Close()
			return nil, err
		}
		logger.Info("Loaded pattern",
			zap.String("name", spec.Name),
			zap.String("file", spec.File),
			zap.Int("width", pat.Frame.Width()),
			zap.Int("height", pat.Frame.Height()),
			zap.Float32("confidence", pat.Confidence))
		p.byName[spec.Name] = pat
	}
	return p, nil
}

func loadPattern(dir string, spec PatternSpec, screenHeight int) (*Pattern, error) {
	path := filepath.Join(dir, spec.File)
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatternMissing, spec.Name, err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decoding %s: %v", ErrPatternMissing, spec.Name, path, err)
	}

	scale := spec.Scale
	if scale == 0 {
		scale = captureScale(spec.File, screenHeight)
	}
	if scale != 1 {
		img = rescale(img, scale)
	}

	f, err := frame.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return &Pattern{Name: spec.Name, Confidence: spec.Confidence, Frame: f}, nil
}

// captureScale reads the capture height encoded in the file name.
func captureScale(file string, screenHeight int) float64 {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	_, height, found := strings.Cut(base, ".")
	if !found || screenHeight <= 0 {
		return 1
	}
	h, err := strconv.ParseInt(height, 10, 64)
	if err != nil || h <= 0 {
		return 1
	}
	return float64(screenHeight) / float64(h)
}

func rescale(img image.Image, factor float64) image.Image {
	w := int(float64(img.Bounds().Dx()) * factor)
	g := gift.New(gift.Resize(w, 0, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// Get returns the named pattern.
func (p *Patterns) Get(name string) (*Pattern, error) {
	pat, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatternMissing, name)
	}
	return pat, nil
}

// Names lists the loaded patterns, sorted.
func (p *Patterns) Names() []string {
	names := make([]string, 0, len(p.byName))
	for n := range p.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p *Patterns) Close() {
	for _, pat := range p.byName {
		pat.Close()
	}
}
