// Package assets loads the character's image layers.
package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/normanking/lipsync/internal/animation"
	"github.com/normanking/lipsync/internal/config"
)

// ErrMissing is returned when a required layer file does not exist.
var ErrMissing = errors.New("asset not found")

// Set is the full collection of layers. It is read-only after Load and may
// be shared between goroutines.
type Set struct {
	Base       *image.NRGBA
	EyesOpen   *image.NRGBA
	EyesClosed *image.NRGBA

	mouths [4]*image.NRGBA

	browsNormal *image.NRGBA
	browsRaised *image.NRGBA
}

// Load reads every layer named in cfg. Any missing required layer fails the
// load; a missing eyebrow layer only disables eyebrows.
func Load(cfg config.AssetsConfig, log zerolog.Logger) (*Set, error) {
	l := loader{dir: cfg.Directory}
	s := &Set{}

	required := []struct {
		dst  **image.NRGBA
		name string
	}{
		{&s.Base, cfg.Base},
		{&s.EyesOpen, cfg.EyesOpen},
		{&s.EyesClosed, cfg.EyesClosed},
		{&s.mouths[animation.MouthClosed], cfg.Mouths.Closed},
		{&s.mouths[animation.MouthSmall], cfg.Mouths.Small},
		{&s.mouths[animation.MouthMedium], cfg.Mouths.Medium},
		{&s.mouths[animation.MouthWide], cfg.Mouths.Wide},
	}
	for _, r := range required {
		img, err := l.load(r.name)
		if err != nil {
			return nil, err
		}
		*r.dst = img
	}

	normal, nerr := l.load(cfg.Eyebrows.Normal)
	raised, rerr := l.load(cfg.Eyebrows.Raised)
	switch {
	case nerr == nil && rerr == nil:
		s.browsNormal, s.browsRaised = normal, raised
	case errors.Is(nerr, ErrMissing) || errors.Is(rerr, ErrMissing):
		log.Debug().Str("dir", cfg.Directory).Msg("eyebrow layers not found, eyebrows disabled")
	default:
		return nil, errors.Join(nerr, rerr)
	}

	log.Debug().
		Int("width", s.Base.Bounds().Dx()).
		Int("height", s.Base.Bounds().Dy()).
		Bool("eyebrows", s.HasEyebrows()).
		Msg("assets loaded")
	return s, nil
}

type loader struct {
	dir string
}

func (l loader) load(name string) (*image.NRGBA, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty file name in %s", ErrMissing, l.dir)
	}
	path := filepath.Join(l.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found in %s", ErrMissing, name, l.dir)
		}
		return nil, fmt.Errorf("failed to stat asset %s: %w", path, err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", path, err)
	}
	return imaging.Clone(img), nil
}

// Bounds is the output frame size.
func (s *Set) Bounds() image.Rectangle {
	return s.Base.Bounds()
}

func (s *Set) Eyes(closed bool) *image.NRGBA {
	if closed {
		return s.EyesClosed
	}
	return s.EyesOpen
}

// Mouth returns the layer for shape, falling back to closed.
func (s *Set) Mouth(shape animation.MouthShape) *image.NRGBA {
	if shape < animation.MouthClosed || shape > animation.MouthWide {
		return s.mouths[animation.MouthClosed]
	}
	return s.mouths[shape]
}

func (s *Set) HasEyebrows() bool {
	return s.browsNormal != nil && s.browsRaised != nil
}

// Eyebrows returns the brow layer, or false when the set has none.
func (s *Set) Eyebrows(raised bool) (*image.NRGBA, bool) {
	if !s.HasEyebrows() {
		return nil, false
	}
	if raised {
		return s.browsRaised, true
	}
	return s.browsNormal, true
}
