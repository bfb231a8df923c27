// Package render draws animation snapshots onto the character layers and
// writes the resulting frames to disk.
package render

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/normanking/lipsync/internal/animation"
	"github.com/normanking/lipsync/internal/assets"
)

// Compositor layers the asset set for a single snapshot. It holds no
// per-frame state and may be shared by any number of goroutines.
type Compositor struct {
	set *assets.Set
}

func NewCompositor(set *assets.Set) *Compositor {
	return &Compositor{set: set}
}

// Compose returns a new image: the base layer with eyes, eyebrows and
// mouth alpha-blended on top, in that order.
func (c *Compositor) Compose(snap animation.Snapshot) *image.NRGBA {
	face, eyes := snap.Offsets()

	frame := imaging.Overlay(c.set.Base, c.set.Eyes(snap.Blinking), eyes, 1.0)

	if brows, ok := c.set.Eyebrows(snap.EyebrowRaised); ok {
		frame = imaging.Overlay(frame, brows, face, 1.0)
	}

	return imaging.Overlay(frame, c.set.Mouth(snap.Mouth), face, 1.0)
}
