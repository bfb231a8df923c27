package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// FramePattern is the file name of frame i, as the encoder expects it.
const FramePattern = "frame_%04d.png"

func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf(FramePattern, index))
}

// WriteFrame encodes img as PNG at FramePath(dir, index). The file is
// written under a temporary name and renamed into place so an interrupted
// run never leaves a truncated frame behind.
func WriteFrame(dir string, index int, img image.Image) error {
	tmp, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("failed to create frame %d: %w", index, err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode frame %d: %w", index, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write frame %d: %w", index, err)
	}

	if err := os.Rename(tmpName, FramePath(dir, index)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save frame %d: %w", index, err)
	}
	return nil
}
