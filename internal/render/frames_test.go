package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePath(t *testing.T) {
	assert.Equal(t, filepath.Join("tmp", "frame_0000.png"), FramePath("tmp", 0))
	assert.Equal(t, filepath.Join("tmp", "frame_0042.png"), FramePath("tmp", 42))
	assert.Equal(t, filepath.Join("tmp", "frame_12345.png"), FramePath("tmp", 12345))
}

func TestWriteFrame(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(4, 3, color.NRGBA{10, 20, 30, 255})

	require.NoError(t, WriteFrame(dir, 7, img))

	got, err := imaging.Open(FramePath(dir, 7))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, imaging.Clone(got).NRGBAAt(1, 1))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files should remain")
}

func TestWriteFrame_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	err := WriteFrame(dir, 0, imaging.New(1, 1, color.NRGBA{}))
	assert.Error(t, err)
}
