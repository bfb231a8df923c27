package assets

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/lipsync/internal/animation"
	"github.com/normanking/lipsync/internal/config"
)

func writeLayers(t *testing.T, dir string, cfg config.AssetsConfig, withBrows bool) {
	t.Helper()
	save := func(name string, c color.NRGBA, w, h int) {
		require.NoError(t, imaging.Save(imaging.New(w, h, c), filepath.Join(dir, name)))
	}
	save(cfg.Base, color.NRGBA{255, 255, 255, 255}, 64, 48)
	save(cfg.EyesOpen, color.NRGBA{0, 0, 255, 255}, 8, 4)
	save(cfg.EyesClosed, color.NRGBA{0, 0, 128, 255}, 8, 4)
	save(cfg.Mouths.Closed, color.NRGBA{10, 0, 0, 255}, 6, 2)
	save(cfg.Mouths.Small, color.NRGBA{20, 0, 0, 255}, 6, 2)
	save(cfg.Mouths.Medium, color.NRGBA{30, 0, 0, 255}, 6, 2)
	save(cfg.Mouths.Wide, color.NRGBA{40, 0, 0, 255}, 6, 2)
	if withBrows {
		save(cfg.Eyebrows.Normal, color.NRGBA{0, 50, 0, 255}, 8, 2)
		save(cfg.Eyebrows.Raised, color.NRGBA{0, 100, 0, 255}, 8, 2)
	}
}

func testAssets(t *testing.T, withBrows bool) config.AssetsConfig {
	cfg := config.Default().Assets
	cfg.Directory = t.TempDir()
	writeLayers(t, cfg.Directory, cfg, withBrows)
	return cfg
}

func TestLoad_AllLayers(t *testing.T) {
	set, err := Load(testAssets(t, true), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 64, 48), set.Bounds())
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, set.Eyes(false).NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 128, 255}, set.Eyes(true).NRGBAAt(0, 0))

	for shape, red := range map[animation.MouthShape]uint8{
		animation.MouthClosed: 10,
		animation.MouthSmall:  20,
		animation.MouthMedium: 30,
		animation.MouthWide:   40,
	} {
		assert.Equal(t, red, set.Mouth(shape).NRGBAAt(0, 0).R, shape.String())
	}
	assert.Equal(t, uint8(10), set.Mouth(animation.MouthShape(42)).NRGBAAt(0, 0).R)

	require.True(t, set.HasEyebrows())
	brows, ok := set.Eyebrows(true)
	require.True(t, ok)
	assert.Equal(t, uint8(100), brows.NRGBAAt(0, 0).G)
}

func TestLoad_MissingEyebrowsDisablesThem(t *testing.T) {
	cfg := testAssets(t, false)
	set, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, set.HasEyebrows())
	_, ok := set.Eyebrows(false)
	assert.False(t, ok)
}

func TestLoad_OneEyebrowMissing(t *testing.T) {
	cfg := testAssets(t, true)
	require.NoError(t, os.Remove(filepath.Join(cfg.Directory, cfg.Eyebrows.Raised)))

	set, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, set.HasEyebrows())
}

func TestLoad_MissingRequiredLayerFails(t *testing.T) {
	for _, name := range []string{"base.png", "eyes_closed.png", "mouth_medium.png"} {
		t.Run(name, func(t *testing.T) {
			cfg := testAssets(t, true)
			require.NoError(t, os.Remove(filepath.Join(cfg.Directory, name)))

			_, err := Load(cfg, zerolog.Nop())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissing)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_CorruptLayerFails(t *testing.T) {
	cfg := testAssets(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Directory, cfg.EyesOpen), []byte("not a png"), 0644))

	_, err := Load(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissing)
}
