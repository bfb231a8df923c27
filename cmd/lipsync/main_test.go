package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/normanking/lipsync/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lipsync.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing file must not be overwritten without --force")

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path, "--fps", "30", "--blink=false", "--seed", "7")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 30, cfg.Output.FPS)
	assert.False(t, cfg.Animation.Blink.Enabled)
	assert.Equal(t, int64(7), cfg.Animation.Seed)
	assert.Equal(t, config.Default().Audio, cfg.Audio)
}

func TestConfigShow_InvalidOverride(t *testing.T) {
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--fps", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOverrides_OnlyChangedFlags(t *testing.T) {
	opts := &renderOptions{}
	cmd := &cobra.Command{Use: "lipsync"}
	opts.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "3", "--parallel=false", "-o", "clip.mp4"}))

	o := opts.overrides(cmd)
	require.NotNil(t, o.NumWorkers)
	assert.Equal(t, 3, *o.NumWorkers)
	require.NotNil(t, o.Parallel)
	assert.False(t, *o.Parallel)
	require.NotNil(t, o.VideoFile)
	assert.Equal(t, "clip.mp4", *o.VideoFile)

	assert.Nil(t, o.FPS)
	assert.Nil(t, o.Seed)
	assert.Nil(t, o.KeepFrames)
}

func TestRender_MissingAudioFails(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, filepath.Join(dir, "missing.wav"), "--config", filepath.Join(dir, "none.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lipsync dev\n", out)
}
