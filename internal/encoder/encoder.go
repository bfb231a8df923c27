// Package encoder muxes rendered frames and the source audio into a video
// by invoking ffmpeg.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/normanking/lipsync/internal/config"
	"github.com/normanking/lipsync/internal/render"
)

var (
	// ErrNotFound means the ffmpeg binary could not be run at all.
	ErrNotFound = errors.New("ffmpeg not found")
	// ErrFailed means ffmpeg ran and exited non-zero.
	ErrFailed = errors.New("ffmpeg failed")
)

// Job describes one encode.
type Job struct {
	FramesDir string
	AudioPath string
	Output    string
}

// Encoder runs ffmpeg with the output settings it was built with.
type Encoder struct {
	cfg    config.OutputConfig
	logger zerolog.Logger
}

func New(cfg config.OutputConfig, logger zerolog.Logger) *Encoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Encoder{
		cfg:    cfg,
		logger: logger.With().Str("component", "encoder").Logger(),
	}
}

// Args returns the ffmpeg argument list for job, without the binary name.
func (e *Encoder) Args(job Job) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(e.cfg.FPS),
		"-i", filepath.Join(job.FramesDir, render.FramePattern),
		"-i", job.AudioPath,
		"-c:v", e.cfg.VideoCodec,
		"-preset", e.cfg.VideoPreset,
		"-b:v", e.cfg.VideoBitrate,
		"-c:a", "aac",
		"-b:a", e.cfg.AudioBitrate,
		"-pix_fmt", "yuv420p",
		"-shortest",
		job.Output,
	}
}

// Available reports whether the configured binary runs.
func (e *Encoder) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, "-version")
	if out, err := cmd.Output(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, e.cfg.FFmpegPath, err)
	} else if line, _, _ := strings.Cut(string(out), "\n"); line != "" {
		e.logger.Debug().Str("version", line).Msg("ffmpeg available")
	}
	return nil
}

// Encode checks that ffmpeg is available and then runs it for job. The
// frames directory is never modified.
func (e *Encoder) Encode(ctx context.Context, job Job) error {
	if err := e.Available(ctx); err != nil {
		return err
	}

	args := e.Args(job)
	e.logger.Debug().Strs("args", args).Msg("running ffmpeg")

	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v: %s", ErrFailed, err, tail(stderr.String(), 20))
	}

	e.logger.Info().Str("output", job.Output).Msg("video saved")
	return nil
}

// tail keeps the last n lines of ffmpeg's output, which is where the
// actual error is printed.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
