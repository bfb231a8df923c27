// Package generator drives a full render: audio analysis, per-frame
// animation, compositing and the final encode.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/normanking/lipsync/internal/animation"
	"github.com/normanking/lipsync/internal/assets"
	"github.com/normanking/lipsync/internal/audio"
	"github.com/normanking/lipsync/internal/config"
	"github.com/normanking/lipsync/internal/encoder"
	"github.com/normanking/lipsync/internal/metrics"
	"github.com/normanking/lipsync/internal/progress"
	"github.com/normanking/lipsync/internal/render"
)

// ParallelThreshold is the frame count above which parallel rendering is
// used, when enabled.
const ParallelThreshold = 100

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Frames    int
	Mode      string
	Workers   int
	FramesDir string
	Stats     audio.Stats
	Elapsed   time.Duration

	// VideoPath is set only when the encode succeeded.
	VideoPath string
	// EncodeErr is the encoder failure, if any. The frames are kept.
	EncodeErr     error
	FramesRemoved bool
}

// Generator renders one audio file. Create a new one per input.
type Generator struct {
	cfg       *config.Config
	audioPath string
	runID     string

	track      *audio.Track
	set        *assets.Set
	compositor *render.Compositor

	encoder   VideoEncoder
	newRandom func() animation.Random
	logger    zerolog.Logger
	progress  progress.Reporter
	metrics   *metrics.Recorder
}

// New loads and analyzes the audio and loads every asset layer. Any failure
// here is fatal: no frame is produced.
func New(ctx context.Context, cfg *config.Config, audioPath string, opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg:       cfg,
		audioPath: audioPath,
		runID:     uuid.NewString(),
		logger:    zerolog.Nop(),
		progress:  progress.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.logger = g.logger.With().Str("run_id", g.runID).Logger()
	if g.metrics == nil {
		g.metrics = metrics.New()
	}
	if g.encoder == nil {
		g.encoder = encoder.New(cfg.Output, g.logger)
	}
	if g.newRandom == nil {
		seed := cfg.Animation.Seed
		g.newRandom = func() animation.Random { return animation.NewRandom(seed) }
	}

	started := time.Now()
	loader := &audio.Loader{FFmpegPath: cfg.Output.FFmpegPath, Log: g.logger}
	buf, err := loader.Load(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}
	g.logger.Debug().
		Int("sample_rate", buf.SampleRate).
		Dur("duration", buf.Duration()).
		Msg("audio decoded")
	track, err := audio.Analyze(buf, audio.ParamsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze audio: %w", err)
	}
	g.track = track
	g.metrics.AnalyzeDuration.Observe(time.Since(started).Seconds())
	g.metrics.AudioSeconds.Set(track.Duration().Seconds())

	stats := track.Stats()
	g.logger.Info().
		Str("audio", audioPath).
		Dur("duration", stats.Duration).
		Int("frames", stats.Frames).
		Int("fps", cfg.Output.FPS).
		Msg("audio analyzed")
	g.logger.Debug().
		Float64("talking_ratio", stats.TalkingRatio).
		Float64("speech_ratio", stats.SpeechRatio).
		Int("emphasis_frames", stats.EmphasisFrames).
		Float64("mean_pitch_hz", stats.MeanPitch).
		Msg("speech statistics")

	set, err := assets.Load(cfg.Assets, g.logger.With().Str("component", "assets").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	g.set = set
	g.compositor = render.NewCompositor(set)
	g.checkFrameSize()

	return g, nil
}

func (g *Generator) checkFrameSize() {
	want := g.cfg.Output.FrameSize
	got := g.set.Bounds()
	if len(want) == 2 && (want[0] != got.Dx() || want[1] != got.Dy()) {
		g.logger.Warn().
			Ints("frame_size", want).
			Int("base_width", got.Dx()).
			Int("base_height", got.Dy()).
			Msg("base layer size differs from output.frame_size, frames use the base layer size")
	}
}

// RunID identifies this generator in logs.
func (g *Generator) RunID() string { return g.runID }

// Track returns the analyzed audio.
func (g *Generator) Track() *audio.Track { return g.track }

// Run renders every frame, encodes the video and applies the cleanup rules.
// An encoder failure is reported in Result.EncodeErr, not as an error.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	defer g.writeMetrics()

	dir := g.cfg.Performance.FramesDirectory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	res := &Result{
		RunID:     g.runID,
		Frames:    g.track.Len(),
		Mode:      metrics.ModeSequential,
		Workers:   1,
		FramesDir: dir,
		Stats:     g.track.Stats(),
	}
	if g.cfg.Performance.Parallel && res.Frames > ParallelThreshold {
		res.Mode = metrics.ModeParallel
		res.Workers = g.cfg.Workers()
	}
	g.metrics.Workers.Set(float64(res.Workers))

	encErr := g.encoder.Available(ctx)
	if encErr != nil {
		g.logger.Warn().Err(encErr).Msg("video encoder unavailable, frames will be kept")
	}

	g.logger.Info().
		Str("mode", res.Mode).
		Int("workers", res.Workers).
		Str("frames_dir", dir).
		Msg("rendering frames")

	g.progress.Start("Rendering frames", res.Frames)
	var err error
	if res.Mode == metrics.ModeParallel {
		err = g.renderParallel(ctx, dir, res.Workers)
	} else {
		err = g.renderSequential(ctx, dir)
	}
	g.progress.Finish()

	if err != nil {
		if ctx.Err() != nil {
			res.FramesRemoved = g.cleanup(dir)
			g.logger.Warn().Bool("frames_removed", res.FramesRemoved).Msg("render interrupted")
			return res, fmt.Errorf("render interrupted: %w", ctx.Err())
		}
		return res, err
	}
	g.logger.Info().Str("frames_dir", dir).Msg("frames saved")

	if encErr == nil {
		encStarted := time.Now()
		encErr = g.encoder.Encode(ctx, encoder.Job{
			FramesDir: dir,
			AudioPath: g.audioPath,
			Output:    g.cfg.Output.VideoFile,
		})
		g.metrics.EncodeDuration.Observe(time.Since(encStarted).Seconds())
		if encErr != nil && ctx.Err() != nil {
			return res, fmt.Errorf("encode interrupted: %w", ctx.Err())
		}
	}

	if encErr != nil {
		g.metrics.EncodeFailures.Inc()
		res.EncodeErr = encErr
		g.logger.Warn().Err(encErr).Str("frames_dir", dir).Msg("video encode failed, frames kept")
	} else {
		res.VideoPath = g.cfg.Output.VideoFile
		res.FramesRemoved = g.cleanup(dir)
	}

	res.Elapsed = time.Since(started)
	g.logger.Info().Dur("elapsed", res.Elapsed).Msg("run complete")
	return res, nil
}

// Precompute advances a fresh animation state over every frame in order
// and returns the snapshots. It is the only place animation randomness is
// drawn in parallel mode.
func (g *Generator) Precompute() []animation.Snapshot {
	state := animation.New(g.cfg.Animation, g.newRandom())
	snaps := make([]animation.Snapshot, g.track.Len())
	for i := range snaps {
		snaps[i] = g.step(state, i)
	}
	return snaps
}

func (g *Generator) step(state *animation.State, i int) animation.Snapshot {
	fps := float64(g.cfg.Output.FPS)
	return state.Step(i, float64(i)/fps, 1/fps, animation.Signals(g.track.At(i)))
}

func (g *Generator) renderSequential(ctx context.Context, dir string) error {
	state := animation.New(g.cfg.Animation, g.newRandom())
	for i := 0; i < g.track.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.renderFrame(dir, g.step(state, i), metrics.ModeSequential); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) renderParallel(ctx context.Context, dir string, workers int) error {
	started := time.Now()
	snaps := g.Precompute()
	g.metrics.PrecomputeTime.Set(time.Since(started).Seconds())
	g.logger.Debug().Int("snapshots", len(snaps)).Dur("took", time.Since(started)).Msg("animation precomputed")

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for _, snap := range snaps {
		if ctx.Err() != nil {
			break
		}
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.renderFrame(dir, snap, metrics.ModeParallel)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (g *Generator) renderFrame(dir string, snap animation.Snapshot, mode string) error {
	started := time.Now()
	if err := render.WriteFrame(dir, snap.Index, g.compositor.Compose(snap)); err != nil {
		return err
	}
	g.metrics.ObserveFrame(mode, started)
	g.progress.Increment()
	return nil
}

// cleanup removes the frames directory when configured to and reports
// whether it did.
func (g *Generator) cleanup(dir string) bool {
	if !g.cfg.Performance.CleanupFrames || g.cfg.Debug.KeepFrames {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		g.logger.Warn().Err(err).Str("frames_dir", dir).Msg("failed to remove frames")
		return false
	}
	g.logger.Debug().Str("frames_dir", dir).Msg("frames removed")
	return true
}

func (g *Generator) writeMetrics() {
	path := g.cfg.Debug.MetricsFile
	if path == "" {
		return
	}
	if err := g.metrics.WriteTextfile(path); err != nil {
		g.logger.Warn().Err(err).Msg("failed to write metrics")
	}
}

// IsEncoderMissing reports whether err means ffmpeg could not be found.
func IsEncoderMissing(err error) bool {
	return errors.Is(err, encoder.ErrNotFound)
}
