package generator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/normanking/lipsync/internal/animation"
	"github.com/normanking/lipsync/internal/encoder"
	"github.com/normanking/lipsync/internal/metrics"
	"github.com/normanking/lipsync/internal/progress"
)

// VideoEncoder turns a directory of frames plus the source audio into a
// video file.
type VideoEncoder interface {
	Available(ctx context.Context) error
	Encode(ctx context.Context, job encoder.Job) error
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger; every line is tagged with the run id.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithProgress sets the frame progress reporter.
func WithProgress(r progress.Reporter) Option {
	return func(g *Generator) {
		g.progress = r
	}
}

// WithMetrics records into r instead of a private recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(g *Generator) {
		g.metrics = r
	}
}

// WithEncoder replaces the ffmpeg encoder.
func WithEncoder(e VideoEncoder) Option {
	return func(g *Generator) {
		g.encoder = e
	}
}

// WithRandom makes every animation pass draw from the source returned by
// fn instead of one seeded from animation.seed.
func WithRandom(fn func() animation.Random) Option {
	return func(g *Generator) {
		g.newRandom = fn
	}
}
