// Package metrics records render timings for a single run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render modes used as the "mode" label.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Recorder owns a private registry so that runs in the same process do not
// share counters.
type Recorder struct {
	registry *prometheus.Registry

	FramesRendered  *prometheus.CounterVec
	FrameDuration   prometheus.Histogram
	AnalyzeDuration prometheus.Histogram
	PrecomputeTime  prometheus.Gauge
	EncodeDuration  prometheus.Histogram
	EncodeFailures  prometheus.Counter
	AudioSeconds    prometheus.Gauge
	Workers         prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FramesRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lipsync_frames_rendered_total",
				Help: "Total number of frames composited and written",
			},
			[]string{"mode"},
		),
		FrameDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lipsync_frame_render_duration_seconds",
				Help:    "Time to composite and write one frame",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		AnalyzeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "lipsync_audio_analyze_duration_seconds",
				Help: "Time to decode and analyze the input audio",
			},
		),
		PrecomputeTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lipsync_precompute_duration_seconds",
				Help: "Time spent in the sequential snapshot pass",
			},
		),
		EncodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lipsync_encode_duration_seconds",
				Help:    "Time spent in the video encoder",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		EncodeFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lipsync_encode_failures_total",
				Help: "Total number of failed encoder runs",
			},
		),
		AudioSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lipsync_audio_duration_seconds",
				Help: "Duration of the input audio",
			},
		),
		Workers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lipsync_render_workers",
				Help: "Number of frame render workers",
			},
		),
	}
}

// ObserveFrame records one written frame.
func (r *Recorder) ObserveFrame(mode string, started time.Time) {
	r.FramesRendered.WithLabelValues(mode).Inc()
	r.FrameDuration.Observe(time.Since(started).Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
