package main

import (
	"github.com/spf13/cobra"

	"github.com/normanking/lipsync/internal/config"
)

// renderOptions holds the raw flag values. Only flags the user actually set
// become overrides.
type renderOptions struct {
	configPath string
	v          flagValues
}

type flagValues struct {
	output, codec, preset, vbitrate, abitrate, ffmpeg string
	fps                                               int

	assets string

	talkThreshold, changeEnergy, pitchMin, pitchMax, pitchSmoothing float64
	emphasisPitch, emphasisEnergy                                   float64

	seed                                 int64
	smallThreshold, mediumThreshold      float64
	mouthLerp, blink, headBob, breathing bool
	drift, dart, eyeLerp, eyebrows       bool
	headBobAmount, dartChance            float64

	parallel, cleanup bool
	workers           int
	framesDir         string

	keepFrames, progress, verbose bool
	logFile, metricsFile          string
}

func (o *renderOptions) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	v := &o.v

	f.StringVarP(&v.output, "output", "o", "", "output video file")
	f.IntVar(&v.fps, "fps", 0, "frames per second")
	f.StringVar(&v.codec, "codec", "", "video codec")
	f.StringVar(&v.preset, "preset", "", "video encoder preset")
	f.StringVar(&v.vbitrate, "video-bitrate", "", "video bitrate, e.g. 5M")
	f.StringVar(&v.abitrate, "audio-bitrate", "", "audio bitrate, e.g. 192k")
	f.StringVar(&v.ffmpeg, "ffmpeg", "", "path to the ffmpeg binary")

	f.StringVarP(&v.assets, "assets", "a", "", "asset directory")

	f.Float64Var(&v.talkThreshold, "talk-threshold", 0, "normalized loudness above which the character is talking")
	f.Float64Var(&v.changeEnergy, "mouth-change-energy", 0, "loudness rise that allows a mouth change")
	f.Float64Var(&v.pitchMin, "pitch-min", 0, "lowest pitch to track, Hz")
	f.Float64Var(&v.pitchMax, "pitch-max", 0, "highest pitch to track, Hz")
	f.Float64Var(&v.pitchSmoothing, "pitch-smoothing", 0, "pitch smoothing sigma, frames")
	f.Float64Var(&v.emphasisPitch, "emphasis-pitch", 0, "pitch change percentile that counts as emphasis")
	f.Float64Var(&v.emphasisEnergy, "emphasis-energy", 0, "loudness change percentile that counts as emphasis")

	f.Int64Var(&v.seed, "seed", 0, "random seed for blinks and eye darts (0 = random)")
	f.Float64Var(&v.smallThreshold, "small-threshold", 0, "loudness below which the mouth is small")
	f.Float64Var(&v.mediumThreshold, "medium-threshold", 0, "loudness below which the mouth is medium")
	f.BoolVar(&v.mouthLerp, "mouth-lerp", false, "smooth mouth openness")
	f.BoolVar(&v.blink, "blink", false, "enable blinking")
	f.BoolVar(&v.headBob, "head-bob", false, "enable head bob")
	f.Float64Var(&v.headBobAmount, "head-bob-amount", 0, "head bob amplitude, pixels")
	f.BoolVar(&v.breathing, "breathing", false, "enable breathing motion")
	f.BoolVar(&v.drift, "eye-drift", false, "enable eye drift")
	f.BoolVar(&v.dart, "eye-dart", false, "enable eye darts")
	f.Float64Var(&v.dartChance, "dart-chance", 0, "per-frame eye dart probability")
	f.BoolVar(&v.eyeLerp, "eye-lerp", false, "smooth eye movement")
	f.BoolVar(&v.eyebrows, "eyebrows", false, "enable eyebrow raises")

	f.BoolVar(&v.parallel, "parallel", false, "render frames in parallel")
	f.IntVarP(&v.workers, "workers", "w", 0, "parallel render workers (0 = CPUs - 1)")
	f.BoolVar(&v.cleanup, "cleanup", false, "delete frames after a successful encode")
	f.StringVar(&v.framesDir, "frames-dir", "", "directory for rendered frames")

	f.BoolVar(&v.keepFrames, "keep-frames", false, "never delete rendered frames")
	f.BoolVar(&v.progress, "progress", false, "show a progress bar")
	f.BoolVarP(&v.verbose, "verbose", "v", false, "verbose logging")
	f.StringVar(&v.logFile, "log-file", "", "also write logs to this file")
	f.StringVar(&v.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
}

// overrides collects the flags set on cmd.
func (o *renderOptions) overrides(cmd *cobra.Command) *config.Overrides {
	on := cmd.Flags().Changed
	v := &o.v

	return &config.Overrides{
		VideoFile:    changed(on, "output", &v.output),
		FPS:          changed(on, "fps", &v.fps),
		VideoCodec:   changed(on, "codec", &v.codec),
		VideoPreset:  changed(on, "preset", &v.preset),
		VideoBitrate: changed(on, "video-bitrate", &v.vbitrate),
		AudioBitrate: changed(on, "audio-bitrate", &v.abitrate),
		FFmpegPath:   changed(on, "ffmpeg", &v.ffmpeg),

		AssetsDir: changed(on, "assets", &v.assets),

		TalkThreshold:     changed(on, "talk-threshold", &v.talkThreshold),
		MouthChangeEnergy: changed(on, "mouth-change-energy", &v.changeEnergy),
		PitchMin:          changed(on, "pitch-min", &v.pitchMin),
		PitchMax:          changed(on, "pitch-max", &v.pitchMax),
		PitchSmoothing:    changed(on, "pitch-smoothing", &v.pitchSmoothing),
		EmphasisPitch:     changed(on, "emphasis-pitch", &v.emphasisPitch),
		EmphasisEnergy:    changed(on, "emphasis-energy", &v.emphasisEnergy),

		Seed:             changed(on, "seed", &v.seed),
		SmallThreshold:   changed(on, "small-threshold", &v.smallThreshold),
		MediumThreshold:  changed(on, "medium-threshold", &v.mediumThreshold),
		MouthLerp:        changed(on, "mouth-lerp", &v.mouthLerp),
		BlinkEnabled:     changed(on, "blink", &v.blink),
		HeadBobEnabled:   changed(on, "head-bob", &v.headBob),
		HeadBobAmount:    changed(on, "head-bob-amount", &v.headBobAmount),
		BreathingEnabled: changed(on, "breathing", &v.breathing),
		DriftEnabled:     changed(on, "eye-drift", &v.drift),
		DartEnabled:      changed(on, "eye-dart", &v.dart),
		DartChance:       changed(on, "dart-chance", &v.dartChance),
		EyeLerp:          changed(on, "eye-lerp", &v.eyeLerp),
		EyebrowsEnabled:  changed(on, "eyebrows", &v.eyebrows),

		Parallel:      changed(on, "parallel", &v.parallel),
		NumWorkers:    changed(on, "workers", &v.workers),
		CleanupFrames: changed(on, "cleanup", &v.cleanup),
		FramesDir:     changed(on, "frames-dir", &v.framesDir),

		KeepFrames:   changed(on, "keep-frames", &v.keepFrames),
		ShowProgress: changed(on, "progress", &v.progress),
		Verbose:      changed(on, "verbose", &v.verbose),
		LogFile:      changed(on, "log-file", &v.logFile),
		MetricsFile:  changed(on, "metrics-file", &v.metricsFile),
	}
}

func changed[T any](on func(string) bool, name string, v *T) *T {
	if on(name) {
		return v
	}
	return nil
}

// loadConfig layers defaults, the config file, the environment and the
// flags, then validates the result.
func (o *renderOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromPath(o.configPath)
	if err != nil {
		return nil, err
	}
	o.overrides(cmd).Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
