// Package config provides configuration management for the lipsync renderer.
//
// Values are resolved in layers: built-in defaults, an optional YAML file,
// LIPSYNC_* environment variables and finally command-line overrides. A
// missing file is not an error; malformed content is.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to environment variable overrides.
// Example: LIPSYNC_ANIMATION_BLINK_ENABLED=false
const EnvPrefix = "LIPSYNC"

// Config holds all renderer configuration
type Config struct {
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Assets      AssetsConfig      `mapstructure:"assets" yaml:"assets"`
	Audio       AudioConfig       `mapstructure:"audio" yaml:"audio"`
	Animation   AnimationConfig   `mapstructure:"animation" yaml:"animation"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Debug       DebugConfig       `mapstructure:"debug" yaml:"debug"`
}

// OutputConfig configures the encoded video
type OutputConfig struct {
	VideoFile    string `mapstructure:"video_file" yaml:"video_file"`
	FPS          int    `mapstructure:"fps" yaml:"fps"`
	FrameSize    []int  `mapstructure:"frame_size" yaml:"frame_size"` // [width, height], advisory
	VideoCodec   string `mapstructure:"video_codec" yaml:"video_codec"`
	VideoPreset  string `mapstructure:"video_preset" yaml:"video_preset"`
	VideoBitrate string `mapstructure:"video_bitrate" yaml:"video_bitrate"`
	AudioBitrate string `mapstructure:"audio_bitrate" yaml:"audio_bitrate"`
	FFmpegPath   string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// AssetsConfig names the image layers, relative to Directory
type AssetsConfig struct {
	Directory  string        `mapstructure:"directory" yaml:"directory"`
	Base       string        `mapstructure:"base" yaml:"base"`
	EyesOpen   string        `mapstructure:"eyes_open" yaml:"eyes_open"`
	EyesClosed string        `mapstructure:"eyes_closed" yaml:"eyes_closed"`
	Mouths     MouthAssets   `mapstructure:"mouths" yaml:"mouths"`
	Eyebrows   EyebrowAssets `mapstructure:"eyebrows" yaml:"eyebrows"`
}

type MouthAssets struct {
	Closed string `mapstructure:"closed" yaml:"closed"`
	Small  string `mapstructure:"small" yaml:"small"`
	Medium string `mapstructure:"medium" yaml:"medium"`
	Wide   string `mapstructure:"wide" yaml:"wide"`
}

type EyebrowAssets struct {
	Normal string `mapstructure:"normal" yaml:"normal"`
	Raised string `mapstructure:"raised" yaml:"raised"`
}

// AudioConfig configures feature extraction
type AudioConfig struct {
	TalkThreshold           float64 `mapstructure:"talk_threshold" yaml:"talk_threshold"`
	MouthChangeEnergy       float64 `mapstructure:"mouth_change_energy" yaml:"mouth_change_energy"`
	PitchMin                float64 `mapstructure:"pitch_min" yaml:"pitch_min"`
	PitchMax                float64 `mapstructure:"pitch_max" yaml:"pitch_max"`
	PitchSmoothing          float64 `mapstructure:"pitch_smoothing" yaml:"pitch_smoothing"`                     // gaussian sigma, in frames
	EmphasisPitchThreshold  float64 `mapstructure:"emphasis_pitch_threshold" yaml:"emphasis_pitch_threshold"`   // percentile, 0-100
	EmphasisEnergyThreshold float64 `mapstructure:"emphasis_energy_threshold" yaml:"emphasis_energy_threshold"` // percentile, 0-100
}

// AnimationConfig configures the facial state machine
type AnimationConfig struct {
	Seed      int64           `mapstructure:"seed" yaml:"seed"` // 0 seeds from the clock
	Mouth     MouthConfig     `mapstructure:"mouth" yaml:"mouth"`
	Blink     BlinkConfig     `mapstructure:"blink" yaml:"blink"`
	HeadBob   HeadBobConfig   `mapstructure:"head_bob" yaml:"head_bob"`
	Breathing BreathingConfig `mapstructure:"breathing" yaml:"breathing"`
	Eyes      EyesConfig      `mapstructure:"eyes" yaml:"eyes"`
	Eyebrows  EyebrowsConfig  `mapstructure:"eyebrows" yaml:"eyebrows"`
}

type MouthConfig struct {
	SmallThreshold  float64 `mapstructure:"small_threshold" yaml:"small_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold" yaml:"medium_threshold"`
	LerpEnabled     bool    `mapstructure:"lerp_enabled" yaml:"lerp_enabled"`
	LerpSpeed       float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
}

type BlinkConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	MinInterval float64 `mapstructure:"min_interval" yaml:"min_interval"` // seconds
	MaxInterval float64 `mapstructure:"max_interval" yaml:"max_interval"`
	Duration    float64 `mapstructure:"duration" yaml:"duration"`
}

type HeadBobConfig struct {
	Enabled         bool    `mapstructure:"enabled" yaml:"enabled"`
	Amount          float64 `mapstructure:"amount" yaml:"amount"` // pixels
	Speed           float64 `mapstructure:"speed" yaml:"speed"`   // cycles per second
	OnlyWhenTalking bool    `mapstructure:"only_when_talking" yaml:"only_when_talking"`
	LerpEnabled     bool    `mapstructure:"lerp_enabled" yaml:"lerp_enabled"`
	LerpSpeed       float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
}

type BreathingConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Amount       float64 `mapstructure:"amount" yaml:"amount"`
	Speed        float64 `mapstructure:"speed" yaml:"speed"`
	TalkingScale float64 `mapstructure:"talking_scale" yaml:"talking_scale"`
	LerpEnabled  bool    `mapstructure:"lerp_enabled" yaml:"lerp_enabled"`
	LerpSpeed    float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
}

type EyesConfig struct {
	DriftEnabled bool    `mapstructure:"drift_enabled" yaml:"drift_enabled"`
	DriftSpeed   float64 `mapstructure:"drift_speed" yaml:"drift_speed"`
	DriftAmountX float64 `mapstructure:"drift_amount_x" yaml:"drift_amount_x"`
	DriftAmountY float64 `mapstructure:"drift_amount_y" yaml:"drift_amount_y"`
	DartEnabled  bool    `mapstructure:"dart_enabled" yaml:"dart_enabled"`
	DartChance   float64 `mapstructure:"dart_chance" yaml:"dart_chance"` // per frame
	DartDuration float64 `mapstructure:"dart_duration" yaml:"dart_duration"`
	DartRangeX   int     `mapstructure:"dart_range_x" yaml:"dart_range_x"`
	DartRangeY   int     `mapstructure:"dart_range_y" yaml:"dart_range_y"`
	LerpEnabled  bool    `mapstructure:"lerp_enabled" yaml:"lerp_enabled"`
	LerpSpeed    float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
}

type EyebrowsConfig struct {
	Enabled         bool    `mapstructure:"enabled" yaml:"enabled"`
	RaiseOnEmphasis bool    `mapstructure:"raise_on_emphasis" yaml:"raise_on_emphasis"`
	HoldDuration    float64 `mapstructure:"hold_duration" yaml:"hold_duration"`
	LerpEnabled     bool    `mapstructure:"lerp_enabled" yaml:"lerp_enabled"`
	LerpSpeed       float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
}

// PerformanceConfig configures frame rendering
type PerformanceConfig struct {
	Parallel        bool   `mapstructure:"parallel" yaml:"parallel"`
	NumWorkers      int    `mapstructure:"num_workers" yaml:"num_workers"` // 0 = NumCPU-1
	CleanupFrames   bool   `mapstructure:"cleanup_frames" yaml:"cleanup_frames"`
	FramesDirectory string `mapstructure:"frames_directory" yaml:"frames_directory"`
}

type DebugConfig struct {
	KeepFrames   bool   `mapstructure:"keep_frames" yaml:"keep_frames"`
	ShowProgress bool   `mapstructure:"show_progress" yaml:"show_progress"`
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	MetricsFile  string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			VideoFile:    "output.mp4",
			FPS:          24,
			FrameSize:    []int{2048, 2048},
			VideoCodec:   "libx264",
			VideoPreset:  "medium",
			VideoBitrate: "5M",
			AudioBitrate: "192k",
			FFmpegPath:   "ffmpeg",
		},
		Assets: AssetsConfig{
			Directory:  "assets",
			Base:       "base.png",
			EyesOpen:   "eyes_open.png",
			EyesClosed: "eyes_closed.png",
			Mouths: MouthAssets{
				Closed: "mouth_closed.png",
				Small:  "mouth_small.png",
				Medium: "mouth_medium.png",
				Wide:   "mouth_wide.png",
			},
			Eyebrows: EyebrowAssets{
				Normal: "eyebrows_normal.png",
				Raised: "eyebrows_raised.png",
			},
		},
		Audio: AudioConfig{
			TalkThreshold:           0.08,
			MouthChangeEnergy:       0.05,
			PitchMin:                80,
			PitchMax:                400,
			PitchSmoothing:          5,
			EmphasisPitchThreshold:  85,
			EmphasisEnergyThreshold: 85,
		},
		Animation: AnimationConfig{
			Mouth: MouthConfig{
				SmallThreshold:  0.25,
				MediumThreshold: 0.6,
				LerpEnabled:     true,
				LerpSpeed:       0.3,
			},
			Blink: BlinkConfig{
				Enabled:     true,
				MinInterval: 3.0,
				MaxInterval: 6.0,
				Duration:    0.15,
			},
			HeadBob: HeadBobConfig{
				Enabled:         true,
				Amount:          8,
				Speed:           0.5,
				OnlyWhenTalking: true,
				LerpEnabled:     true,
				LerpSpeed:       0.2,
			},
			Breathing: BreathingConfig{
				Enabled:      true,
				Amount:       3,
				Speed:        0.3,
				TalkingScale: 0.3,
				LerpEnabled:  true,
				LerpSpeed:    0.15,
			},
			Eyes: EyesConfig{
				DriftEnabled: true,
				DriftSpeed:   0.7,
				DriftAmountX: 4,
				DriftAmountY: 3,
				DartEnabled:  true,
				DartChance:   0.02,
				DartDuration: 0.2,
				DartRangeX:   15,
				DartRangeY:   10,
				LerpEnabled:  true,
				LerpSpeed:    0.25,
			},
			Eyebrows: EyebrowsConfig{
				Enabled:         true,
				RaiseOnEmphasis: true,
				HoldDuration:    0.3,
				LerpEnabled:     true,
				LerpSpeed:       0.4,
			},
		},
		Performance: PerformanceConfig{
			Parallel:        true,
			CleanupFrames:   true,
			FramesDirectory: "frames",
		},
		Debug: DebugConfig{
			ShowProgress: true,
		},
	}
}

// LoadFromPath layers the YAML file at path over the defaults. A file that
// does not exist yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// WriteFile saves cfg as YAML, creating parent directories as needed.
func WriteFile(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Workers returns the render worker count, defaulting to one less than the
// number of CPUs.
func (c *Config) Workers() int {
	if c.Performance.NumWorkers > 0 {
		return c.Performance.NumWorkers
	}
	return max(1, runtime.NumCPU()-1)
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	o := c.Output
	if o.FPS <= 0 {
		return invalid("output.fps must be positive, got %d", o.FPS)
	}
	if len(o.FrameSize) != 2 || o.FrameSize[0] <= 0 || o.FrameSize[1] <= 0 {
		return invalid("output.frame_size must be [width, height] with positive values, got %v", o.FrameSize)
	}
	if o.VideoFile == "" {
		return invalid("output.video_file cannot be empty")
	}
	if o.VideoCodec == "" {
		return invalid("output.video_codec cannot be empty")
	}

	a := c.Audio
	if a.PitchMin <= 0 || a.PitchMin >= a.PitchMax {
		return invalid("audio.pitch_min must be positive and below pitch_max (%g, %g)", a.PitchMin, a.PitchMax)
	}
	if a.PitchSmoothing < 0 {
		return invalid("audio.pitch_smoothing cannot be negative")
	}
	if !isPercentile(a.EmphasisPitchThreshold) || !isPercentile(a.EmphasisEnergyThreshold) {
		return invalid("audio emphasis thresholds must be percentiles between 0 and 100")
	}

	an := c.Animation
	if an.Mouth.SmallThreshold > an.Mouth.MediumThreshold {
		return invalid("animation.mouth.small_threshold (%g) exceeds medium_threshold (%g)",
			an.Mouth.SmallThreshold, an.Mouth.MediumThreshold)
	}
	if an.Blink.MinInterval < 0 || an.Blink.MinInterval > an.Blink.MaxInterval {
		return invalid("animation.blink interval [%g, %g] is not a valid range", an.Blink.MinInterval, an.Blink.MaxInterval)
	}
	if an.Blink.Duration <= 0 {
		return invalid("animation.blink.duration must be positive")
	}
	if an.Eyes.DartChance < 0 || an.Eyes.DartChance > 1 {
		return invalid("animation.eyes.dart_chance must be between 0 and 1, got %g", an.Eyes.DartChance)
	}
	if an.Eyes.DartDuration <= 0 {
		return invalid("animation.eyes.dart_duration must be positive")
	}
	if an.Eyes.DartRangeX < 0 || an.Eyes.DartRangeY < 0 {
		return invalid("animation.eyes dart ranges cannot be negative")
	}
	if an.Eyebrows.HoldDuration < 0 {
		return invalid("animation.eyebrows.hold_duration cannot be negative")
	}
	speeds := map[string]float64{
		"mouth":     an.Mouth.LerpSpeed,
		"head_bob":  an.HeadBob.LerpSpeed,
		"breathing": an.Breathing.LerpSpeed,
		"eyes":      an.Eyes.LerpSpeed,
		"eyebrows":  an.Eyebrows.LerpSpeed,
	}
	for name, speed := range speeds {
		if speed < 0 {
			return invalid("animation.%s.lerp_speed cannot be negative", name)
		}
	}

	if c.Performance.NumWorkers < 0 {
		return invalid("performance.num_workers cannot be negative")
	}
	if c.Performance.FramesDirectory == "" {
		return invalid("performance.frames_directory cannot be empty")
	}
	return nil
}

func isPercentile(p float64) bool {
	return p >= 0 && p <= 100
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
