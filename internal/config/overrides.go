package config

// Overrides holds command-line values that take precedence over the file and
// the environment. Nil fields leave the loaded value untouched.
type Overrides struct {
	VideoFile    *string
	FPS          *int
	VideoCodec   *string
	VideoPreset  *string
	VideoBitrate *string
	AudioBitrate *string
	FFmpegPath   *string

	AssetsDir *string

	TalkThreshold     *float64
	MouthChangeEnergy *float64
	PitchMin          *float64
	PitchMax          *float64
	PitchSmoothing    *float64
	EmphasisPitch     *float64
	EmphasisEnergy    *float64

	Seed             *int64
	SmallThreshold   *float64
	MediumThreshold  *float64
	MouthLerp        *bool
	BlinkEnabled     *bool
	HeadBobEnabled   *bool
	HeadBobAmount    *float64
	BreathingEnabled *bool
	DriftEnabled     *bool
	DartEnabled      *bool
	DartChance       *float64
	EyeLerp          *bool
	EyebrowsEnabled  *bool

	Parallel      *bool
	NumWorkers    *int
	CleanupFrames *bool
	FramesDir     *string

	KeepFrames   *bool
	ShowProgress *bool
	Verbose      *bool
	LogFile      *string
	MetricsFile  *string
}

// Apply copies every set override onto cfg.
func (o *Overrides) Apply(cfg *Config) {
	if o == nil {
		return
	}

	set(&cfg.Output.VideoFile, o.VideoFile)
	set(&cfg.Output.FPS, o.FPS)
	set(&cfg.Output.VideoCodec, o.VideoCodec)
	set(&cfg.Output.VideoPreset, o.VideoPreset)
	set(&cfg.Output.VideoBitrate, o.VideoBitrate)
	set(&cfg.Output.AudioBitrate, o.AudioBitrate)
	set(&cfg.Output.FFmpegPath, o.FFmpegPath)

	set(&cfg.Assets.Directory, o.AssetsDir)

	set(&cfg.Audio.TalkThreshold, o.TalkThreshold)
	set(&cfg.Audio.MouthChangeEnergy, o.MouthChangeEnergy)
	set(&cfg.Audio.PitchMin, o.PitchMin)
	set(&cfg.Audio.PitchMax, o.PitchMax)
	set(&cfg.Audio.PitchSmoothing, o.PitchSmoothing)
	set(&cfg.Audio.EmphasisPitchThreshold, o.EmphasisPitch)
	set(&cfg.Audio.EmphasisEnergyThreshold, o.EmphasisEnergy)

	an := &cfg.Animation
	set(&an.Seed, o.Seed)
	set(&an.Mouth.SmallThreshold, o.SmallThreshold)
	set(&an.Mouth.MediumThreshold, o.MediumThreshold)
	set(&an.Mouth.LerpEnabled, o.MouthLerp)
	set(&an.Blink.Enabled, o.BlinkEnabled)
	set(&an.HeadBob.Enabled, o.HeadBobEnabled)
	set(&an.HeadBob.Amount, o.HeadBobAmount)
	set(&an.Breathing.Enabled, o.BreathingEnabled)
	set(&an.Eyes.DriftEnabled, o.DriftEnabled)
	set(&an.Eyes.DartEnabled, o.DartEnabled)
	set(&an.Eyes.DartChance, o.DartChance)
	set(&an.Eyes.LerpEnabled, o.EyeLerp)
	set(&an.Eyebrows.Enabled, o.EyebrowsEnabled)

	set(&cfg.Performance.Parallel, o.Parallel)
	set(&cfg.Performance.NumWorkers, o.NumWorkers)
	set(&cfg.Performance.CleanupFrames, o.CleanupFrames)
	set(&cfg.Performance.FramesDirectory, o.FramesDir)

	set(&cfg.Debug.KeepFrames, o.KeepFrames)
	set(&cfg.Debug.ShowProgress, o.ShowProgress)
	set(&cfg.Debug.Verbose, o.Verbose)
	set(&cfg.Debug.LogFile, o.LogFile)
	set(&cfg.Debug.MetricsFile, o.MetricsFile)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
