package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/normanking/lipsync/internal/config"
)

// changePointPitchPercentile is the pitch-delta percentile above which the
// mouth may switch shape.
const changePointPitchPercentile = 90

// Params configures feature extraction
type Params struct {
	FPS                      int
	TalkThreshold            float64
	MouthChangeEnergy        float64
	PitchMin                 float64
	PitchMax                 float64
	PitchSmoothing           float64
	EmphasisPitchPercentile  float64
	EmphasisEnergyPercentile float64
}

// ParamsFromConfig extracts the analysis settings from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	a := cfg.Audio
	return Params{
		FPS:                      cfg.Output.FPS,
		TalkThreshold:            a.TalkThreshold,
		MouthChangeEnergy:        a.MouthChangeEnergy,
		PitchMin:                 a.PitchMin,
		PitchMax:                 a.PitchMax,
		PitchSmoothing:           a.PitchSmoothing,
		EmphasisPitchPercentile:  a.EmphasisPitchThreshold,
		EmphasisEnergyPercentile: a.EmphasisEnergyThreshold,
	}
}

// Track holds per-frame features aligned 1:1 with output video frames.
type Track struct {
	SampleRate int
	HopLength  int
	FPS        int
	NumSamples int

	Loudness      []float64 // RMS normalized by its peak
	Pitch         []float64 // Hz, smoothed, 0 when unvoiced
	LoudnessDelta []float64
	PitchDelta    []float64
	Emphasis      []bool

	talkThreshold     float64
	mouthChangeEnergy float64
	changePitchCutoff float64
}

// Analyze extracts loudness, pitch, deltas and emphasis points from buf.
func Analyze(buf *Buffer, p Params) (*Track, error) {
	if len(buf.Samples) == 0 {
		return nil, ErrNoSamples
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrFormat, buf.SampleRate)
	}
	if p.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", p.FPS)
	}

	hop := max(1, int(math.Round(float64(buf.SampleRate)/float64(p.FPS))))

	loudness := RMS(buf.Samples, hop)
	NormalizePeak(loudness)

	tracker := NewPitchTracker(buf.SampleRate, p.PitchMin, p.PitchMax)
	pitch := GaussianSmooth(tracker.Track(buf.Samples, hop), p.PitchSmoothing)

	t := &Track{
		SampleRate:        buf.SampleRate,
		HopLength:         hop,
		FPS:               p.FPS,
		NumSamples:        len(buf.Samples),
		Loudness:          loudness,
		Pitch:             pitch,
		LoudnessDelta:     Diff(loudness),
		PitchDelta:        AbsDiff(pitch),
		talkThreshold:     p.TalkThreshold,
		mouthChangeEnergy: p.MouthChangeEnergy,
	}

	pitchCutoff := Percentile(t.PitchDelta, p.EmphasisPitchPercentile)
	energyCutoff := Percentile(t.LoudnessDelta, p.EmphasisEnergyPercentile)
	t.Emphasis = make([]bool, len(loudness))
	for i := range t.Emphasis {
		t.Emphasis[i] = t.PitchDelta[i] > pitchCutoff || t.LoudnessDelta[i] > energyCutoff
	}
	t.changePitchCutoff = Percentile(t.PitchDelta, changePointPitchPercentile)

	return t, nil
}

// Len is the number of frames.
func (t *Track) Len() int { return len(t.Loudness) }

// Duration is the length of the source audio.
func (t *Track) Duration() time.Duration {
	return time.Duration(float64(t.NumSamples) / float64(t.SampleRate) * float64(time.Second))
}

func (t *Track) IsTalking(i int) bool {
	return t.Loudness[i] > t.talkThreshold
}

// IsChangePoint reports whether the mouth may change shape at frame i.
func (t *Track) IsChangePoint(i int) bool {
	return t.LoudnessDelta[i] > t.mouthChangeEnergy || t.PitchDelta[i] > t.changePitchCutoff
}

func (t *Track) Energy(i int) float64 { return t.Loudness[i] }

func (t *Track) HasEmphasis(i int) bool { return t.Emphasis[i] }

// At gathers the features for frame i.
func (t *Track) At(i int) Features {
	return Features{
		Talking:     t.IsTalking(i),
		ChangePoint: t.IsChangePoint(i),
		Energy:      t.Energy(i),
		Emphasis:    t.HasEmphasis(i),
	}
}

// Stats summarizes a track for logging
type Stats struct {
	Duration       time.Duration
	Frames         int
	TalkingRatio   float64
	SpeechRatio    float64 // frames louder than half the mean loudness
	EmphasisFrames int
	MeanPitch      float64 // over voiced talking frames
}

func (t *Track) Stats() Stats {
	s := Stats{Duration: t.Duration(), Frames: t.Len()}
	if s.Frames == 0 {
		return s
	}

	var loudSum float64
	for _, v := range t.Loudness {
		loudSum += v
	}
	speechCutoff := loudSum / float64(s.Frames) * 0.5

	var talking, speech, voiced int
	var pitchSum float64
	for i := 0; i < s.Frames; i++ {
		if t.IsTalking(i) {
			talking++
			if t.Pitch[i] > 0 {
				voiced++
				pitchSum += t.Pitch[i]
			}
		}
		if t.Loudness[i] > speechCutoff {
			speech++
		}
		if t.Emphasis[i] {
			s.EmphasisFrames++
		}
	}
	s.TalkingRatio = float64(talking) / float64(s.Frames)
	s.SpeechRatio = float64(speech) / float64(s.Frames)
	if voiced > 0 {
		s.MeanPitch = pitchSum / float64(voiced)
	}
	return s
}
