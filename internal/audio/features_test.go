package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/lipsync/internal/config"
)

func testParams() Params {
	return ParamsFromConfig(config.Default())
}

func TestAnalyze_Silence(t *testing.T) {
	buf := &Buffer{Samples: make([]float64, 16000*2), SampleRate: 16000}
	track, err := Analyze(buf, testParams())
	require.NoError(t, err)

	require.Greater(t, track.Len(), 0)
	for i := 0; i < track.Len(); i++ {
		assert.False(t, track.IsTalking(i), "frame %d", i)
		assert.False(t, track.IsChangePoint(i), "frame %d", i)
		assert.False(t, track.HasEmphasis(i), "frame %d", i)
		assert.Equal(t, 0.0, track.Energy(i))
		assert.Equal(t, 0.0, track.Pitch[i])
	}
}

func TestAnalyze_ArraysAligned(t *testing.T) {
	buf := &Buffer{Samples: sine(180, 22050, 22050*3, 0.6), SampleRate: 22050}
	track, err := Analyze(buf, testParams())
	require.NoError(t, err)

	n := track.Len()
	assert.Len(t, track.Pitch, n)
	assert.Len(t, track.LoudnessDelta, n)
	assert.Len(t, track.PitchDelta, n)
	assert.Len(t, track.Emphasis, n)

	assert.Equal(t, 0.0, track.LoudnessDelta[0])
	assert.Equal(t, 0.0, track.PitchDelta[0])
	for _, d := range track.PitchDelta {
		assert.GreaterOrEqual(t, d, 0.0)
	}
	assert.InDelta(t, 1.0, maxOf(track.Loudness), 1e-12)
}

func TestAnalyze_FrameCountMatchesDuration(t *testing.T) {
	tests := []struct {
		sampleRate, fps int
		seconds         float64
	}{
		{16000, 24, 3},
		{44100, 24, 10},
		{48000, 30, 2.5},
		{22050, 25, 1.3},
	}
	for _, tt := range tests {
		n := int(float64(tt.sampleRate) * tt.seconds)
		buf := &Buffer{Samples: make([]float64, n), SampleRate: tt.sampleRate}
		p := testParams()
		p.FPS = tt.fps

		track, err := Analyze(buf, p)
		require.NoError(t, err)

		want := math.Round(tt.seconds * float64(tt.fps))
		assert.InDelta(t, want, float64(track.Len()), 1, "%d Hz at %d fps", tt.sampleRate, tt.fps)
		assert.Equal(t, int(math.Round(float64(tt.sampleRate)/float64(tt.fps))), track.HopLength)
	}
}

func TestAnalyze_SpeechBurstTalks(t *testing.T) {
	sr := 16000
	samples := make([]float64, sr*3)
	copy(samples[sr:], sine(200, sr, sr, 0.7))
	buf := &Buffer{Samples: samples, SampleRate: sr}

	track, err := Analyze(buf, testParams())
	require.NoError(t, err)

	assert.False(t, track.IsTalking(2), "leading silence")
	assert.True(t, track.IsTalking(track.Len()/2), "middle of the burst")
	assert.False(t, track.IsTalking(track.Len()-2), "trailing silence")

	// onset of the burst is a loudness jump
	onset := -1
	for i := 0; i < track.Len(); i++ {
		if track.IsChangePoint(i) {
			onset = i
			break
		}
	}
	require.NotEqual(t, -1, onset)
	assert.InDelta(t, 24, onset, 2)

	stats := track.Stats()
	assert.Equal(t, track.Len(), stats.Frames)
	assert.InDelta(t, 1.0/3, stats.TalkingRatio, 0.1)
	assert.Greater(t, stats.MeanPitch, 120.0)
	assert.Less(t, stats.MeanPitch, 210.0)
	assert.InDelta(t, 3.0, stats.Duration.Seconds(), 1e-9)
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := Analyze(&Buffer{SampleRate: 16000}, testParams())
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = Analyze(&Buffer{Samples: []float64{0.1}, SampleRate: 0}, testParams())
	assert.ErrorIs(t, err, ErrFormat)

	p := testParams()
	p.FPS = 0
	_, err = Analyze(&Buffer{Samples: []float64{0.1}, SampleRate: 16000}, p)
	assert.Error(t, err)
}

func TestTrack_At(t *testing.T) {
	track := &Track{
		Loudness:          []float64{0, 0.5},
		Pitch:             []float64{0, 0},
		LoudnessDelta:     []float64{0, 0.5},
		PitchDelta:        []float64{0, 0},
		Emphasis:          []bool{false, true},
		talkThreshold:     0.08,
		mouthChangeEnergy: 0.05,
	}
	assert.Equal(t, Features{}, track.At(0))
	assert.Equal(t, Features{Talking: true, ChangePoint: true, Energy: 0.5, Emphasis: true}, track.At(1))
}

func maxOf(x []float64) float64 {
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	return m
}
