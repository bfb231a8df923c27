package animation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/lipsync/internal/config"
)

const dt = 1.0 / 24

// scripted replays fixed draws, repeating the last one.
type scripted struct {
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scripted) IntN(n int) int {
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return min(v, n-1)
}

// never returns draws that trigger nothing random.
func never() *scripted {
	return &scripted{floats: []float64{0.999}, ints: []int{0}}
}

func testConfig() config.AnimationConfig {
	return config.Default().Animation
}

func instantMouth() config.AnimationConfig {
	cfg := testConfig()
	cfg.Mouth.LerpEnabled = false
	return cfg
}

func TestMouth_ClosedWhenNotTalking(t *testing.T) {
	for _, lerp := range []bool{true, false} {
		cfg := testConfig()
		cfg.Mouth.LerpEnabled = lerp
		s := New(cfg, never())

		// open it first
		for i := 0; i < 30; i++ {
			s.Advance(Signals{Talking: true, ChangePoint: true, Energy: 0.9}, dt)
		}
		_, target := s.Mouth()
		require.Equal(t, MouthWide, target)

		s.Advance(Signals{Talking: false, ChangePoint: true, Energy: 0.9}, dt)
		_, target = s.Mouth()
		assert.Equal(t, MouthClosed, target, "lerp=%v", lerp)

		if !lerp {
			displayed, _ := s.Mouth()
			assert.Equal(t, MouthClosed, displayed)
		}
	}
}

func TestMouth_EnergyBuckets(t *testing.T) {
	tests := []struct {
		energy float64
		want   MouthShape
	}{
		{0.0, MouthSmall},
		{0.1, MouthSmall},
		{0.25, MouthMedium},
		{0.4, MouthMedium},
		{0.6, MouthWide},
		{0.8, MouthWide},
	}
	for _, tt := range tests {
		s := New(instantMouth(), never())
		s.Advance(Signals{Talking: true, ChangePoint: true, Energy: tt.energy}, dt)
		displayed, target := s.Mouth()
		assert.Equal(t, tt.want, target, "energy %g", tt.energy)
		assert.Equal(t, tt.want, displayed, "energy %g", tt.energy)
	}
}

func TestMouth_HoldsBetweenChangePoints(t *testing.T) {
	s := New(instantMouth(), never())
	s.Advance(Signals{Talking: true, ChangePoint: true, Energy: 0.4}, dt)

	for _, e := range []float64{0.05, 0.95, 0.3} {
		s.Advance(Signals{Talking: true, ChangePoint: false, Energy: e}, dt)
		displayed, _ := s.Mouth()
		assert.Equal(t, MouthMedium, displayed)
	}

	s.Advance(Signals{Talking: true, ChangePoint: true, Energy: 0.95}, dt)
	displayed, _ := s.Mouth()
	assert.Equal(t, MouthWide, displayed)
}

func TestMouth_SmoothedOpensGradually(t *testing.T) {
	s := New(testConfig(), never())

	var seen []MouthShape
	for i := 0; i < 60; i++ {
		s.Advance(Signals{Talking: true, ChangePoint: i == 0, Energy: 0.9}, dt)
		displayed, _ := s.Mouth()
		seen = append(seen, displayed)
	}

	assert.NotEqual(t, MouthWide, seen[0], "displayed shape lags the target")
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "frame %d", i)
	}
	assert.Equal(t, MouthWide, seen[len(seen)-1])
	assert.Equal(t, 1.0, s.Openness())
}

func TestMouth_SmoothedHysteresis(t *testing.T) {
	s := New(testConfig(), never())
	// target small (0.33) from closed: displayed becomes small once openness passes 0.15
	for i := 0; i < 200; i++ {
		s.Advance(Signals{Talking: true, ChangePoint: i == 0, Energy: 0.1}, dt)
	}
	displayed, target := s.Mouth()
	assert.Equal(t, MouthSmall, target)
	assert.Equal(t, MouthSmall, displayed)
	assert.Equal(t, 0.33, s.Openness())
}

func TestBlink_Cycle(t *testing.T) {
	cfg := testConfig()
	cfg.Blink.MinInterval = 0.1
	cfg.Blink.MaxInterval = 0.1
	s := New(cfg, never())

	started, finished := -1, -1
	for i := 0; i < 24; i++ {
		s.Advance(Signals{}, dt)
		b := s.Blink()
		require.GreaterOrEqual(t, b.Progress, 0.0)
		require.LessOrEqual(t, b.Progress, 1.0)
		if b.Active && started < 0 {
			started = i
		}
		if !b.Active && started >= 0 && finished < 0 {
			finished = i
			assert.Equal(t, 0.0, b.Progress)
			assert.InDelta(t, 0.1, b.Timer, 1e-12, "next interval redrawn")
		}
	}

	// timer 0.1 expires on the third frame; 0.15s at 24fps takes four frames
	assert.Equal(t, 2, started)
	assert.Equal(t, 5, finished)
}

func TestBlink_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Blink.Enabled = false
	cfg.Blink.MinInterval = 0
	cfg.Blink.MaxInterval = 0
	s := New(cfg, never())
	for i := 0; i < 100; i++ {
		s.Advance(Signals{}, dt)
		assert.False(t, s.Blink().Active)
	}
	assert.Equal(t, 0.0, s.Blink().Timer)
}

func TestDart_StartsAndFinishes(t *testing.T) {
	cfg := testConfig()
	// first draw is the blink interval, then dart rolls
	rnd := &scripted{floats: []float64{0.5, 0.0, 0.999}, ints: []int{30, 0}}
	s := New(cfg, rnd)

	s.Advance(Signals{}, dt)
	d := s.Dart()
	require.True(t, d.Active)
	assert.Equal(t, 0.0, d.Progress)
	assert.Equal(t, 15, d.Target.X, "IntN(31) clamps the scripted 30 to the top of the range")
	assert.Equal(t, -10, d.Target.Y)

	frames := 0
	for s.Dart().Active {
		s.Advance(Signals{}, dt)
		frames++
		require.Less(t, frames, 100)
	}
	// 0.2s at 24fps
	assert.Equal(t, 5, frames)
}

func TestDart_TargetsWithinRange(t *testing.T) {
	cfg := testConfig()
	cfg.Eyes.DartChance = 1
	cfg.Eyes.DartRangeX = 3
	cfg.Eyes.DartRangeY = 2
	s := New(cfg, NewRandom(42))

	seenX := map[int]bool{}
	for i := 0; i < 2000; i++ {
		s.Advance(Signals{}, dt)
		d := s.Dart()
		assert.GreaterOrEqual(t, d.Target.X, -3)
		assert.LessOrEqual(t, d.Target.X, 3)
		assert.GreaterOrEqual(t, d.Target.Y, -2)
		assert.LessOrEqual(t, d.Target.Y, 2)
		seenX[d.Target.X] = true
	}
	assert.True(t, seenX[-3] && seenX[3], "range bounds are inclusive")
}

func TestDart_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Eyes.DartEnabled = false
	cfg.Eyes.DartChance = 1
	s := New(cfg, NewRandom(1))
	for i := 0; i < 50; i++ {
		s.Advance(Signals{}, dt)
		assert.False(t, s.Dart().Active)
	}
}

func TestEyebrows_RaiseAndHold(t *testing.T) {
	cfg := testConfig()
	cfg.Eyebrows.LerpEnabled = false
	cfg.Eyebrows.HoldDuration = 0.3
	s := New(cfg, never())

	s.Advance(Signals{Emphasis: true}, dt)
	require.True(t, s.EyebrowRaised())
	assert.Equal(t, 1.0, s.EyebrowAmount())

	raised := 1
	for s.EyebrowRaised() {
		s.Advance(Signals{}, dt)
		raised++
		require.Less(t, raised, 100)
	}
	// 0.3s hold at 24fps lowers on the eighth frame
	assert.Equal(t, 8, raised)
	assert.Equal(t, 0.0, s.EyebrowAmount())
}

func TestEyebrows_EmphasisWhileRaisedDoesNotExtend(t *testing.T) {
	cfg := testConfig()
	cfg.Eyebrows.HoldDuration = 0.2
	s := New(cfg, never())

	frames := 0
	for {
		s.Advance(Signals{Emphasis: frames < 3}, dt)
		frames++
		if !s.EyebrowRaised() {
			break
		}
	}
	assert.Equal(t, 5, frames)
}

func TestEyebrows_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Eyebrows.Enabled = false
	s := New(cfg, never())
	s.Advance(Signals{Emphasis: true}, dt)
	assert.False(t, s.EyebrowRaised())
	assert.Equal(t, 0.0, s.EyebrowAmount())

	cfg = testConfig()
	cfg.Eyebrows.RaiseOnEmphasis = false
	s = New(cfg, never())
	s.Advance(Signals{Emphasis: true}, dt)
	assert.False(t, s.EyebrowRaised())
}

func TestEyebrows_SmoothedAmount(t *testing.T) {
	s := New(testConfig(), never())
	s.Advance(Signals{Emphasis: true}, dt)
	amount := s.EyebrowAmount()
	assert.Greater(t, amount, 0.0)
	assert.Less(t, amount, 1.0)
}

func TestUpdatePose_InstantChannelsPassThrough(t *testing.T) {
	cfg := testConfig()
	cfg.HeadBob.LerpEnabled = false
	cfg.Breathing.LerpEnabled = false
	cfg.Eyes.LerpEnabled = false
	s := New(cfg, never())

	now := 0.5
	pose := s.UpdatePose(now, true, dt)
	assert.Equal(t, HeadBobTarget(cfg.HeadBob, now, true), pose.HeadBob)
	assert.Equal(t, BreathingTarget(cfg.Breathing, now, true), pose.Breathing)
	assert.Equal(t, EyeTarget(cfg.Eyes, now, Dart{}), pose.Eyes)
}

func TestUpdatePose_SmoothedChannelsLag(t *testing.T) {
	s := New(testConfig(), never())
	pose := s.UpdatePose(0.5, true, dt)

	target := HeadBobTarget(testConfig().HeadBob, 0.5, true)
	assert.Equal(t, 0.0, pose.HeadBob.X())
	assert.Greater(t, pose.HeadBob.Y(), 0.0)
	assert.Less(t, pose.HeadBob.Y(), target.Y())
}

func TestStep_Deterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Eyes.DartChance = 0.2
	a := New(cfg, NewRandom(99))
	b := New(cfg, NewRandom(99))

	for i := 0; i < 200; i++ {
		sig := Signals{Talking: i%40 < 25, ChangePoint: i%7 == 0, Energy: float64(i%10) / 10, Emphasis: i%31 == 0}
		now := float64(i) * dt
		require.Equal(t, a.Step(i, now, dt, sig), b.Step(i, now, dt, sig), "frame %d", i)
	}
}

func TestCheckpoint_Restore(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, NewRandom(5))
	for i := 0; i < 30; i++ {
		s.Step(i, float64(i)*dt, dt, Signals{Talking: true, ChangePoint: i%5 == 0, Energy: 0.7, Emphasis: i == 10})
	}

	cp := s.Checkpoint()
	sig := Signals{Talking: true, ChangePoint: true, Energy: 0.2}

	s.rnd = NewRandom(11)
	first := s.Step(30, 30*dt, dt, sig)

	s.Restore(cp)
	s.rnd = NewRandom(11)
	second := s.Step(30, 30*dt, dt, sig)

	assert.Equal(t, first, second)
	assert.Equal(t, cp, func() Checkpoint { s.Restore(cp); return s.Checkpoint() }())
}

func TestSnapshot_OffsetsTruncateTowardZero(t *testing.T) {
	snap := Snapshot{Pose: Pose{
		HeadBob:   mgl64.Vec2{0, -3.9},
		Breathing: mgl64.Vec2{0, 1.2},
		Eyes:      mgl64.Vec2{-2.7, 4.99},
	}}
	face, eyes := snap.Offsets()
	// -3.9 + 1.2 = -2.7 -> -2
	assert.Equal(t, 0, face.X)
	assert.Equal(t, -2, face.Y)
	// eyes truncate separately, then add the face offset
	assert.Equal(t, -2, eyes.X)
	assert.Equal(t, 2, eyes.Y)
}
