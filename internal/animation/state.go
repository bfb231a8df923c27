// Package animation advances the character's facial state one video frame at
// a time from audio-derived signals.
package animation

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/normanking/lipsync/internal/config"
)

// Signals are the audio features that drive one frame.
type Signals struct {
	Talking     bool
	ChangePoint bool
	Energy      float64
	Emphasis    bool
}

// Dart is a quick glance away from the drift position.
type Dart struct {
	Active   bool
	Progress float64
	Target   image.Point
}

// Blink is one eyelid cycle; Timer counts down to the next one.
type Blink struct {
	Active   bool
	Progress float64
	Timer    float64
}

// State is the mutable animation state for a single render. It must be
// advanced in frame order and is not safe for concurrent use.
type State struct {
	cfg config.AnimationConfig
	rnd Random

	targetMouth MouthShape
	mouth       MouthShape
	openness    Channel[float64]

	blink Blink
	dart  Dart

	browRaised bool
	browTimer  float64
	browAmount Channel[float64]

	eyes      Channel[mgl64.Vec2]
	headBob   Channel[mgl64.Vec2]
	breathing Channel[mgl64.Vec2]
}

// New creates the initial state. The first blink interval is drawn from rnd.
func New(cfg config.AnimationConfig, rnd Random) *State {
	s := &State{
		cfg:         cfg,
		rnd:         rnd,
		targetMouth: MouthClosed,
		mouth:       MouthClosed,
		openness:    NewScalar(cfg.Mouth.LerpEnabled, cfg.Mouth.LerpSpeed),
		browAmount:  NewScalar(cfg.Eyebrows.LerpEnabled, cfg.Eyebrows.LerpSpeed),
		eyes:        NewVec2(cfg.Eyes.LerpEnabled, cfg.Eyes.LerpSpeed),
		headBob:     NewVec2(cfg.HeadBob.LerpEnabled, cfg.HeadBob.LerpSpeed),
		breathing:   NewVec2(cfg.Breathing.LerpEnabled, cfg.Breathing.LerpSpeed),
	}
	s.blink.Timer = uniform(rnd, cfg.Blink.MinInterval, cfg.Blink.MaxInterval)
	return s
}

// Advance applies one frame of signals: mouth, blink, eye dart and eyebrows,
// in that order.
func (s *State) Advance(sig Signals, dt float64) {
	s.updateMouth(sig.Talking, sig.ChangePoint, sig.Energy, dt)
	s.updateBlink(dt)
	s.updateDart(dt)
	s.updateEyebrows(sig.Emphasis, dt)
}

// Step advances the state for frame index at time t and resolves the
// procedural offsets, returning everything needed to draw the frame.
func (s *State) Step(index int, t, dt float64, sig Signals) Snapshot {
	s.Advance(sig, dt)
	pose := s.UpdatePose(t, sig.Talking, dt)
	return s.snapshot(index, t, dt, sig.Talking, pose)
}

// UpdatePose feeds the head bob, breathing and eye targets for time t
// through their channels.
func (s *State) UpdatePose(t float64, talking bool, dt float64) Pose {
	return Pose{
		HeadBob:   s.headBob.Advance(HeadBobTarget(s.cfg.HeadBob, t, talking), dt),
		Breathing: s.breathing.Advance(BreathingTarget(s.cfg.Breathing, t, talking), dt),
		Eyes:      s.eyes.Advance(EyeTarget(s.cfg.Eyes, t, s.dart), dt),
	}
}

func (s *State) updateMouth(talking, changePoint bool, energy, dt float64) {
	if !talking {
		s.targetMouth = MouthClosed
	} else if changePoint {
		s.targetMouth = shapeForEnergy(energy, s.cfg.Mouth.SmallThreshold, s.cfg.Mouth.MediumThreshold)
	}

	amount := s.openness.Advance(s.targetMouth.Openness(), dt)
	if s.openness.Smoothed() {
		s.mouth = ShapeForOpenness(amount)
	} else {
		s.mouth = s.targetMouth
	}
}

func (s *State) updateBlink(dt float64) {
	if !s.cfg.Blink.Enabled {
		return
	}

	s.blink.Timer -= dt
	if s.blink.Timer <= 0 && !s.blink.Active {
		s.blink.Active = true
		s.blink.Progress = 0
	}

	if s.blink.Active {
		s.blink.Progress += dt / s.cfg.Blink.Duration
		if s.blink.Progress >= 1 {
			s.blink.Active = false
			s.blink.Progress = 0
			s.blink.Timer = uniform(s.rnd, s.cfg.Blink.MinInterval, s.cfg.Blink.MaxInterval)
		}
	}
}

func (s *State) updateDart(dt float64) {
	eyes := s.cfg.Eyes
	if !eyes.DartEnabled {
		return
	}

	if !s.dart.Active {
		if s.rnd.Float64() < eyes.DartChance {
			s.dart = Dart{
				Active: true,
				Target: image.Pt(
					intRange(s.rnd, -eyes.DartRangeX, eyes.DartRangeX),
					intRange(s.rnd, -eyes.DartRangeY, eyes.DartRangeY),
				),
			}
		}
		return
	}

	s.dart.Progress += dt / eyes.DartDuration
	if s.dart.Progress >= 1 {
		s.dart.Active = false
	}
}

func (s *State) updateEyebrows(emphasis bool, dt float64) {
	brows := s.cfg.Eyebrows
	if !brows.Enabled {
		return
	}

	if emphasis && !s.browRaised && brows.RaiseOnEmphasis {
		s.browRaised = true
		s.browTimer = brows.HoldDuration
	}

	if s.browRaised {
		s.browTimer -= dt
		if s.browTimer <= 0 {
			s.browRaised = false
		}
	}

	target := 0.0
	if s.browRaised {
		target = 1.0
	}
	s.browAmount.Advance(target, dt)
}

// Mouth returns the displayed and target mouth shapes.
func (s *State) Mouth() (displayed, target MouthShape) {
	return s.mouth, s.targetMouth
}

// Openness is the (possibly smoothed) mouth openness in [0, 1].
func (s *State) Openness() float64 { return s.openness.Value() }

func (s *State) Blink() Blink { return s.blink }

func (s *State) Dart() Dart { return s.dart }

func (s *State) EyebrowRaised() bool { return s.browRaised }

// EyebrowAmount is the raise amount in [0, 1].
func (s *State) EyebrowAmount() float64 { return s.browAmount.Value() }
