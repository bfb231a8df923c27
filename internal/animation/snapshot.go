package animation

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose holds the resolved procedural offsets for a frame, in pixels.
type Pose struct {
	HeadBob   mgl64.Vec2
	Breathing mgl64.Vec2
	Eyes      mgl64.Vec2
}

// Snapshot is the immutable render input for one frame. Rendering a
// Snapshot never depends on any other frame.
type Snapshot struct {
	Index   int
	Time    float64
	DT      float64
	Talking bool

	Mouth         MouthShape
	Blinking      bool
	BlinkProgress float64
	EyebrowRaised bool
	EyebrowAmount float64
	Dart          Dart

	Pose Pose
}

// Offsets converts the pose to pixel positions for the face layers and the
// eyes. Components are truncated toward zero, not rounded.
func (s Snapshot) Offsets() (face, eyes image.Point) {
	body := s.Pose.HeadBob.Add(s.Pose.Breathing)
	face = image.Pt(int(body.X()), int(body.Y()))
	eyes = image.Pt(int(s.Pose.Eyes.X()), int(s.Pose.Eyes.Y())).Add(face)
	return face, eyes
}

func (s *State) snapshot(index int, t, dt float64, talking bool, pose Pose) Snapshot {
	return Snapshot{
		Index:         index,
		Time:          t,
		DT:            dt,
		Talking:       talking,
		Mouth:         s.mouth,
		Blinking:      s.blink.Active,
		BlinkProgress: s.blink.Progress,
		EyebrowRaised: s.browRaised,
		EyebrowAmount: s.browAmount.Value(),
		Dart:          s.dart,
		Pose:          pose,
	}
}

// Checkpoint is a copy of every mutable field of a State. The random source
// is not part of it.
type Checkpoint struct {
	TargetMouth MouthShape
	Mouth       MouthShape
	Openness    ChannelState[float64]

	Blink Blink
	Dart  Dart

	EyebrowRaised bool
	EyebrowTimer  float64
	EyebrowAmount ChannelState[float64]

	Eyes      ChannelState[mgl64.Vec2]
	HeadBob   ChannelState[mgl64.Vec2]
	Breathing ChannelState[mgl64.Vec2]
}

// Checkpoint captures the current state.
func (s *State) Checkpoint() Checkpoint {
	return Checkpoint{
		TargetMouth:   s.targetMouth,
		Mouth:         s.mouth,
		Openness:      s.openness.save(),
		Blink:         s.blink,
		Dart:          s.dart,
		EyebrowRaised: s.browRaised,
		EyebrowTimer:  s.browTimer,
		EyebrowAmount: s.browAmount.save(),
		Eyes:          s.eyes.save(),
		HeadBob:       s.headBob.save(),
		Breathing:     s.breathing.save(),
	}
}

// Restore rewinds the state to cp.
func (s *State) Restore(cp Checkpoint) {
	s.targetMouth = cp.TargetMouth
	s.mouth = cp.Mouth
	s.openness.load(cp.Openness)
	s.blink = cp.Blink
	s.dart = cp.Dart
	s.browRaised = cp.EyebrowRaised
	s.browTimer = cp.EyebrowTimer
	s.browAmount.load(cp.EyebrowAmount)
	s.eyes.load(cp.Eyes)
	s.headBob.load(cp.HeadBob)
	s.breathing.load(cp.Breathing)
}
