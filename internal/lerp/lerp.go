// Package lerp implements frame-rate independent exponential smoothing of
// scalar and 2D values toward a moving target.
package lerp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SnapEpsilon is the distance below which a value jumps onto its target.
const SnapEpsilon = 0.001

// referenceRate expresses speed constants as "per frame at 60fps".
const referenceRate = 60.0

// Factor returns the fraction of the remaining distance covered after dt
// seconds at the given speed.
func Factor(speed, dt float64) float64 {
	return 1.0 - math.Exp(-speed*dt*referenceRate)
}

// EaseOutQuad decelerates toward p=1.
func EaseOutQuad(p float64) float64 {
	return p * (2 - p)
}

type Value struct {
	current float64
	target  float64
	speed   float64
}

func NewValue(initial, speed float64) *Value {
	return &Value{current: initial, target: initial, speed: speed}
}

func (v *Value) SetTarget(target float64) {
	v.target = target
}

// Update advances the value by dt seconds and returns the new current value.
func (v *Value) Update(dt float64) float64 {
	if math.Abs(v.current-v.target) < SnapEpsilon {
		v.current = v.target
		return v.current
	}
	v.current += (v.target - v.current) * Factor(v.speed, dt)
	return v.current
}

func (v *Value) Current() float64 { return v.current }
func (v *Value) Target() float64  { return v.target }
func (v *Value) Speed() float64   { return v.speed }

// Set moves both current and target immediately.
func (v *Value) Set(x float64) {
	v.current = x
	v.target = x
}

// Restore overwrites current and target independently.
func (v *Value) Restore(current, target float64) {
	v.current = current
	v.target = target
}

type Vec2 struct {
	current mgl64.Vec2
	target  mgl64.Vec2
	speed   float64
}

func NewVec2(initial mgl64.Vec2, speed float64) *Vec2 {
	return &Vec2{current: initial, target: initial, speed: speed}
}

func (v *Vec2) SetTarget(target mgl64.Vec2) {
	v.target = target
}

// Update advances both axes by dt seconds. The vector snaps only when both
// axes are within SnapEpsilon of the target.
func (v *Vec2) Update(dt float64) mgl64.Vec2 {
	delta := v.target.Sub(v.current)
	if math.Abs(delta.X()) < SnapEpsilon && math.Abs(delta.Y()) < SnapEpsilon {
		v.current = v.target
		return v.current
	}
	v.current = v.current.Add(delta.Mul(Factor(v.speed, dt)))
	return v.current
}

func (v *Vec2) Current() mgl64.Vec2 { return v.current }
func (v *Vec2) Target() mgl64.Vec2  { return v.target }

func (v *Vec2) Set(x mgl64.Vec2) {
	v.current = x
	v.target = x
}

func (v *Vec2) Restore(current, target mgl64.Vec2) {
	v.current = current
	v.target = target
}
