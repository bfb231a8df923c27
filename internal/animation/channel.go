package animation

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/normanking/lipsync/internal/lerp"
)

// Channel carries one animated quantity from its per-frame target to the
// value that is displayed. It is either Instant or Smoothed, fixed at
// construction.
type Channel[T any] interface {
	Advance(target T, dt float64) T
	Value() T
	Smoothed() bool

	save() ChannelState[T]
	load(ChannelState[T])
}

// ChannelState is the saved form of a Channel.
type ChannelState[T any] struct {
	Current T
	Target  T
}

type smoother[T any] interface {
	SetTarget(T)
	Update(dt float64) T
	Current() T
	Target() T
	Restore(current, target T)
}

type instant[T any] struct {
	v T
}

func (c *instant[T]) Advance(target T, _ float64) T {
	c.v = target
	return c.v
}

func (c *instant[T]) Value() T       { return c.v }
func (c *instant[T]) Smoothed() bool { return false }

func (c *instant[T]) save() ChannelState[T]  { return ChannelState[T]{Current: c.v, Target: c.v} }
func (c *instant[T]) load(s ChannelState[T]) { c.v = s.Current }

type smoothed[T any] struct {
	s smoother[T]
}

func (c *smoothed[T]) Advance(target T, dt float64) T {
	c.s.SetTarget(target)
	return c.s.Update(dt)
}

func (c *smoothed[T]) Value() T       { return c.s.Current() }
func (c *smoothed[T]) Smoothed() bool { return true }

func (c *smoothed[T]) save() ChannelState[T] {
	return ChannelState[T]{Current: c.s.Current(), Target: c.s.Target()}
}

func (c *smoothed[T]) load(s ChannelState[T]) { c.s.Restore(s.Current, s.Target) }

// NewScalar returns a channel starting at zero, smoothed at speed when enabled.
func NewScalar(enabled bool, speed float64) Channel[float64] {
	if enabled {
		return &smoothed[float64]{s: lerp.NewValue(0, speed)}
	}
	return &instant[float64]{}
}

// NewVec2 returns a 2D channel starting at the origin.
func NewVec2(enabled bool, speed float64) Channel[mgl64.Vec2] {
	if enabled {
		return &smoothed[mgl64.Vec2]{s: lerp.NewVec2(mgl64.Vec2{}, speed)}
	}
	return &instant[mgl64.Vec2]{}
}
