package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/normanking/lipsync/internal/config"
	"github.com/normanking/lipsync/internal/lerp"
)

// HeadBobTarget is the vertical nod applied while talking.
func HeadBobTarget(cfg config.HeadBobConfig, t float64, talking bool) mgl64.Vec2 {
	if !cfg.Enabled || (cfg.OnlyWhenTalking && !talking) {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{0, cfg.Amount * math.Sin(t*2*math.Pi*cfg.Speed)}
}

// BreathingTarget is the idle vertical sway, damped while talking.
func BreathingTarget(cfg config.BreathingConfig, t float64, talking bool) mgl64.Vec2 {
	if !cfg.Enabled {
		return mgl64.Vec2{}
	}
	scale := 1.0
	if talking {
		scale = cfg.TalkingScale
	}
	return mgl64.Vec2{0, cfg.Amount * scale * math.Sin(t*2*math.Pi*cfg.Speed)}
}

// EyeTarget combines slow drift with an in-flight dart.
func EyeTarget(cfg config.EyesConfig, t float64, dart Dart) mgl64.Vec2 {
	var target mgl64.Vec2
	if cfg.DriftEnabled {
		target = mgl64.Vec2{
			math.Sin(t*cfg.DriftSpeed) * cfg.DriftAmountX,
			math.Cos(t*cfg.DriftSpeed) * cfg.DriftAmountY,
		}
	}
	if dart.Active {
		ease := lerp.EaseOutQuad(dart.Progress)
		target = target.Add(mgl64.Vec2{float64(dart.Target.X), float64(dart.Target.Y)}.Mul(ease))
	}
	return target
}
