package animation

// MouthShape is the displayed mouth category
type MouthShape int

const (
	MouthClosed MouthShape = iota
	MouthSmall
	MouthMedium
	MouthWide
)

var mouthNames = [...]string{"closed", "small", "medium", "wide"}

func (m MouthShape) String() string {
	if m < MouthClosed || m > MouthWide {
		return "unknown"
	}
	return mouthNames[m]
}

// Openness maps a shape to its smoothing target.
func (m MouthShape) Openness() float64 {
	switch m {
	case MouthSmall:
		return 0.33
	case MouthMedium:
		return 0.66
	case MouthWide:
		return 1.0
	default:
		return 0
	}
}

// ShapeForOpenness picks the displayed shape for a smoothed openness. Its
// breakpoints are independent of the Openness values.
func ShapeForOpenness(amount float64) MouthShape {
	switch {
	case amount < 0.15:
		return MouthClosed
	case amount < 0.5:
		return MouthSmall
	case amount < 0.8:
		return MouthMedium
	default:
		return MouthWide
	}
}

// shapeForEnergy buckets normalized loudness at a change point.
func shapeForEnergy(energy, small, medium float64) MouthShape {
	switch {
	case energy < small:
		return MouthSmall
	case energy < medium:
		return MouthMedium
	default:
		return MouthWide
	}
}
