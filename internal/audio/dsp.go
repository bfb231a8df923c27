package audio

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minFrameLength is the shortest analysis window, in samples.
const minFrameLength = 2048

// gaussianTruncate is the kernel radius in standard deviations.
const gaussianTruncate = 4.0

// FrameCount returns the number of hop-centered analysis frames for n samples.
func FrameCount(n, hop int) int {
	return 1 + n/hop
}

// centeredFrame copies the window of length len(dst) centered on sample
// center into dst, zero-filling outside the signal.
func centeredFrame(samples []float64, center int, dst []float64) {
	start := center - len(dst)/2
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(samples) {
			dst[i] = 0
			continue
		}
		dst[i] = samples[j]
	}
}

// RMS computes root-mean-square energy for frames hop samples apart, each
// window centered on its frame.
func RMS(samples []float64, hop int) []float64 {
	n := FrameCount(len(samples), hop)
	frame := make([]float64, max(minFrameLength, hop))
	out := make([]float64, n)
	for i := range out {
		centeredFrame(samples, i*hop, frame)
		out[i] = math.Sqrt(floats.Dot(frame, frame) / float64(len(frame)))
	}
	return out
}

// NormalizePeak scales x in place so its maximum is 1. All-zero input is left
// untouched.
func NormalizePeak(x []float64) {
	if len(x) == 0 {
		return
	}
	if peak := floats.Max(x); peak > 0 {
		floats.Scale(1/peak, x)
	}
}

// GaussianSmooth convolves x with a normalized gaussian kernel of standard
// deviation sigma, mirroring samples at the edges.
func GaussianSmooth(x []float64, sigma float64) []float64 {
	out := make([]float64, len(x))
	if sigma <= 0 || len(x) == 0 {
		copy(out, x)
		return out
	}

	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	dist := distuv.Normal{Mu: 0, Sigma: sigma}
	for i := range kernel {
		kernel[i] = dist.Prob(float64(i - radius))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	for i := range x {
		var acc float64
		for k, w := range kernel {
			acc += w * x[reflectIndex(i+k-radius, len(x))]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps i into [0, n) by mirroring about the edges, repeating
// the edge sample (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// Diff returns first differences of x with the first element set to zero.
func Diff(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// AbsDiff returns absolute first differences of x with the first element set
// to zero.
func AbsDiff(x []float64) []float64 {
	out := Diff(x)
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return out
}

// Percentile returns the p-th percentile (0-100) of x by linear
// interpolation. Empty input yields 0.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(math.Min(math.Max(p/100, 0), 1), stat.LinInterp, sorted, nil)
}
