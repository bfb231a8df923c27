package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// yinThreshold is the normalized-difference level a period candidate must
// fall below to count as voiced.
const yinThreshold = 0.1

// PitchTracker estimates the fundamental frequency of fixed-length frames
// with the YIN algorithm. The difference function is computed through an
// FFT cross-correlation. A PitchTracker is not safe for concurrent use.
type PitchTracker struct {
	sampleRate float64
	frameLen   int
	window     int
	tauMin     int
	tauMax     int

	fft     *fourier.FFT
	padded  []float64
	coeffs  []complex128
	wcoeffs []complex128
	acf     []float64
	energy  []float64
	diff    []float64
	cmnd    []float64
}

// NewPitchTracker builds a tracker for periods between 1/maxHz and 1/minHz.
// The frame grows past 2048 samples when the longest period needs it.
func NewPitchTracker(sampleRate int, minHz, maxHz float64) *PitchTracker {
	sr := float64(sampleRate)
	longest := int(math.Ceil(sr / minHz))

	frameLen := minFrameLength
	for frameLen-frameLen/2-1 < longest {
		frameLen *= 2
	}
	window := frameLen / 2

	t := &PitchTracker{
		sampleRate: sr,
		frameLen:   frameLen,
		window:     window,
		tauMin:     max(1, int(math.Floor(sr/maxHz))),
		tauMax:     min(longest, frameLen-window-1),
		fft:        fourier.NewFFT(frameLen),
		padded:     make([]float64, frameLen),
		acf:        make([]float64, frameLen),
		energy:     make([]float64, frameLen+1),
	}
	t.diff = make([]float64, t.tauMax+2)
	t.cmnd = make([]float64, t.tauMax+2)
	return t
}

// FrameLength is the analysis window length in samples.
func (t *PitchTracker) FrameLength() int { return t.frameLen }

// Track returns one pitch estimate per hop-centered frame; unvoiced frames
// are 0.
func (t *PitchTracker) Track(samples []float64, hop int) []float64 {
	n := FrameCount(len(samples), hop)
	frame := make([]float64, t.frameLen)
	out := make([]float64, n)
	for i := range out {
		centeredFrame(samples, i*hop, frame)
		out[i] = t.Estimate(frame)
	}
	return out
}

// Estimate returns the fundamental frequency of frame in Hz, or 0 when no
// period is found. len(frame) must equal FrameLength.
func (t *PitchTracker) Estimate(frame []float64) float64 {
	w := t.window

	// r(tau) = sum_j x[j+tau] * x[j] for j < w, via X * conj(W).
	t.coeffs = t.fft.Coefficients(t.coeffs, frame)
	copy(t.padded, frame[:w])
	clear(t.padded[w:])
	t.wcoeffs = t.fft.Coefficients(t.wcoeffs, t.padded)
	for k := range t.coeffs {
		wc := t.wcoeffs[k]
		t.coeffs[k] *= complex(real(wc), -imag(wc))
	}
	t.acf = t.fft.Sequence(t.acf, t.coeffs)
	scale := 1 / float64(t.frameLen)

	t.energy[0] = 0
	for j, v := range frame {
		t.energy[j+1] = t.energy[j] + v*v
	}
	e0 := t.energy[w]
	if e0 == 0 {
		return 0
	}

	for tau := 0; tau <= t.tauMax+1 && tau+w <= t.frameLen; tau++ {
		et := t.energy[tau+w] - t.energy[tau]
		d := e0 + et - 2*t.acf[tau]*scale
		t.diff[tau] = math.Max(d, 0)
	}

	// cumulative mean normalized difference
	t.cmnd[0] = 1
	var running float64
	last := min(t.tauMax+1, t.frameLen-w)
	for tau := 1; tau <= last; tau++ {
		running += t.diff[tau]
		if running == 0 {
			t.cmnd[tau] = 1
			continue
		}
		t.cmnd[tau] = t.diff[tau] * float64(tau) / running
	}

	for tau := t.tauMin; tau <= t.tauMax; tau++ {
		if t.cmnd[tau] >= yinThreshold {
			continue
		}
		for tau+1 <= t.tauMax && t.cmnd[tau+1] < t.cmnd[tau] {
			tau++
		}
		period := float64(tau) + t.parabolicShift(tau)
		if period <= 0 {
			return 0
		}
		return t.sampleRate / period
	}
	return 0
}

// parabolicShift refines the trough at tau using its two neighbours.
func (t *PitchTracker) parabolicShift(tau int) float64 {
	if tau < 1 || tau+1 >= len(t.cmnd) {
		return 0
	}
	prev, cur, next := t.cmnd[tau-1], t.cmnd[tau], t.cmnd[tau+1]
	a := next + prev - 2*cur
	b := (next - prev) / 2
	if a == 0 || math.Abs(b) >= math.Abs(a) {
		return 0
	}
	return -b / a
}
