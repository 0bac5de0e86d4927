package forcedata

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Rhythm is the dominant periodicity of one tooth's total force, the
// chewing rate when the recording covers repeated bites.
type Rhythm struct {
	Tooth     int
	Frequency float64 // Hz
	Power     float64
}

// SampleRate estimates samples per second from evenly spaced timestamps.
func SampleRate(times []float64) float64 {
	n := len(times)
	if n < 2 || times[n-1] <= times[0] {
		return 0
	}
	return float64(n-1) / (times[n-1] - times[0])
}

// DominantFrequency returns the strongest non-DC frequency of vals sampled
// at rate. A constant or too short signal yields zero.
func DominantFrequency(vals []float64, rate float64) (freq, power float64) {
	n := len(vals)
	if n < 4 || rate <= 0 {
		return 0, 0
	}
	centered := make([]float64, n)
	copy(centered, vals)
	floats.AddConst(-stat.Mean(vals, nil), centered)

	spectrum := fft.FFTReal(centered)
	best := 0
	for k := 1; k <= n/2; k++ {
		if p := cmplx.Abs(spectrum[k]); p > power {
			best, power = k, p
		}
	}
	if best == 0 || power < 1e-9 {
		return 0, 0
	}
	return float64(best) * rate / float64(n), power
}

// BiteRhythm reports the dominant force frequency of every tooth.
func BiteRhythm(src Source) []Rhythm {
	rate := SampleRate(src.Timestamps())
	teeth := src.ToothIDs()
	out := make([]Rhythm, 0, len(teeth))
	for _, tooth := range teeth {
		_, vals := src.ForceSeries(tooth)
		f, p := DominantFrequency(vals, rate)
		out = append(out, Rhythm{Tooth: tooth, Frequency: f, Power: p})
	}
	return out
}
