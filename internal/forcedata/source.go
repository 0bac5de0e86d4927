package forcedata

import (
	"errors"
	"sort"
)

var (
	// ErrNoData indicates a recording with no usable samples.
	ErrNoData = errors.New("forcedata: no usable samples")

	// ErrShape indicates per-key series that do not line up with the timestamps.
	ErrShape = errors.New("forcedata: series length does not match timestamps")

	// ErrUnordered indicates timestamps that are not strictly increasing.
	ErrUnordered = errors.New("forcedata: timestamps not strictly increasing")
)

// Key addresses one sensor of one tooth.
type Key struct {
	Tooth  int
	Sensor int
}

type Point struct {
	X, Y float64
}

// TimedPoint is a center-of-force sample.
type TimedPoint struct {
	T float64
	Point
}

// Sample is one reading in long format.
type Sample struct {
	Time   float64
	Tooth  int
	Sensor int
	Force  float64
}

// Source is the read-only view of a force recording consumed by the panels.
type Source interface {
	Timestamps() []float64
	ToothIDs() []int
	SensorIDs(tooth int) []int
	// ForceSeries returns the tooth's total force aligned with Timestamps.
	ForceSeries(tooth int) (times, values []float64)
	InstantaneousForces(t float64) map[Key]float64
	CenterOfForceUpTo(t float64) []Point
	MaxForce() float64
}

// NearestIndex returns the index of the timestamp closest to t. Ties go to
// the earlier index. Returns -1 for an empty sequence.
func NearestIndex(times []float64, t float64) int {
	n := len(times)
	if n == 0 {
		return -1
	}
	if t != t {
		return 0
	}
	i := sort.SearchFloat64s(times, t)
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	case times[i] == t:
		return i
	}
	if t-times[i-1] <= times[i]-t {
		return i - 1
	}
	return i
}

// Resolve maps t to the nearest recorded timestamp of src. Everything drawn
// for one frame is computed from the resolved value. A source without
// timestamps returns t unchanged.
func Resolve(src Source, t float64) float64 {
	times := src.Timestamps()
	if i := NearestIndex(times, t); i >= 0 {
		return times[i]
	}
	return t
}

// ToothTotals sums sensor forces per tooth.
func ToothTotals(forces map[Key]float64) map[int]float64 {
	out := make(map[int]float64)
	for k, f := range forces {
		out[k.Tooth] += f
	}
	return out
}
