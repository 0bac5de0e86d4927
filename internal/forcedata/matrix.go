package forcedata

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a dense in-memory recording: every (tooth, sensor) pair has one
// value per timestamp, missing readings are zero.
type Matrix struct {
	times   []float64
	teeth   []int
	sensors map[int][]int
	values  map[Key][]float64
	totals  map[int][]float64
	peak    float64
	cof     []TimedPoint
}

// NewMatrix builds a matrix from long-format samples. Duplicate readings for
// the same key and time keep the last one.
func NewMatrix(samples []Sample) (*Matrix, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	timeSet := make(map[float64]struct{})
	sensorSet := make(map[int]map[int]struct{})
	for _, s := range samples {
		timeSet[s.Time] = struct{}{}
		if sensorSet[s.Tooth] == nil {
			sensorSet[s.Tooth] = make(map[int]struct{})
		}
		sensorSet[s.Tooth][s.Sensor] = struct{}{}
	}

	times := make([]float64, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Float64s(times)

	index := make(map[float64]int, len(times))
	for i, t := range times {
		index[t] = i
	}

	m := &Matrix{
		times:   times,
		sensors: make(map[int][]int, len(sensorSet)),
		values:  make(map[Key][]float64),
	}
	for tooth, set := range sensorSet {
		m.teeth = append(m.teeth, tooth)
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
			m.values[Key{tooth, id}] = make([]float64, len(times))
		}
		sort.Ints(ids)
		m.sensors[tooth] = ids
	}
	sort.Ints(m.teeth)

	for _, s := range samples {
		m.values[Key{s.Tooth, s.Sensor}][index[s.Time]] = sanitize(s.Force)
	}
	m.computeTotals()
	return m, nil
}

// NewMatrixFromSeries builds a matrix from per-key series aligned with times.
// times must be strictly increasing.
func NewMatrixFromSeries(times []float64, series map[Key][]float64) (*Matrix, error) {
	if len(times) == 0 || len(series) == 0 {
		return nil, ErrNoData
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("%w: %v after %v at index %d", ErrUnordered, times[i], times[i-1], i)
		}
	}
	m := &Matrix{
		times:   append([]float64(nil), times...),
		sensors: make(map[int][]int),
		values:  make(map[Key][]float64, len(series)),
	}
	for k, v := range series {
		if len(v) != len(times) {
			return nil, ErrShape
		}
		vals := make([]float64, len(v))
		for i, f := range v {
			vals[i] = sanitize(f)
		}
		m.values[k] = vals
		if _, ok := m.sensors[k.Tooth]; !ok {
			m.teeth = append(m.teeth, k.Tooth)
		}
		m.sensors[k.Tooth] = append(m.sensors[k.Tooth], k.Sensor)
	}
	sort.Ints(m.teeth)
	for _, ids := range m.sensors {
		sort.Ints(ids)
	}
	m.computeTotals()
	return m, nil
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func (m *Matrix) computeTotals() {
	m.totals = make(map[int][]float64, len(m.teeth))
	m.peak = 0
	for _, tooth := range m.teeth {
		total := make([]float64, len(m.times))
		for _, sensor := range m.sensors[tooth] {
			floats.Add(total, m.values[Key{tooth, sensor}])
		}
		m.totals[tooth] = total
		if len(total) > 0 {
			m.peak = math.Max(m.peak, floats.Max(total))
		}
	}
}

func (m *Matrix) Timestamps() []float64 { return m.times }

func (m *Matrix) ToothIDs() []int { return m.teeth }

func (m *Matrix) SensorIDs(tooth int) []int { return m.sensors[tooth] }

func (m *Matrix) ForceSeries(tooth int) ([]float64, []float64) {
	total, ok := m.totals[tooth]
	if !ok {
		return nil, nil
	}
	return m.times, total
}

// InstantaneousForces returns every sensor force at the timestamp nearest to t.
func (m *Matrix) InstantaneousForces(t float64) map[Key]float64 {
	idx := NearestIndex(m.times, t)
	out := make(map[Key]float64, len(m.values))
	if idx < 0 {
		return out
	}
	for k, v := range m.values {
		out[k] = v[idx]
	}
	return out
}

// MaxForce is the peak per-tooth total over the whole recording.
func (m *Matrix) MaxForce() float64 { return m.peak }

// Samples flattens the matrix back into long format, ordered by time, tooth, sensor.
func (m *Matrix) Samples() []Sample {
	out := make([]Sample, 0, len(m.times)*len(m.values))
	for i, t := range m.times {
		for _, tooth := range m.teeth {
			for _, sensor := range m.sensors[tooth] {
				out = append(out, Sample{
					Time:   t,
					Tooth:  tooth,
					Sensor: sensor,
					Force:  m.values[Key{tooth, sensor}][i],
				})
			}
		}
	}
	return out
}

// ComputeCenterOfForce derives the force-weighted centroid of the tooth
// centers for every timestamp. Timestamps with no force yield no point.
func (m *Matrix) ComputeCenterOfForce(centers map[int]Point) {
	m.cof = m.cof[:0]
	for i, t := range m.times {
		var sum, x, y float64
		for _, tooth := range m.teeth {
			c, ok := centers[tooth]
			if !ok {
				continue
			}
			f := m.totals[tooth][i]
			sum += f
			x += f * c.X
			y += f * c.Y
		}
		if sum <= 0 {
			continue
		}
		m.cof = append(m.cof, TimedPoint{T: t, Point: Point{X: x / sum, Y: y / sum}})
	}
}

// CenterOfForceUpTo returns the trajectory truncated to points at or before t.
func (m *Matrix) CenterOfForceUpTo(t float64) []Point {
	n := sort.Search(len(m.cof), func(i int) bool { return m.cof[i].T > t })
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = m.cof[i].Point
	}
	return out
}

// Trajectory returns the full center-of-force path with timestamps.
func (m *Matrix) Trajectory() []TimedPoint { return m.cof }
