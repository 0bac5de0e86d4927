package forcedata

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ToothStats struct {
	Tooth int
	Peak  float64
	Mean  float64
	// PeakTime is the first timestamp at which Peak occurs.
	PeakTime float64
}

// Summarize reports per-tooth total-force statistics in tooth order.
func Summarize(src Source) []ToothStats {
	teeth := src.ToothIDs()
	out := make([]ToothStats, 0, len(teeth))
	for _, tooth := range teeth {
		times, vals := src.ForceSeries(tooth)
		if len(vals) == 0 {
			out = append(out, ToothStats{Tooth: tooth})
			continue
		}
		idx := floats.MaxIdx(vals)
		out = append(out, ToothStats{
			Tooth:    tooth,
			Peak:     vals[idx],
			Mean:     stat.Mean(vals, nil),
			PeakTime: times[idx],
		})
	}
	return out
}
