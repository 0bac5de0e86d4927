package forcedata

import (
	"math"
	"math/rand"
)

type SimConfig struct {
	Teeth    int
	Sensors  int
	Duration float64
	Rate     float64
	Seed     int64
}

const (
	bitePeriod = 2.0
	noiseLevel = 1.5
)

// Simulate produces a deterministic recording of repeated bite cycles. Teeth
// are numbered from 1, back teeth carry more load and close slightly later
// than front teeth.
func Simulate(cfg SimConfig) (*Matrix, error) {
	if cfg.Teeth <= 0 || cfg.Sensors <= 0 || cfg.Rate <= 0 || cfg.Duration <= 0 {
		return nil, ErrNoData
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	steps := int(math.Round(cfg.Duration * cfg.Rate))
	if steps < 1 {
		steps = 1
	}
	times := make([]float64, steps)
	for i := range times {
		times[i] = float64(i) / cfg.Rate
	}

	mid := float64(cfg.Teeth-1) / 2
	series := make(map[Key][]float64, cfg.Teeth*cfg.Sensors)
	for tooth := 1; tooth <= cfg.Teeth; tooth++ {
		edge := 0.0
		if mid > 0 {
			edge = math.Abs(float64(tooth-1)-mid) / mid
		}
		amp := 8 + 22*edge
		lag := 0.15 * (1 - edge)

		for sensor := 1; sensor <= cfg.Sensors; sensor++ {
			weight := 0.5 + rng.Float64()
			vals := make([]float64, steps)
			for i, t := range times {
				phase := math.Sin(2 * math.Pi * (t - lag) / bitePeriod)
				env := math.Max(0, phase)
				f := amp*weight*env*env + noiseLevel*rng.NormFloat64()*env
				vals[i] = math.Max(0, f)
			}
			series[Key{Tooth: tooth, Sensor: sensor}] = vals
		}
	}
	return NewMatrixFromSeries(times, series)
}
