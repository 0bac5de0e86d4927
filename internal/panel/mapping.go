package panel

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/forceview/internal/scene"
)

const (
	// ForceEpsilon is the force below which a tooth renders as unloaded.
	ForceEpsilon = 1e-3
	// totalEpsilon guards percentage division when nothing is loaded.
	totalEpsilon = 1e-6
	// sideAxis is the half-width of the band treated as on the midline.
	sideAxis = 0.01
)

// Normalize maps a force onto [0,1] against fmax.
func Normalize(f, fmax float64) float64 {
	if fmax <= 0 || math.IsNaN(f) || f < ForceEpsilon {
		return 0
	}
	return math.Max(0, math.Min(1, f/fmax))
}

var bandEdges = []float64{0.01, 0.25, 0.5, 0.75, 0.9}

// Band returns which of the six half-open bands n falls into, 0 to 5.
// A value on an edge belongs to the band above it.
func Band(n float64) int {
	b := 0
	for _, e := range bandEdges {
		if n >= e {
			b++
		}
	}
	return b
}

var bandColors = [6]color.NRGBA{
	scene.RGB(0.1, 0.1, 0.6),
	scene.RGB(0.2, 0.4, 1),
	scene.RGB(0.1, 0.8, 0.4),
	scene.RGB(1, 0.9, 0.1),
	scene.RGB(1, 0.4, 0),
	scene.RGB(0.9, 0, 0.2),
}

func BandColor(n float64) color.NRGBA {
	return bandColors[Band(n)]
}

// PositiveTotal sums finite positive forces.
func PositiveTotal(forces []float64) float64 {
	pos := make([]float64, 0, len(forces))
	for _, f := range forces {
		if f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
			pos = append(pos, f)
		}
	}
	return floats.Sum(pos)
}

// Percentage is 100*part/total with the total floored at a small epsilon.
func Percentage(part, total float64) float64 {
	return 100 * part / math.Max(total, totalEpsilon)
}

// Percentages returns each tooth's share of total.
func Percentages(toothTotals map[int]float64, total float64) map[int]float64 {
	out := make(map[int]float64, len(toothTotals))
	for id, f := range toothTotals {
		out[id] = Percentage(f, total)
	}
	return out
}

func FormatPercent(p float64) string { return fmt.Sprintf("%.1f%%", p) }

// SideTotals buckets tooth force by the sign of the cell's x. Negative x is
// the patient's right, cells on the midline are split evenly.
func SideTotals(centersX map[int]float64, toothTotals map[int]float64) (left, right float64) {
	for id, f := range toothTotals {
		x, ok := centersX[id]
		if !ok {
			continue
		}
		switch {
		case x < -sideAxis:
			right += f
		case x > sideAxis:
			left += f
		default:
			left += f / 2
			right += f / 2
		}
	}
	return left, right
}
