package panel

import (
	"fmt"
	"strings"

	"github.com/san-kum/forceview/internal/forcedata"
)

const DetailPrompt = "Click a tooth cell for details."

// Detail describes one tooth's sensor forces at t.
func Detail(src forcedata.Source, tooth int, t float64) string {
	t = forcedata.Resolve(src, t)
	forces := src.InstantaneousForces(t)
	var b strings.Builder
	fmt.Fprintf(&b, "Tooth ID: %d\n", tooth)
	fmt.Fprintf(&b, "Forces @ %.1fs:\n", t)
	total := 0.0
	for _, s := range src.SensorIDs(tooth) {
		f := forces[forcedata.Key{Tooth: tooth, Sensor: s}]
		total += f
		fmt.Fprintf(&b, " S%d:%.1fN\n", s, f)
	}
	fmt.Fprintf(&b, "Total: %.1fN", total)
	return b.String()
}
