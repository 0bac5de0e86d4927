package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/forceview/internal/forcedata"
)

type SeriesData struct {
	Teeth    int           `json:"teeth"`
	MaxForce float64       `json:"max_force"`
	Times    []float64     `json:"times"`
	Series   []ToothSeries `json:"series"`
	Center   []CenterPoint `json:"center_of_force,omitempty"`
}

type ToothSeries struct {
	Tooth   int                   `json:"tooth"`
	Total   []float64             `json:"total"`
	Peak    float64               `json:"peak"`
	Mean    float64               `json:"mean"`
	Sensors map[int]SensorReading `json:"sensors,omitempty"`
}

type SensorReading struct {
	Forces []float64 `json:"forces"`
}

type CenterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series collects the per-tooth totals, per-sensor forces and the center of
// force trajectory of src.
func Series(src forcedata.Source) SeriesData {
	times := src.Timestamps()
	data := SeriesData{
		Teeth:    len(src.ToothIDs()),
		MaxForce: src.MaxForce(),
		Times:    times,
	}

	stats := forcedata.Summarize(src)
	for i, tooth := range src.ToothIDs() {
		_, total := src.ForceSeries(tooth)
		ts := ToothSeries{
			Tooth:   tooth,
			Total:   total,
			Peak:    stats[i].Peak,
			Mean:    stats[i].Mean,
			Sensors: make(map[int]SensorReading),
		}
		for _, s := range src.SensorIDs(tooth) {
			ts.Sensors[s] = SensorReading{Forces: make([]float64, 0, len(times))}
		}
		data.Series = append(data.Series, ts)
	}

	for _, t := range times {
		forces := src.InstantaneousForces(t)
		for i := range data.Series {
			ts := &data.Series[i]
			for s, r := range ts.Sensors {
				r.Forces = append(r.Forces, forces[forcedata.Key{Tooth: ts.Tooth, Sensor: s}])
				ts.Sensors[s] = r
			}
		}
	}

	if len(times) > 0 {
		for _, p := range src.CenterOfForceUpTo(times[len(times)-1]) {
			data.Center = append(data.Center, CenterPoint{X: p.X, Y: p.Y})
		}
	}
	return data
}

// SeriesJSON writes Series(src) as indented JSON.
func SeriesJSON(w io.Writer, src forcedata.Source) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Series(src))
}

// ExportJSON writes SeriesJSON to path, or to stdout when path is "-".
func ExportJSON(path string, src forcedata.Source) error {
	if path == "-" {
		return SeriesJSON(os.Stdout, src)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := SeriesJSON(file, src); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
