package forcedata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var csvHeader = []string{"time", "tooth", "sensor", "force"}

func WriteCSV(w io.Writer, m *Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range m.Samples() {
		row := []string{
			strconv.FormatFloat(s.Time, 'f', 6, 64),
			strconv.Itoa(s.Tooth),
			strconv.Itoa(s.Sensor),
			strconv.FormatFloat(s.Force, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses long-format rows. The header row and malformed rows are skipped.
func ReadCSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		tooth, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		sensor, err := strconv.Atoi(record[2])
		if err != nil {
			continue
		}
		f, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Time: t, Tooth: tooth, Sensor: sensor, Force: f})
	}
	return NewMatrix(samples)
}

func SaveCSV(path string, m *Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := WriteCSV(file, m); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func LoadCSV(path string) (*Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	m, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}
