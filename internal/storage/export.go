package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

// ExportData is the JSON export of a run.
type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

func WriteMetadata(w io.Writer, meta RunMetadata) error { return writeIndented(w, meta) }

func WriteJSON(w io.Writer, data ExportData) error { return writeIndented(w, data) }

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ExportJSON writes a stored run to path, or stdout when path is "-".
func (s *Store) ExportJSON(id, path string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	times, states, err := s.LoadStates(id)
	if err != nil {
		return err
	}
	data := ExportData{RunMetadata: *meta, Times: times, States: states}
	return toPath(path, func(w io.Writer) error { return WriteJSON(w, data) })
}

// ExportCSV copies a stored run's trajectory to path, or stdout when path
// is "-".
func (s *Store) ExportCSV(id, path string) error {
	times, states, err := s.LoadStates(id)
	if err != nil {
		return err
	}
	rows := make([]dynamo.State, len(states))
	for i, x := range states {
		rows[i] = x
	}
	return toPath(path, func(w io.Writer) error { return WriteCSV(w, times, rows) })
}

func toPath(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes a time column followed by x0..xN-1. Values use the
// shortest representation that round-trips.
func WriteCSV(w io.Writer, times []float64, states []dynamo.State) error {
	cw := csv.NewWriter(w)
	if len(states) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, x := range states {
		row := make([]string, 0, len(x)+1)
		row = append(row, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, v := range x {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) (times []float64, states [][]float64, err error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	times = make([]float64, 0, len(records)-1)
	states = make([][]float64, 0, len(records)-1)
	for line, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, nil, fmt.Errorf("states.csv line %d: %w", line+2, err)
			}
		}
		times = append(times, vals[0])
		states = append(states, vals[1:])
	}
	return times, states, nil
}
