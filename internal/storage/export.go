package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"
)

// dB marshals non-finite values as null, which plain float64 cannot.
type dB float64

func (v dB) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', 4, 64), nil
}

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Ranges []float64   `json:"ranges"`
	Angles []float64   `json:"angles"`
	Depths []float64   `json:"depths"`
	TL     [][][]dB    `json:"tl"`
}

func NewExportData(meta *RunMetadata, t *Table) *ExportData {
	data := &ExportData{
		Run:    *meta,
		Ranges: t.Ranges,
		Angles: t.Angles,
		Depths: t.Depths,
		TL:     make([][][]dB, len(t.TL)),
	}
	for d, plane := range t.TL {
		data.TL[d] = make([][]dB, len(plane))
		for j, row := range plane {
			out := make([]dB, len(row))
			for n, v := range row {
				out[n] = dB(v)
			}
			data.TL[d][j] = out
		}
	}
	return data
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes a stored run to path, or to stdout when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	table, err := s.LoadTL(runID)
	if err != nil {
		return err
	}
	data := NewExportData(meta, table)

	if path == "" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
