package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pesim/internal/tl"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	metadataFile = "metadata.json"
	tlFile       = "tl.csv"
	verticalFile = "vertical.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Timestamp      time.Time          `json:"timestamp"`
	Frequency      float64            `json:"frequency"`
	SourceDepth    float64            `json:"source_depth"`
	ReceiverDepths []float64          `json:"receiver_depths"`
	Dr             float64            `json:"dr"`
	Dq             float64            `json:"dq_deg"`
	Dz             float64            `json:"dz"`
	Nr             int                `json:"nr"`
	Nq             int                `json:"nq"`
	Nz             int                `json:"nz"`
	Zmax           float64            `json:"zmax"`
	ElapsedMs      int64              `json:"elapsed_ms"`
	HasVertical    bool               `json:"has_vertical"`
	Summary        map[string]float64 `json:"summary"`
}

// Summarize returns min, max and mean loss over the finite values of the
// horizontal planes.
func Summarize(res *tl.Result) map[string]float64 {
	var vals []float64
	for _, plane := range res.TL {
		for _, row := range plane {
			for _, v := range row {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					vals = append(vals, v)
				}
			}
		}
	}
	if len(vals) == 0 {
		return map[string]float64{}
	}
	return map[string]float64{
		"tl_min":  floats.Min(vals),
		"tl_max":  floats.Max(vals),
		"tl_mean": stat.Mean(vals, nil),
	}
}

// Save writes metadata.json and tl.csv (plus vertical.csv when the result
// has a vertical slice) under a new run directory and returns its id.
func (s *Store) Save(name string, res *tl.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	g := res.Grid
	meta := RunMetadata{
		ID:             runID,
		Name:           name,
		Timestamp:      time.Now(),
		Frequency:      res.Frequency,
		SourceDepth:    res.SourceDepth,
		ReceiverDepths: res.ReceiverDepths,
		Dr:             g.Dr,
		Dq:             g.Dq * 180 / math.Pi,
		Dz:             g.Dz,
		Nr:             g.Nr,
		Nq:             g.Nq,
		Nz:             g.Nz,
		Zmax:           g.Zmax,
		ElapsedMs:      res.Elapsed.Milliseconds(),
		HasVertical:    res.Vertical != nil,
		Summary:        Summarize(res),
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	ranges := res.Ranges()
	angles := res.Angles()

	err = writeCSV(filepath.Join(runDir, tlFile), []string{"range", "angle", "depth", "tl"}, func(emit func(...float64) error) error {
		for d, plane := range res.TL {
			for j, row := range plane {
				for n, v := range row {
					if err := emit(ranges[n], angles[j], res.ReceiverDepths[d], v); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if res.Vertical != nil {
		depths := res.VerticalDepths()
		err = writeCSV(filepath.Join(runDir, verticalFile), []string{"range", "angle", "depth", "tl"}, func(emit func(...float64) error) error {
			for k, plane := range res.Vertical {
				for n, row := range plane {
					for j, v := range row {
						if err := emit(g.R[n], angles[j], depths[k], v); err != nil {
							return err
						}
					}
				}
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeCSV(path string, header []string, rows func(emit func(...float64) error) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	err = rows(func(vals ...float64) error {
		for i, v := range vals {
			record[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		return w.Write(record)
	})
	if err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// List returns all runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Table is a stored TL grid, indexed [depth][angle][range].
type Table struct {
	Ranges []float64
	Angles []float64
	Depths []float64
	TL     [][][]float64
}

// Row returns the TL against range for the depth index and the angle
// nearest angleDeg.
func (t *Table) Row(depthIndex int, angleDeg float64) ([]float64, float64, error) {
	if depthIndex < 0 || depthIndex >= len(t.Depths) {
		return nil, 0, fmt.Errorf("storage: depth index %d out of range [0, %d)", depthIndex, len(t.Depths))
	}
	if len(t.Angles) == 0 {
		return nil, 0, fmt.Errorf("storage: empty table")
	}
	best := 0
	for j, a := range t.Angles {
		if math.Abs(a-angleDeg) < math.Abs(t.Angles[best]-angleDeg) {
			best = j
		}
	}
	return t.TL[depthIndex][best], t.Angles[best], nil
}

// LoadTL reads tl.csv back into a Table.
func (s *Store) LoadTL(runID string) (*Table, error) {
	return loadTable(filepath.Join(s.baseDir, runID, tlFile))
}

// LoadVertical reads vertical.csv into a Table whose Depths are the
// vertical bins, so TL is [k][angle][range].
func (s *Store) LoadVertical(runID string) (*Table, error) {
	return loadTable(filepath.Join(s.baseDir, runID, verticalFile))
}

func loadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return &Table{}, nil
	}

	type sample struct{ r, a, d, v float64 }
	samples := make([]sample, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != 4 {
			return nil, fmt.Errorf("storage: %s line %d: expected 4 fields, got %d", filepath.Base(path), i+1, len(rec))
		}
		var vals [4]float64
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), i+1, err)
			}
			vals[j] = v
		}
		samples = append(samples, sample{vals[0], vals[1], vals[2], vals[3]})
	}

	t := &Table{}
	ri, ai, di := map[float64]int{}, map[float64]int{}, map[float64]int{}
	for _, s := range samples {
		t.Ranges = appendUnique(t.Ranges, ri, s.r)
		t.Angles = appendUnique(t.Angles, ai, s.a)
		t.Depths = appendUnique(t.Depths, di, s.d)
	}

	t.TL = make([][][]float64, len(t.Depths))
	for d := range t.TL {
		t.TL[d] = make([][]float64, len(t.Angles))
		for j := range t.TL[d] {
			row := make([]float64, len(t.Ranges))
			for n := range row {
				row[n] = math.NaN()
			}
			t.TL[d][j] = row
		}
	}
	for _, s := range samples {
		t.TL[di[s.d]][ai[s.a]][ri[s.r]] = s.v
	}
	return t, nil
}

// appendUnique keeps first-seen order, which is the order Save writes.
func appendUnique(vals []float64, index map[float64]int, v float64) []float64 {
	if _, ok := index[v]; ok {
		return vals
	}
	index[v] = len(vals)
	return append(vals, v)
}
