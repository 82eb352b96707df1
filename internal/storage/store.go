package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type BodyMeta struct {
	Name string  `json:"name"`
	Mass float64 `json:"mass"`
}

type SolverSummary struct {
	Solver               string  `json:"solver"`
	Rows                 int     `json:"rows"`
	EnergyDrift          float64 `json:"energy_drift"`
	MaxEnergyDrift       float64 `json:"max_energy_drift"`
	AngularMomentumDrift float64 `json:"angular_momentum_drift"`
	TotalArea            float64 `json:"total_area"`
	ElapsedMs            float64 `json:"elapsed_ms"`
}

type RunMetadata struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	T0        float64         `json:"t0"`
	TN        float64         `json:"tn"`
	Dt        float64         `json:"dt"`
	G         float64         `json:"g"`
	Bodies    []BodyMeta      `json:"bodies"`
	Solvers   []SolverSummary `json:"solvers"`
}

// Summarize reduces a result to the figures kept in metadata.json.
func Summarize(res *sim.Result) SolverSummary {
	return SolverSummary{
		Solver:               res.Solver,
		Rows:                 res.Len(),
		EnergyDrift:          res.EnergyDrift(),
		MaxEnergyDrift:       res.MaxEnergyDrift(),
		AngularMomentumDrift: res.AngularMomentumDrift(),
		TotalArea:            res.TotalArea(),
		ElapsedMs:            float64(res.Elapsed.Microseconds()) / 1000,
	}
}

// NewMetadata describes a finished run of s.
func NewMetadata(name string, s *sim.Simulator, results []*sim.Result) RunMetadata {
	cfg := s.Config()
	meta := RunMetadata{
		Name:      name,
		Timestamp: time.Now(),
		T0:        cfg.T0,
		TN:        cfg.TN,
		Dt:        cfg.Dt,
		G:         cfg.Constants.G,
	}
	for _, b := range s.Bodies() {
		meta.Bodies = append(meta.Bodies, BodyMeta{Name: b.Name, Mass: b.Mass})
	}
	for _, res := range results {
		meta.Solvers = append(meta.Solvers, Summarize(res))
	}
	return meta
}

// Save writes metadata.json and one CSV per solver into a new run
// directory and returns its id.
func (s *Store) Save(meta RunMetadata, results []*sim.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	runID, runDir, err := s.newRunDir(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	for _, res := range results {
		if err := writeSeries(filepath.Join(runDir, res.Solver+".csv"), res); err != nil {
			return "", fmt.Errorf("%s: %w", res.Solver, err)
		}
	}

	return runID, nil
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%d", name, ts.Unix())
	for n := 1; ; n++ {
		runID := base
		if n > 1 {
			runID = fmt.Sprintf("%s-%d", base, n)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Values are written with the shortest representation that parses back
// to the same float64.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSeries(path string, res *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if res.Len() == 0 {
		w.Flush()
		return w.Error()
	}
	width := len(res.Q[0])

	header := []string{"time"}
	for i := 0; i < width; i++ {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	for i := 0; i < width; i++ {
		header = append(header, fmt.Sprintf("p%d", i))
	}
	header = append(header, "energy", "angular_momentum", "area_swept")
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for k := range res.Times {
		row = append(row[:0], formatFloat(res.Times[k]))
		for _, v := range res.Q[k] {
			row = append(row, formatFloat(v))
		}
		for _, v := range res.P[k] {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			formatFloat(res.Energy[k]),
			formatFloat(res.AngularMomentum[k]),
			formatFloat(res.AreaSwept[k]))

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResult reads one solver's series back into a result. Elapsed is
// not stored per row and is left zero.
func (s *Store) LoadResult(runID, solver string) (*sim.Result, error) {
	scheme, err := integrators.ParseScheme(solver)
	if err != nil {
		return nil, err
	}

	csvPath := filepath.Join(s.baseDir, runID, scheme.String()+".csv")
	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, runID, scheme)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	res := &sim.Result{Solver: scheme.String(), Scheme: scheme}
	if len(records) < 2 {
		return res, nil
	}

	cols := len(records[0])
	width := (cols - 4) / 2
	if cols < 4 || 2*width+4 != cols {
		return nil, fmt.Errorf("%s: unexpected header with %d columns", csvPath, cols)
	}

	rows := len(records) - 1
	res.Times = make([]float64, rows)
	res.Q = make([]dynamo.State, rows)
	res.P = make([]dynamo.State, rows)
	res.Energy = make([]float64, rows)
	res.AngularMomentum = make([]float64, rows)
	res.AreaSwept = make([]float64, rows)

	for k, record := range records[1:] {
		vals := make([]float64, cols)
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", csvPath, k+1, j, err)
			}
			vals[j] = v
		}

		res.Times[k] = vals[0]
		res.Q[k] = dynamo.State(vals[1 : 1+width])
		res.P[k] = dynamo.State(vals[1+width : 1+2*width])
		res.Energy[k] = vals[1+2*width]
		res.AngularMomentum[k] = vals[2+2*width]
		res.AreaSwept[k] = vals[3+2*width]
	}

	return res, nil
}

// BodyNames lists the stored body names in state order.
func (m *RunMetadata) BodyNames() []string {
	names := make([]string, len(m.Bodies))
	for i, b := range m.Bodies {
		names[i] = b.Name
	}
	return names
}
