package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/p3msim/internal/sim"
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

// RunMetadata describes one stored run. ID and Timestamp are filled in by
// Save.
type RunMetadata struct {
	ID         string             `json:"id"`
	Method     string             `json:"method"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Particles  int                `json:"particles"`
	Box        [3]float64         `json:"box"`
	Cutoff     float64            `json:"cutoff"`
	Skin       float64            `json:"skin"`
	Mesh       [3]int             `json:"mesh,omitempty"`
	CAO        int                `json:"cao,omitempty"`
	Alpha      float64            `json:"alpha,omitempty"`
	Rebuilds   int                `json:"rebuilds"`
	StepsTaken int                `json:"steps_taken"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Observation is one row of observables.csv.
type Observation struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	KSpace    float64 `json:"kspace"`
	Pressure  float64 `json:"pressure"`
	Pairs     int     `json:"pairs"`
	Rebuilt   bool    `json:"rebuilt"`
}

func (o Observation) Total() float64 { return o.Kinetic + o.Potential }

var csvHeader = []string{"step", "time", "kinetic", "potential", "kspace", "pressure", "pairs", "rebuilt"}

func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Method, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Rebuilds = result.Rebuilds
	meta.StepsTaken = result.StepsTaken
	meta.Metrics = result.Metrics

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "observables.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, r := range result.Records {
		row := []string{
			strconv.Itoa(r.Step),
			strconv.FormatFloat(r.Time, 'f', 6, 64),
			strconv.FormatFloat(r.Kinetic, 'g', 12, 64),
			strconv.FormatFloat(r.Potential, 'g', 12, 64),
			strconv.FormatFloat(r.Electrostatics.LongRange.KSpace, 'g', 12, 64),
			strconv.FormatFloat(r.Pressure, 'g', 12, 64),
			strconv.Itoa(r.Pairs),
			strconv.FormatBool(r.Rebuilt),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, oldest first.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadObservables(runID string) ([]Observation, error) {
	csvPath := filepath.Join(s.baseDir, runID, "observables.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Observation{}, nil
	}

	obs := make([]Observation, 0, len(records)-1)
	for i, record := range records[1:] {
		o, err := parseObservation(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", csvPath, i+2, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func parseObservation(record []string) (Observation, error) {
	var (
		o   Observation
		err error
	)
	if o.Step, err = strconv.Atoi(record[0]); err != nil {
		return o, err
	}
	floats := []*float64{&o.Time, &o.Kinetic, &o.Potential, &o.KSpace, &o.Pressure}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(record[i+1], 64); err != nil {
			return o, err
		}
	}
	if o.Pairs, err = strconv.Atoi(record[6]); err != nil {
		return o, err
	}
	if o.Rebuilt, err = strconv.ParseBool(record[7]); err != nil {
		return o, err
	}
	return o, nil
}

type ExportData struct {
	Metadata    RunMetadata   `json:"metadata"`
	Observables []Observation `json:"observables"`
}

// Export writes a stored run as a single JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	obs, err := s.LoadObservables(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Metadata: *meta, Observables: obs})
}
