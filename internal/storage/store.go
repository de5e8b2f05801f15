package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/heatsim/internal/metrics"
)

// Snapshot quantity names, used as file prefixes.
const (
	QuantityT     = "T"
	QuantityEta   = "eta"
	QuantityP     = "P"
	QuantityGas   = "rho_g"
	QuantitySolid = "rho_s"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
)

var (
	ErrNoSnapshot = errors.New("storage: no matching snapshot")
	ErrBadCSV     = errors.New("storage: malformed csv")
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
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Cells        int                `json:"cells"`
	Processes    int                `json:"processes"`
	Scheme       string             `json:"scheme"`
	Collectives  string             `json:"collectives"`
	Steps        int                `json:"steps"`
	Time         float64            `json:"time"`
	Dt           float64            `json:"dt"`
	Code         string             `json:"code"`
	Ignited      bool               `json:"ignited"`
	IgnitionTime *float64           `json:"ignition_time,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Quantity is one named per-cell column of a snapshot.
type Quantity struct {
	Name   string
	Values []float64
}

// Run is an open run directory that snapshots are written into while the
// simulation progresses.
type Run struct {
	ID  string
	dir string
}

// Create opens a fresh run directory named after the run and a short
// random suffix.
func (s *Store) Create(name string) (*Run, error) {
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	dir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Run{ID: runID, dir: dir}, nil
}

// FormatTag renders a simulated time as the snapshot tag, in milliseconds.
func FormatTag(t float64) string {
	return strconv.FormatFloat(t*1000, 'f', 6, 64)
}

// SaveSnapshot writes one <quantity>_<tag>.csv file per quantity with
// columns x and the quantity.
func (r *Run) SaveSnapshot(tag string, x []float64, quantities ...Quantity) error {
	for _, q := range quantities {
		if len(q.Values) != len(x) {
			return fmt.Errorf("storage: snapshot %s has %d values for %d positions", q.Name, len(q.Values), len(x))
		}
		path := filepath.Join(r.dir, snapshotName(q.Name, tag))
		if err := writeColumns(path, []string{"x", q.Name}, x, q.Values); err != nil {
			return err
		}
	}
	return nil
}

func (r *Run) SaveHistory(samples []metrics.Sample) error {
	file, err := os.Create(filepath.Join(r.dir, historyFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"step", "time", "dt", "t_max", "t_min", "eta_max", "energy", "eta_integral", "ignited"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Step),
			formatFloat(s.Time),
			formatFloat(s.Dt),
			formatFloat(s.TMax),
			formatFloat(s.TMin),
			formatFloat(s.EtaMax),
			formatFloat(s.Energy),
			formatFloat(s.EtaIntegral),
			strconv.FormatBool(s.Ignited),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Finish writes the run summary.
func (r *Run) Finish(meta RunMetadata) error {
	meta.ID = r.ID
	file, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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

// Tags lists the snapshot tags of a run in ascending time order.
func (s *Store) Tags(runID string) ([]string, error) {
	pattern := filepath.Join(s.baseDir, runID, QuantityT+"_*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		tags = append(tags, strings.TrimSuffix(strings.TrimPrefix(base, QuantityT+"_"), ".csv"))
	}
	sort.Slice(tags, func(i, j int) bool {
		a, errA := strconv.ParseFloat(tags[i], 64)
		b, errB := strconv.ParseFloat(tags[j], 64)
		if errA != nil || errB != nil {
			return tags[i] < tags[j]
		}
		return a < b
	})
	return tags, nil
}

// ResolveTag returns the first tag containing partial. An empty partial
// selects the latest snapshot.
func (s *Store) ResolveTag(runID, partial string) (string, error) {
	tags, err := s.Tags(runID)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("%w: run %s has no snapshots", ErrNoSnapshot, runID)
	}
	if partial == "" {
		return tags[len(tags)-1], nil
	}
	for _, tag := range tags {
		if strings.Contains(tag, partial) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: run %s has no tag matching %q", ErrNoSnapshot, runID, partial)
}

func (s *Store) LoadSnapshot(runID, quantity, tag string) (x, values []float64, err error) {
	path := filepath.Join(s.baseDir, runID, snapshotName(quantity, tag))
	cols, err := readColumns(path, 2)
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}

func (s *Store) LoadHistory(runID string) ([]metrics.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []metrics.Sample{}, nil
	}

	samples := make([]metrics.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 9 {
			return nil, fmt.Errorf("%w: history row %d has %d fields", ErrBadCSV, i+1, len(rec))
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: history row %d: %v", ErrBadCSV, i+1, err)
		}
		vals := make([]float64, 7)
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, fmt.Errorf("%w: history row %d: %v", ErrBadCSV, i+1, err)
			}
		}
		ignited, _ := strconv.ParseBool(rec[8])
		samples = append(samples, metrics.Sample{
			Step:        step,
			Time:        vals[0],
			Dt:          vals[1],
			TMax:        vals[2],
			TMin:        vals[3],
			EtaMax:      vals[4],
			Energy:      vals[5],
			EtaIntegral: vals[6],
			Ignited:     ignited,
		})
	}
	return samples, nil
}

func snapshotName(quantity, tag string) string {
	return quantity + "_" + tag + ".csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeColumns(path string, header []string, cols ...[]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := range cols[0] {
		for j, c := range cols {
			row[j] = formatFloat(c[i])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readColumns(path string, n int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, filepath.Base(path))
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, n)
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != n {
			return nil, fmt.Errorf("%w: %s row %d", ErrBadCSV, filepath.Base(path), i)
		}
		for j := range n {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: %v", ErrBadCSV, filepath.Base(path), i, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}
