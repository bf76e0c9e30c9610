package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/internal/domain/validate"
)

// Cache file layout constants.
const (
	snapshotTimestampLayout = "20060102_150405"
	sampleDateLayout        = "2006-01-02"
)

// columns is the required header, in order. The names come from the
// upstream service's field codes so the cache stays interchangeable with
// exports produced by other tooling.
var columns = []string{"ptNo", "ptNm", "addr", "itemTp", "itemTn", "latDgr", "lonDgr", "wmcymd"}

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithSnapshotDir sets where pre-overwrite snapshots are written.
// Defaults to a "backup" directory beside the canonical file.
func WithSnapshotDir(dir string) Option {
	return func(s *CSVStore) {
		if dir != "" {
			s.snapshotDir = dir
		}
	}
}

// WithClock replaces the time source used for snapshot names.
func WithClock(now func() time.Time) Option {
	return func(s *CSVStore) {
		if now != nil {
			s.now = now
		}
	}
}

// CSVStore implements Store on a single canonical CSV file.
//
// Save is the only mutation and holds the store mutex for its whole
// duration, so overlapping writers cannot interleave the snapshot-copy
// and rename steps.
type CSVStore struct {
	mu          sync.Mutex
	path        string
	snapshotDir string
	now         func() time.Time

	// refreshedAt is set after a successful Save. Load uses it to tell a
	// cache refreshed during this process's lifetime from a stale one.
	refreshedAt time.Time
}

// NewCSVStore creates a store for the given canonical file path.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	s := &CSVStore{
		path:        path,
		snapshotDir: filepath.Join(filepath.Dir(path), "backup"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the dataset to a temporary file in the canonical directory,
// fsyncs it and renames it into place, so a reader only ever observes the
// fully-old or fully-new file. The previous canonical file is copied to a
// timestamped snapshot before being replaced.
func (s *CSVStore) Save(ctx context.Context, ds *model.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.snapshot(); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := writeCSV(tmp, ds.Measurements); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}

	s.refreshedAt = s.now()
	return nil
}

// snapshot copies the current canonical file into the snapshot directory
// under a sortable timestamped name. Caller holds the mutex.
func (s *CSVStore) snapshot() error {
	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	src, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open cache for snapshot: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s_%s",
		s.now().UTC().Format(snapshotTimestampLayout), filepath.Base(s.path))
	dst, err := os.Create(filepath.Join(s.snapshotDir, name))
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}
	return dst.Sync()
}

// Load reads the canonical file and re-applies the same validation rules
// as the remote path: malformed structure or a file with zero valid rows
// is ErrCorruptCache, individual out-of-range rows are dropped.
func (s *CSVStore) Load(ctx context.Context) (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat cache: %w", err)
	}

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}
	if len(rows) == 0 || !headerOK(rows[0]) {
		return nil, fmt.Errorf("%w: missing or unexpected header", ErrCorruptCache)
	}

	ms := make([]model.Measurement, 0, len(rows)-1)
	for _, row := range rows[1:] {
		ms = append(ms, rowToMeasurement(row))
	}

	valid, _, err := validate.Records(ms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}

	source := model.SourceStaleCache
	if !s.refreshedAt.IsZero() {
		source = model.SourceRefreshedCache
	}
	return &model.Dataset{
		Measurements: valid,
		Source:       source,
		RetrievedAt:  info.ModTime(),
	}, nil
}

func headerOK(row []string) bool {
	if len(row) != len(columns) {
		return false
	}
	for i, col := range columns {
		if strings.TrimSpace(row[i]) != col {
			return false
		}
	}
	return true
}

func writeCSV(w io.Writer, ms []model.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range ms {
		row := []string{
			m.StationID,
			m.StationName,
			m.Address,
			formatOptional(m.Tp),
			formatOptional(m.Tn),
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
			m.SampleDate.Format(sampleDateLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func rowToMeasurement(row []string) model.Measurement {
	// Rows are length-checked against the header by encoding/csv.
	m := model.Measurement{
		StationID:   strings.TrimSpace(row[0]),
		StationName: strings.TrimSpace(row[1]),
		Address:     strings.TrimSpace(row[2]),
		Tp:          parseOptional(row[3]),
		Tn:          parseOptional(row[4]),
		Latitude:    parseCoord(row[5]),
		Longitude:   parseCoord(row[6]),
	}
	if ts, err := time.Parse(sampleDateLayout, strings.TrimSpace(row[7])); err == nil {
		m.SampleDate = ts
	}
	return m
}

func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f = math.NaN()
	}
	return &f
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
