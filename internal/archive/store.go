package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// ErrNotFound is returned when a key is absent from the archive
var ErrNotFound = errors.New("archive: not found")

// Key prefixes
const (
	PrefixRun   = "run:"
	PrefixSweep = "sweep:"
)

// Options configures the badger database behind a Store
type Options struct {
	Dir      string
	InMemory bool
	Logger   *slog.Logger
}

// Store is a badger-backed archive of completed optimizer runs and sweep rows
type Store struct {
	db *badger.DB
}

// RunRecord is an archived optimizer run
type RunRecord struct {
	ID            string                `json:"id"`
	Variant       string                `json:"variant"`
	Status        string                `json:"status"`
	CreatedAt     time.Time             `json:"createdAt"`
	CompletedAt   time.Time             `json:"completedAt"`
	Seed          int64                 `json:"seed"`
	Generations   int                   `json:"generations"`
	Evaluations   int                   `json:"evaluations"`
	Converged     bool                  `json:"converged"`
	Reason        string                `json:"reason"`
	BestCost      float64               `json:"bestCost"`
	Valid         bool                  `json:"valid"`
	Genome        json.RawMessage       `json:"genome,omitempty"`
	UserOperation *models.UserOperation `json:"userOperation,omitempty"`
	GasOutput     *models.GasOutput     `json:"gasOutput,omitempty"`
	ConfigYAML    string                `json:"configYaml,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// Open opens (or creates) an archive in dir
func Open(dir string) (*Store, error) {
	return OpenWithOptions(Options{Dir: dir})
}

// OpenInMemory opens an archive that lives only as long as the process
func OpenInMemory() (*Store, error) {
	return OpenWithOptions(Options{InMemory: true})
}

// OpenWithOptions opens an archive
func OpenWithOptions(o Options) (*Store, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if o.Dir == "" {
			return nil, fmt.Errorf("archive directory is required")
		}
		opts = badger.DefaultOptions(o.Dir)
	}
	opts = opts.WithLogger(newBadgerLogger(o.Logger))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(id string) []byte {
	return []byte(PrefixRun + id)
}

// sweepPrefix groups rows by bundle size; the padding keeps numeric order
func sweepPrefix(bundleSize int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", PrefixSweep, bundleSize))
}

func sweepKey(bundleSize int64, sweepID string, run int) []byte {
	return append(sweepPrefix(bundleSize), []byte(fmt.Sprintf("%s:%06d", sweepID, run))...)
}

func (s *Store) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *Store) get(key []byte, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// scan decodes every value under prefix, newest key first when reverse is set.
// limit <= 0 means no limit.
func scan[T any](db *badger.DB, prefix []byte, reverse bool, limit int) ([]T, error) {
	var out []T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if reverse {
			seek = append(append([]byte{}, prefix...), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var v T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// PutRun stores or replaces a run record
func (s *Store) PutRun(rec RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run id is required")
	}
	return s.put(runKey(rec.ID), rec)
}

// GetRun loads a run record; ErrNotFound when absent
func (s *Store) GetRun(id string) (RunRecord, error) {
	var rec RunRecord
	if err := s.get(runKey(id), &rec); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns archived runs, most recent ID first
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	return scan[RunRecord](s.db, []byte(PrefixRun), true, limit)
}

// DeleteRun removes a run record; ErrNotFound when absent
func (s *Store) DeleteRun(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(runKey(id))
	})
}

// PutSweepRows stores the rows of one sweep in a single transaction
func (s *Store) PutSweepRows(sweepID string, rows []models.SweepRow) error {
	if sweepID == "" {
		return fmt.Errorf("sweep id is required")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, row := range rows {
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to encode sweep row: %w", err)
			}
			if err := txn.Set(sweepKey(row.BundleSize, sweepID, row.Run), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSweepRows returns every archived row for a bundle size, in key order
func (s *Store) ListSweepRows(bundleSize int64) ([]models.SweepRow, error) {
	return scan[models.SweepRow](s.db, sweepPrefix(bundleSize), false, 0)
}
