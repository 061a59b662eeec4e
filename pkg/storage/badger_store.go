package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/log"
	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

const (
	runKeyPrefix  = "run:"    // Prefix for run record keys in DB
	runsDBDir     = "runs_db" // Subdirectory name within stateDir for Badger DB files
	runKeyTimeFmt = "20060102T150405.000000000Z"
)

// BadgerStore implements the RunStore interface using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore opens (or creates) the run history database under stateDir
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, runsDBDir)
	logger.Debugf("Opening run history database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrDatabase, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogger(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}
	return &BadgerStore{db: db, log: logger}, nil
}

// runKey orders records by start time; the ID breaks ties.
func runKey(r *models.RunRecord) []byte {
	return []byte(runKeyPrefix + r.StartedAt.UTC().Format(runKeyTimeFmt) + ":" + r.ID)
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// SaveRun implements the RunStore interface
func (s *BadgerStore) SaveRun(record *models.RunRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: run record has no ID", utils.ErrDatabase)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal run %s: %w", utils.ErrDatabase, record.ID, err)
	}
	key := runKey(record)
	err = s.dbUpdate(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("%w: save run %s: %w", utils.ErrDatabase, record.ID, err)
	}
	s.log.Debugf("Saved run record %s", record.ID)
	return nil
}

// scan iterates run records. fn returning false stops the iteration.
func (s *BadgerStore) scan(reverse bool, fn func(key []byte, r models.RunRecord) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(runKeyPrefix)
		if reverse {
			// Reverse iteration seeks to the largest key <= seek.
			seek = append([]byte(runKeyPrefix), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var rec models.RunRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				s.log.Warnf("Skipping unreadable run record %s: %v", string(item.Key()), err)
				continue
			}
			if !fn(item.KeyCopy(nil), rec) {
				return nil
			}
		}
		return nil
	})
}

// LatestRun implements the RunStore interface
func (s *BadgerStore) LatestRun() (*models.RunRecord, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns implements the RunStore interface
func (s *BadgerStore) ListRuns(limit int) ([]models.RunRecord, error) {
	var runs []models.RunRecord
	err := s.scan(true, func(_ []byte, r models.RunRecord) bool {
		runs = append(runs, r)
		return limit <= 0 || len(runs) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %w", utils.ErrDatabase, err)
	}
	return runs, nil
}

// RunCount implements the RunStore interface
func (s *BadgerStore) RunCount() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count runs: %w", utils.ErrDatabase, err)
	}
	return count, nil
}

// PruneRuns implements the RunStore interface
func (s *BadgerStore) PruneRuns(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var stale [][]byte
	seen := 0
	err := s.scan(true, func(key []byte, _ models.RunRecord) bool {
		seen++
		if seen > keep {
			stale = append(stale, key)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("%w: scan runs for pruning: %w", utils.ErrDatabase, err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("%w: delete run %s: %w", utils.ErrDatabase, string(key), err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("%w: flush pruned runs: %w", utils.ErrDatabase, err)
	}
	s.log.Debugf("Pruned %d old run records (kept %d)", len(stale), keep)
	return len(stale), nil
}

// ExportRuns implements the RunStore interface
func (s *BadgerStore) ExportRuns(ctx context.Context, w io.Writer) (int, error) {
	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	written := 0
	var writeErr error

	iterErr := s.scan(false, func(_ []byte, r models.RunRecord) bool {
		if ctx.Err() != nil {
			return false
		}
		if err := enc.Encode(r); err != nil {
			writeErr = err
			return false
		}
		written++
		return true
	})

	if err := ctx.Err(); err != nil {
		s.log.Warnf("Run export interrupted by context cancellation: %v", err)
		return written, err
	}
	if iterErr != nil {
		return written, fmt.Errorf("%w: export runs: %w", utils.ErrDatabase, iterErr)
	}
	if writeErr != nil {
		return written, fmt.Errorf("write run export: %w", writeErr)
	}
	if err := writer.Flush(); err != nil {
		return written, fmt.Errorf("flush run export: %w", err)
	}
	return written, nil
}

// RunGC periodically runs BadgerDB value log garbage collection
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}
			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection: %v", ctx.Err())
			return
		}
	}
}

// Close implements the RunStore interface
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	s.log.Debug("Closing run history database...")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", utils.ErrDatabase, err)
	}
	return nil
}
