// Package archive persists run history and deduplicates exchanges across
// captures.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/PentesterFlow/harspec/internal/report"
)

var bucketRuns = []byte("runs")

// Record is one archived analysis run.
type Record struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	SpecPath  string            `json:"spec_path,omitempty"`
	Report    *report.RunReport `json:"report"`
}

// Store is a BoltDB-backed archive of past runs.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (or creates) an archive database.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// SaveRun archives a run record. A missing ID or timestamp is filled in.
// Keys sort chronologically so listing walks runs in order.
func (s *Store) SaveRun(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	key := []byte(rec.CreatedAt.UTC().Format(time.RFC3339Nano) + "_" + rec.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(key, data)
	})
}

// ListRuns returns all archived runs, oldest first.
func (s *Store) ListRuns() ([]*Record, error) {
	var runs []*Record

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			runs = append(runs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
