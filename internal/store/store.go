package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCatalog = []byte("catalog")
)

// Keys within bucketCatalog
const (
	keySnapshot = "snapshot"
)

// snapshotRecord is the serialized form of a snapshot
type snapshotRecord struct {
	Stories   []domain.Story `json:"stories"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// CatalogStore implements domain.SnapshotStore using BoltDB.
type CatalogStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory copy of the last record (promoted on access)
	cache map[string][]byte
}

// NewCatalogStore opens the mirror under baseCacheDir, one database per upstream.
// An empty baseCacheDir gives a memory-only store.
func NewCatalogStore(baseCacheDir, upstreamURL string) (*CatalogStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &CatalogStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if upstreamURL != "" {
		dir = filepath.Join(baseCacheDir, hashUpstreamURL(upstreamURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "reel.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCatalog)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CatalogStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashUpstreamURL(upstreamURL string) string {
	normalized := strings.TrimRight(strings.ToLower(upstreamURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CatalogStore) get(key string, dest interface{}) bool {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CatalogStore) set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Put([]byte(key), data)
	})
}

// === Snapshot ===

// LoadSnapshot returns the mirrored snapshot and its upstream fetch time
func (s *CatalogStore) LoadSnapshot() (domain.Snapshot, time.Time, bool) {
	var rec snapshotRecord
	if !s.get(keySnapshot, &rec) {
		return domain.Snapshot{}, time.Time{}, false
	}
	return domain.NewSnapshot(rec.Stories), rec.FetchedAt, true
}

// SaveSnapshot replaces the mirror with snap
func (s *CatalogStore) SaveSnapshot(snap domain.Snapshot, fetchedAt time.Time) error {
	return s.set(keySnapshot, snapshotRecord{Stories: snap.Stories(), FetchedAt: fetchedAt})
}

// Clear removes the mirrored snapshot
func (s *CatalogStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCatalog); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketCatalog)
		return err
	})
}
