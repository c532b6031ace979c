package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/pasearch/trackd/pkg/types"
)

var (
	bucketSession = []byte("session")
	keyCurrent    = []byte("current")
)

// Store persists the current session so it survives process restarts.
// It is an explicitly constructed instance with an Open/Close lifecycle;
// tests create isolated stores instead of sharing process-wide state.
type Store struct {
	db    *bolt.DB
	mu    sync.RWMutex
	cache *types.Session
}

// Open opens (creating if needed) the session database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	s := &Store{db: db}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the session and updates the in-memory copy
func (s *Store) Save(sess types.Session) error {
	data, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyCurrent, data)
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.cache = &sess
	s.mu.Unlock()
	return nil
}

// Load returns the current session, or false when no session is stored
func (s *Store) Load() (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil, false
	}
	sess := *s.cache
	return &sess, true
}

// Token returns the current bearer token, or "" when logged out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return ""
	}
	return s.cache.Token
}

// Clear removes the stored session
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(keyCurrent)
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
	return nil
}

// load reads the persisted session into the in-memory copy at open time.
// A corrupt record is discarded rather than failing the open.
func (s *Store) load() error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyCurrent)
		if data == nil {
			return nil
		}
		var sess types.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil
		}
		s.cache = &sess
		return nil
	})
}
