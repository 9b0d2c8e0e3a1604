package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// BoltStore saves one record per profile in a bbolt database file, so a
// single file can hold sessions for several OVPM servers.
type BoltStore struct {
	db      *bolt.DB
	profile []byte
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (creating if needed) the database at path and scopes the
// store to profile.
func OpenBolt(path, profile string) (*BoltStore, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, fmt.Errorf("tokenstore: profile required")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tokenstore: init %s: %w", path, err)
	}
	return &BoltStore{db: db, profile: []byte(profile)}, nil
}

// Profile returns the profile the store is scoped to.
func (s *BoltStore) Profile() string { return string(s.profile) }

func (s *BoltStore) Load(_ context.Context) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b == nil {
			return ErrNotFound
		}
		raw := b.Get(s.profile)
		if raw == nil {
			return ErrNotFound
		}
		// raw is only valid inside the transaction; Unmarshal copies it.
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *BoltStore) Save(_ context.Context, rec Record) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionsBucket)
		if err != nil {
			return err
		}
		return b.Put(s.profile, raw)
	})
}

func (s *BoltStore) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b == nil {
			return nil
		}
		return b.Delete(s.profile)
	})
}

// Profiles lists every profile with a saved session.
func (s *BoltStore) Profiles() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// Close releases the database file lock.
func (s *BoltStore) Close() error { return s.db.Close() }
