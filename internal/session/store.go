// Package session is the terminal's small durable store: the auth
// token, the cached cashier profile and the locally kept supplier name
// list. Everything else durable lives behind the remote API.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/pebble"
)

var ErrNotFound = errors.New("session key not found")

const (
	keyToken     = "auth/token"
	keyProfile   = "auth/profile"
	keySuppliers = "suppliers/names"
)

// Profile is the cashier identity cached after login.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Store struct {
	db *pebble.DB
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetToken stores the bearer token; an empty token deletes it.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return s.db.Delete([]byte(keyToken), pebble.Sync)
	}
	return s.db.Set([]byte(keyToken), []byte(token), pebble.Sync)
}

// Token returns the stored bearer token, or "" when none is stored.
// It satisfies the api.TokenSource contract together with
// OnUnauthorized.
func (s *Store) Token() string {
	v, closer, err := s.db.Get([]byte(keyToken))
	if err != nil {
		return ""
	}
	defer closer.Close()
	return string(append([]byte(nil), v...))
}

// OnUnauthorized drops the stored token so the next start forces a
// fresh login.
func (s *Store) OnUnauthorized() {
	_ = s.db.Delete([]byte(keyToken), pebble.Sync)
}

func (s *Store) SetProfile(p Profile) error {
	buf, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.db.Set([]byte(keyProfile), buf, pebble.Sync)
}

func (s *Store) Profile() (Profile, error) {
	v, closer, err := s.db.Get([]byte(keyProfile))
	if errors.Is(err, pebble.ErrNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	defer closer.Close()

	var p Profile
	if err := json.Unmarshal(v, &p); err != nil {
		return Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, nil
}

// AddSupplierName appends to the locally persisted supplier name list,
// kept sorted and deduplicated.
func (s *Store) AddSupplierName(name string) error {
	if name == "" {
		return nil
	}
	names, err := s.SupplierNames()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	names = append(names, name)
	sort.Strings(names)

	buf, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal supplier names: %w", err)
	}
	return s.db.Set([]byte(keySuppliers), buf, pebble.Sync)
}

func (s *Store) SupplierNames() ([]string, error) {
	v, closer, err := s.db.Get([]byte(keySuppliers))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var names []string
	if err := json.Unmarshal(v, &names); err != nil {
		return nil, fmt.Errorf("unmarshal supplier names: %w", err)
	}
	return names, nil
}
