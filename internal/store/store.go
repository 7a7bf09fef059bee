// Package store holds the product and user tables in memory and mirrors them
// to a single JSON document on disk.
//
// Every mutating call rewrites the whole document unless the caller asks for a
// deferred write. Writes go to a temporary file in the same directory which is
// then renamed over the durable file, so a crash never leaves a half-written
// document behind.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// WriteMode tells a mutating call whether to persist immediately.
type WriteMode uint8

const (
	WriteThrough WriteMode = iota
	// WriteDeferred leaves persistence to a later call; used to batch imports.
	WriteDeferred
)

const (
	noteEmptied      = "products emptied, catalog import re-armed"
	noteBootstrapped = "catalog import completed"
)

// Bootstrapper loads the initial catalog into a store that has not been bootstrapped yet.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, s *Store) error
}

type Options struct {
	Log      *zap.Logger
	Registry prometheus.Registerer
	// Bootstrapper runs once from Open when the hydrated state is not bootstrapped.
	Bootstrapper Bootstrapper
	// HashCost is the bcrypt cost for new passwords; zero means bcrypt.DefaultCost.
	HashCost int
}

type document struct {
	Bootstrapped bool      `json:"bootstrapped"`
	Users        []User    `json:"users"`
	Products     []Product `json:"products"`
}

// storedDocument is the decode shape of the durable file. Every field must be
// present; a missing or null field means the file is not a store document.
type storedDocument struct {
	Bootstrapped *bool      `json:"bootstrapped"`
	Users        *[]User    `json:"users"`
	Products     *[]Product `json:"products"`
}

func decodeDocument(raw []byte) (document, error) {
	var sd storedDocument
	if err := json.Unmarshal(raw, &sd); err != nil {
		return document{}, err
	}

	var missing []string
	if sd.Bootstrapped == nil {
		missing = append(missing, "bootstrapped")
	}
	if sd.Users == nil {
		missing = append(missing, "users")
	}
	if sd.Products == nil {
		missing = append(missing, "products")
	}
	if len(missing) > 0 {
		return document{}, fmt.Errorf("missing fields %s", strings.Join(missing, ", "))
	}

	return document{
		Bootstrapped: *sd.Bootstrapped,
		Users:        *sd.Users,
		Products:     *sd.Products,
	}, nil
}

type Store struct {
	path     string
	log      *zap.Logger
	metrics  *metrics
	hashCost int

	mu            sync.RWMutex
	products      []Product
	users         []User
	boot          BootState
	nextProductID int64
	nextUserID    int64
	gen           uint64

	writeMu sync.Mutex
	written uint64
	writes  atomic.Int64
}

// Open hydrates a store from the document at path and, if the document is not
// bootstrapped, runs opts.Bootstrapper once. A missing or unparsable document
// is returned as ErrStorageCorrupt. A failed bootstrap is logged and leaves the
// store usable and not bootstrapped.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	s := &Store{
		path:     path,
		log:      log,
		hashCost: cost,
	}
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	s.metrics = newMetrics(opts.Registry, s)

	if !s.Bootstrapped() && opts.Bootstrapper != nil {
		if err := opts.Bootstrapper.Bootstrap(ctx, s); err != nil {
			s.log.Warn("store not bootstrapped, import will be retried on next start", zap.Error(err))
		}
	}

	return s, nil
}

// EnsureFile writes an empty document at path if nothing exists there yet.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(document{Users: []User{}, Products: []Product{}}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Reload replaces the in-memory tables with the current contents of the durable file.
func (s *Store) Reload() error {
	return s.hydrate()
}

func (s *Store) hydrate() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrStorageCorrupt, s.path, err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrStorageCorrupt, s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(make([]Product, 0, len(doc.Products)), doc.Products...)
	s.users = append(make([]User, 0, len(doc.Users)), doc.Users...)
	s.boot = bootStateOf(doc.Bootstrapped)
	s.nextProductID = 1
	for _, p := range s.products {
		if p.ID >= s.nextProductID {
			s.nextProductID = p.ID + 1
		}
	}
	s.nextUserID = 1
	for _, u := range s.users {
		if u.ID >= s.nextUserID {
			s.nextUserID = u.ID + 1
		}
	}
	s.gen++

	s.log.Info("store hydrated",
		zap.String("path", s.path),
		zap.Int("products", len(s.products)),
		zap.Int("users", len(s.users)),
		zap.Stringer("boot_state", s.boot),
	)
	return nil
}

func (s *Store) BootState() BootState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boot
}

func (s *Store) Bootstrapped() bool { return s.BootState().Bootstrapped() }

// EmptyProducts clears the product table and re-arms the catalog import.
// Users are kept.
func (s *Store) EmptyProducts() error {
	return s.mutate(WriteThrough, noteEmptied, func() error {
		s.products = []Product{}
		s.boot = BootNotStarted
		return nil
	})
}

// Persist writes the current state to the durable file.
func (s *Store) Persist(note string) error {
	s.mu.RLock()
	data, err := s.snapshotLocked()
	gen := s.gen
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return s.write(gen, data, note)
}

// Writes reports how many times the durable file has been rewritten.
func (s *Store) Writes() int64 { return s.writes.Load() }

// Ping checks that the durable file is still reachable.
func (s *Store) Ping(_ context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

// mutate runs fn under the table lock and then persists unless mode defers it.
// The snapshot is taken before the lock is released, so a write never sees a
// partially applied change.
func (s *Store) mutate(mode WriteMode, note string, fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.gen++
	if mode == WriteDeferred {
		s.mu.Unlock()
		return nil
	}

	data, err := s.snapshotLocked()
	gen := s.gen
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.write(gen, data, note)
}

func (s *Store) snapshotLocked() ([]byte, error) {
	doc := document{
		Bootstrapped: s.boot.Bootstrapped(),
		Users:        s.users,
		Products:     s.products,
	}
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Products == nil {
		doc.Products = []Product{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrStorageWrite, err)
	}
	return data, nil
}

func (s *Store) write(gen uint64, data []byte, note string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if gen < s.written {
		s.metrics.persisted(persistSuperseded)
		s.log.Debug("persist superseded", zap.Uint64("generation", gen), zap.Uint64("written", s.written))
		return nil
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		s.metrics.persisted(persistError)
		s.log.Error("persist failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	s.written = gen
	s.writes.Add(1)
	s.metrics.persisted(persistOK)

	fields := []zap.Field{zap.String("path", s.path), zap.Uint64("generation", gen)}
	if note != "" {
		fields = append(fields, zap.String("note", note))
	}
	s.log.Info("state persisted", fields...)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	committed = true
	return nil
}

func (s *Store) productCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Store) userCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
