// Package recordstore holds an ordered, keyed collection of records in memory
// and writes it through to a Persistence after every mutation.
package recordstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vbonduro/stockgate/internal/domain"
)

// Persistence loads and stores the whole record set.
type Persistence[R any] interface {
	Load(ctx context.Context) ([]R, error)
	SaveAll(ctx context.Context, records []R) error
}

// Appender is implemented by persistence backends that can add a single
// record without rewriting the rest. Store.Add prefers it over SaveAll.
type Appender[R any] interface {
	Append(ctx context.Context, record R) error
}

// Option configures a Store.
type Option func(*options)

type options struct {
	foldKeys bool
}

// WithCaseInsensitiveKeys makes key lookups ignore letter case.
func WithCaseInsensitiveKeys() Option {
	return func(o *options) { o.foldKeys = true }
}

// Store is an ordered in-memory set of records, unique by key.
type Store[R any] struct {
	mu      sync.Mutex
	records []R
	key     func(R) string
	persist Persistence[R]
	opts    options
}

// New returns an empty Store; call Load to fill it from persist.
func New[R any](persist Persistence[R], key func(R) string, opts ...Option) *Store[R] {
	s := &Store[R]{persist: persist, key: key}
	for _, o := range opts {
		o(&s.opts)
	}
	return s
}

// Load replaces the in-memory records with what the persistence holds.
// On error the store is left unchanged.
func (s *Store[R]) Load(ctx context.Context) error {
	records, err := s.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *Store[R]) match(a, b string) bool {
	if s.opts.foldKeys {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// index returns the position of the first record with the given key, or -1.
// Callers must hold s.mu.
func (s *Store[R]) index(key string) int {
	for i, r := range s.records {
		if s.match(s.key(r), key) {
			return i
		}
	}
	return -1
}

// Add appends r. A record whose key is already present is rejected with
// domain.ErrDuplicate.
func (s *Store[R]) Add(ctx context.Context, r R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(s.key(r)) >= 0 {
		return fmt.Errorf("record %q: %w", s.key(r), domain.ErrDuplicate)
	}
	s.records = append(s.records, r)

	if a, ok := s.persist.(Appender[R]); ok {
		if err := a.Append(ctx, r); err != nil {
			return fmt.Errorf("failed to append record: %w", err)
		}
		return nil
	}
	return s.save(ctx)
}

// Remove deletes the first record matching key.
func (s *Store[R]) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(key)
	if i < 0 {
		return fmt.Errorf("record %q: %w", key, domain.ErrNotFound)
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return s.save(ctx)
}

// Update applies fn to a copy of the first record matching key. If fn returns
// an error the store is not changed and the error is returned as is.
func (s *Store[R]) Update(ctx context.Context, key string, fn func(*R) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(key)
	if i < 0 {
		return fmt.Errorf("record %q: %w", key, domain.ErrNotFound)
	}
	r := s.records[i]
	if err := fn(&r); err != nil {
		return err
	}
	s.records[i] = r
	return s.save(ctx)
}

func (s *Store[R]) Get(key string) (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(key); i >= 0 {
		return s.records[i], true
	}
	var zero R
	return zero, false
}

// List returns a copy of all records in insertion order.
func (s *Store[R]) List() []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]R(nil), s.records...)
}

func (s *Store[R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// save writes every record. The in-memory change is kept even when the write
// fails. Callers must hold s.mu.
func (s *Store[R]) save(ctx context.Context) error {
	if err := s.persist.SaveAll(ctx, append([]R(nil), s.records...)); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}
