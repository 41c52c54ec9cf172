package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/flatfile"
	"github.com/vbonduro/stockgate/internal/recordstore"
)

// Backend opens the persistence of one category.
type Backend func(category domain.Category) recordstore.Persistence[domain.UserRecord]

// FileBackend keeps each category in <dir>/<category>.txt.
func FileBackend(dir string) Backend {
	return func(category domain.Category) recordstore.Persistence[domain.UserRecord] {
		return flatfile.New[domain.UserRecord](filepath.Join(dir, string(category)+".txt"), flatfile.UserCodec{})
	}
}

// Registry holds the users of every category. Users are only ever added.
type Registry struct {
	order   []domain.Category
	persist map[domain.Category]recordstore.Persistence[domain.UserRecord]
	users   map[domain.Category]*recordstore.Store[domain.UserRecord]
	logger  *slog.Logger
}

func NewRegistry(categories []domain.Category, backend Backend, logger *slog.Logger) *Registry {
	r := &Registry{
		order:   append([]domain.Category(nil), categories...),
		persist: make(map[domain.Category]recordstore.Persistence[domain.UserRecord], len(categories)),
		users:   make(map[domain.Category]*recordstore.Store[domain.UserRecord], len(categories)),
		logger:  logger,
	}
	for _, c := range categories {
		p := backend(c)
		r.persist[c] = p
		r.users[c] = recordstore.New(p, domain.UserKey)
	}
	return r
}

// Load reads every category. A malformed category file is moved aside and
// that category starts empty.
func (r *Registry) Load(ctx context.Context) error {
	for _, c := range r.order {
		err := r.users[c].Load(ctx)
		if err == nil {
			continue
		}
		q, ok := r.persist[c].(interface{ Quarantine() (string, error) })
		if !errors.Is(err, flatfile.ErrMalformed) || !ok {
			return fmt.Errorf("failed to load %s: %w", c, err)
		}
		moved, qerr := q.Quarantine()
		if qerr != nil {
			return fmt.Errorf("failed to load %s: %w (quarantine failed: %v)", c, err, qerr)
		}
		r.logger.Warn("user file malformed, starting empty", "category", c, "error", err, "moved_to", moved)
	}
	return nil
}

func (r *Registry) Categories() []domain.Category {
	return append([]domain.Category(nil), r.order...)
}

// Has reports whether c is a configured category.
func (r *Registry) Has(c domain.Category) bool {
	_, ok := r.users[c]
	return ok
}

func (r *Registry) category(c domain.Category) (*recordstore.Store[domain.UserRecord], error) {
	s, ok := r.users[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	return s, nil
}

func (r *Registry) Exists(c domain.Category, username string) (bool, error) {
	s, err := r.category(c)
	if err != nil {
		return false, err
	}
	_, ok := s.Get(username)
	return ok, nil
}

func (r *Registry) IdentifierOf(c domain.Category, username string) (string, error) {
	s, err := r.category(c)
	if err != nil {
		return "", err
	}
	u, ok := s.Get(username)
	if !ok {
		return "", fmt.Errorf("user %q in %s: %w", username, c, domain.ErrNotFound)
	}
	return u.Identifier, nil
}

func (r *Registry) Register(ctx context.Context, c domain.Category, u domain.UserRecord) error {
	s, err := r.category(c)
	if err != nil {
		return err
	}
	if u.Username == "" {
		return fmt.Errorf("%w: username is empty", domain.ErrInvalidUser)
	}
	if err := s.Add(ctx, u); err != nil {
		return fmt.Errorf("failed to register %q in %s: %w", u.Username, c, err)
	}
	r.logger.Info("user registered", "category", c, "username", u.Username)
	return nil
}

// Usernames lists the users of a category in registration order.
func (r *Registry) Usernames(c domain.Category) ([]string, error) {
	s, err := r.category(c)
	if err != nil {
		return nil, err
	}
	users := s.List()
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}
