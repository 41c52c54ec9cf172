package access

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stockgate/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T, dir string) *Registry {
	t.Helper()
	r := NewRegistry(domain.DefaultCategories, FileBackend(dir), testLogger())
	require.NoError(t, r.Load(context.Background()))
	return r
}

func TestRegistry_LoadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "residents.txt"),
		[]byte("username,identifier\nalice,A-1\nbob,B-2\n"), 0644))

	r := newTestRegistry(t, dir)

	ok, err := r.Exists(domain.CategoryResidents, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// user lookups are case-sensitive
	ok, err = r.Exists(domain.CategoryResidents, "Alice")
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := r.IdentifierOf(domain.CategoryResidents, "bob")
	require.NoError(t, err)
	assert.Equal(t, "B-2", id)

	names, err := r.Usernames(domain.CategoryResidents)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestRegistry_RegisterAppends(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(t, dir)
	ctx := context.Background()

	require.NoError(t, r.Register(ctx, "milkman", domain.UserRecord{Username: "sam", Identifier: "M-7"}))
	assert.ErrorIs(t, r.Register(ctx, "milkman", domain.UserRecord{Username: "sam", Identifier: "M-8"}), domain.ErrDuplicate)
	assert.ErrorIs(t, r.Register(ctx, "milkman", domain.UserRecord{}), domain.ErrInvalidUser)

	data, err := os.ReadFile(filepath.Join(dir, "milkman.txt"))
	require.NoError(t, err)
	assert.Equal(t, "username,identifier\nsam,M-7\n", string(data))

	reloaded := newTestRegistry(t, dir)
	id, err := reloaded.IdentifierOf("milkman", "sam")
	require.NoError(t, err)
	assert.Equal(t, "M-7", id)
}

func TestRegistry_UnknownCategory(t *testing.T) {
	r := newTestRegistry(t, t.TempDir())

	assert.False(t, r.Has("plumber"))
	_, err := r.Exists("plumber", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	_, err = r.IdentifierOf("plumber", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	assert.ErrorIs(t, r.Register(context.Background(), "plumber", domain.UserRecord{Username: "x"}), domain.ErrUnknownCategory)
}

func TestRegistry_IdentifierOfMissing(t *testing.T) {
	r := newTestRegistry(t, t.TempDir())

	_, err := r.IdentifierOf(domain.CategoryResidents, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_MalformedFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "salesman.txt")
	require.NoError(t, os.WriteFile(path, []byte("username,identifier\n,S-1\n"), 0644))

	r := newTestRegistry(t, dir)

	names, err := r.Usernames("salesman")
	require.NoError(t, err)
	assert.Empty(t, names)

	matches, err := filepath.Glob(path + ".bad-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRegistry_Categories(t *testing.T) {
	r := newTestRegistry(t, t.TempDir())
	assert.Equal(t, domain.DefaultCategories, r.Categories())
}
