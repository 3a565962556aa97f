package session

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Role: "LIBRARIAN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

var librarian = User{ID: 7, Email: "lib@school.edu", Role: RoleLibrarian, FirstName: "Ada", LastName: "Byron"}

func TestStartPersistsAndInitRestores(t *testing.T) {
	store := NewMemoryStore()
	token := signedToken(t, time.Now().Add(time.Hour))

	s := New(store, logr.Discard())
	require.NoError(t, s.Start(token, librarian))
	assert.True(t, s.IsAuthenticated())

	restored := New(store, logr.Discard())
	require.NoError(t, restored.Init())
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, token, restored.Token())
	assert.Equal(t, librarian, *restored.User())
	assert.True(t, restored.HasRole(RoleAdmin, RoleLibrarian))
	assert.False(t, restored.HasRole(RoleStudent))
}

func TestInitDropsExpiredToken(t *testing.T) {
	store := NewMemoryStore()
	s := New(store, logr.Discard())
	require.NoError(t, s.Start(signedToken(t, time.Now().Add(-time.Minute)), librarian))

	restored := New(store, logr.Discard())
	require.NoError(t, restored.Init())

	assert.False(t, restored.IsAuthenticated())
	_, ok, _ := store.Get(KeyToken)
	assert.False(t, ok)
	_, ok, _ = store.Get(KeyUser)
	assert.False(t, ok)
}

func TestInitDropsGarbageToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyToken, `"not-a-jwt"`))
	require.NoError(t, store.Set(KeyUser, `{"email":"x@y.z"}`))

	s := New(store, logr.Discard())
	require.NoError(t, s.Init())
	assert.False(t, s.IsAuthenticated())
	_, ok, _ := store.Get(KeyUser)
	assert.False(t, ok)
}

func TestInitWithEmptyStorage(t *testing.T) {
	s := New(NewMemoryStore(), logr.Discard())
	require.NoError(t, s.Init())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.False(t, s.HasRole(RoleLibrarian))
}

func TestClearRemovesBothKeys(t *testing.T) {
	store := NewMemoryStore()
	s := New(store, logr.Discard())
	require.NoError(t, s.Start(signedToken(t, time.Now().Add(time.Hour)), librarian))

	require.NoError(t, s.Clear())

	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	_, ok, _ := store.Get(KeyToken)
	assert.False(t, ok)
	_, ok, _ = store.Get(KeyUser)
	assert.False(t, ok)
}

func TestSessionOverSQLiteStore(t *testing.T) {
	store := tempStore(t)
	s := New(store, logr.Discard())
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, s.Start(token, librarian))

	restored := New(store, logr.Discard())
	require.NoError(t, restored.Init())
	assert.Equal(t, "lib@school.edu", restored.User().Email)
}

func TestParseClaims(t *testing.T) {
	claims, err := ParseClaims(signedToken(t, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "LIBRARIAN", claims.Role)

	_, err = TokenExpiry("a.b.c")
	assert.Error(t, err)
}

func TestUserFullNameAndRoleLabel(t *testing.T) {
	assert.Equal(t, "Ada Byron", librarian.FullName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.FullName())
	assert.Equal(t, "Librarian", RoleLibrarian.Label())
	assert.Equal(t, "JANITOR", Role("JANITOR").Label())
}
