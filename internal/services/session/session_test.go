package session

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/services/ledger"
	"github.com/vadiminshakov/valutatrade/internal/storage/filestore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newUsers(t *testing.T) (*Users, *ledger.Ledger, *filestore.Memory) {
	t.Helper()
	store := filestore.NewMemory()
	l, err := ledger.New(store, zap.NewNop())
	require.NoError(t, err)
	u, err := NewUsers(store, l, zap.NewNop())
	require.NoError(t, err)
	u.cost = bcrypt.MinCost
	return u, l, store
}

func TestUsers_Register(t *testing.T) {
	users, l, _ := newUsers(t)

	alice, err := users.Register("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)
	assert.NotEqual(t, "secret", alice.HashedPassword)
	assert.False(t, alice.RegistrationDate.IsZero())

	bob, err := users.Register("bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.ID)

	p, err := l.Portfolio(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Wallet)

	_, err = users.Register("Alice", "another")
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUsers_RegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "al", password: "secret"},
		{name: "username with space", username: "al ice", password: "secret"},
		{name: "username with symbol", username: "alice!", password: "secret"},
		{name: "short password", username: "alice", password: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, _, store := newUsers(t)
			_, err := users.Register(tt.username, tt.password)
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.Zero(t, store.Saves())
		})
	}
}

func TestUsers_RegisterPersistenceFailure(t *testing.T) {
	users, _, store := newUsers(t)
	store.SetFailSave(errors.New("disk full"))

	_, err := users.Register("alice", "secret")
	require.ErrorIs(t, err, domain.ErrPersistence)

	store.SetFailSave(nil)
	_, err = users.Find("alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUsers_Authenticate(t *testing.T) {
	users, _, _ := newUsers(t)
	_, err := users.Register("alice", "secret")
	require.NoError(t, err)

	user, err := users.Authenticate("ALICE", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = users.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, domain.ErrAuthentication)

	_, err = users.Authenticate("carol", "secret")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUsers_SurviveRestart(t *testing.T) {
	users, _, store := newUsers(t)
	_, err := users.Register("alice", "secret")
	require.NoError(t, err)

	reopened, err := NewUsers(store, nil, nil)
	require.NoError(t, err)
	user, err := reopened.Authenticate("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestUsers_CorruptRecordIsNoData(t *testing.T) {
	users, _, store := newUsers(t)
	require.NoError(t, store.Save(domain.KindUsers, []byte("{not json")))

	_, err := users.Find("alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	alice, err := users.Register("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)

	user, err := users.Authenticate("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
}

func TestSession(t *testing.T) {
	store := filestore.NewMemory()
	s := NewSession(store)

	_, err := s.CurrentUser()
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)

	_, err = s.Login(domain.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	// a second handle over the same store sees the login
	current, err := NewSession(store).CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, domain.SessionUser{ID: 7, Username: "alice"}, current)

	require.NoError(t, s.Logout())
	require.NoError(t, s.Logout())
	_, err = s.CurrentUser()
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestSession_CorruptRecord(t *testing.T) {
	store := filestore.NewMemory()
	require.NoError(t, store.Save(domain.KindSession, []byte("{not json")))

	_, err := NewSession(store).CurrentUser()
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}
