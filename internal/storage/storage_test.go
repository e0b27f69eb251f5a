package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "multitenant-cms/internal/account/domain"
	"multitenant-cms/internal/db/dbtest"
	membershipdomain "multitenant-cms/internal/membership/domain"
	sessiondomain "multitenant-cms/internal/session/domain"
	userdomain "multitenant-cms/internal/user/domain"
)

// backends runs fn once per store kind.
func backends(t *testing.T, fn func(t *testing.T, repos *Repositories)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, NewSQL(dbtest.NewSQLite(t))) })
}

type fixture struct {
	repos   *Repositories
	account *accountdomain.Account
	user    *userdomain.User
	other   *userdomain.User
}

func newFixture(t *testing.T, repos *Repositories) fixture {
	t.Helper()
	ctx := context.Background()

	acct := &accountdomain.Account{Name: "Acme Corp", Email: "billing@acme.test", IsActive: true}
	require.NoError(t, repos.Accounts.Create(ctx, acct))
	u := &userdomain.User{Email: "a@acme.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, u))
	o := &userdomain.User{Email: "b@acme.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, o))

	for _, uid := range []int64{u.ID, o.ID} {
		require.NoError(t, repos.Memberships.Create(ctx, &membershipdomain.Membership{
			AccountID: acct.ID, UserID: uid, Role: membershipdomain.RoleMember,
		}))
	}
	now := time.Now().UTC()
	for i, uid := range []int64{u.ID, o.ID} {
		id := acct.ID
		require.NoError(t, repos.Sessions.Create(ctx, &sessiondomain.Session{
			ID:               "s" + string(rune('0'+i)),
			UserID:           uid,
			ActiveAccountID:  &id,
			AccessToken:      "access-" + string(rune('0'+i)),
			RefreshToken:     "refresh-" + string(rune('0'+i)),
			AccessExpiresAt:  now.Add(time.Hour),
			RefreshExpiresAt: now.Add(24 * time.Hour),
			CreatedAt:        now,
		}))
	}
	return fixture{repos: repos, account: acct, user: u, other: o}
}

func TestOpen_Drivers(t *testing.T) {
	r, err := Open("", "")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, r.Driver())
	assert.NoError(t, r.Ping(context.Background()))
	assert.NoError(t, r.Close())

	sqlRepos := NewSQL(dbtest.NewSQLite(t))
	assert.Equal(t, "sqlite", sqlRepos.Driver())
	assert.NoError(t, sqlRepos.Ping(context.Background()))

	_, err = Open("mysql", "dsn")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestDeleteUser_Cascades(t *testing.T) {
	backends(t, testDeleteUserCascades)
}

func testDeleteUserCascades(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	f := newFixture(t, repos)

	require.NoError(t, f.repos.DeleteUser(ctx, f.user.ID))

	u, err := f.repos.Users.GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, u)
	ms, err := f.repos.Memberships.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
	s, err := f.repos.Sessions.GetByAccessToken(ctx, "access-0")
	require.NoError(t, err)
	assert.Nil(t, s)

	// the other user is untouched
	s, err = f.repos.Sessions.GetByAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	ms, _ = f.repos.Memberships.ListByUser(ctx, f.other.ID)
	assert.Len(t, ms, 1)
}

func TestDeleteAccount_ClearsActiveAccount(t *testing.T) {
	backends(t, testDeleteAccountClearsActiveAccount)
}

func testDeleteAccountClearsActiveAccount(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	f := newFixture(t, repos)

	require.NoError(t, f.repos.DeleteAccount(ctx, f.account.ID))

	a, err := f.repos.Accounts.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Nil(t, a)
	all, err := f.repos.Memberships.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for _, tok := range []string{"access-0", "access-1"} {
		s, err := f.repos.Sessions.GetByAccessToken(ctx, tok)
		require.NoError(t, err)
		require.NotNil(t, s, "sessions survive account deletion")
		assert.Nil(t, s.ActiveAccountID)
	}
}
