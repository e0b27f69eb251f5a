// Package seed loads the demo tenants, users and memberships.
package seed

import (
	"context"
	"fmt"
	"time"

	accountdomain "multitenant-cms/internal/account/domain"
	membershipdomain "multitenant-cms/internal/membership/domain"
	"multitenant-cms/internal/security"
	"multitenant-cms/internal/storage"
	userdomain "multitenant-cms/internal/user/domain"
)

// DemoUser is a seeded user together with its plaintext password.
type DemoUser struct {
	Email       string
	Password    string
	FullName    string
	IsSuperuser bool
}

// DemoAccounts are created in order, so a fresh store assigns ids 1 and 2.
var DemoAccounts = []accountdomain.Account{
	{Name: "Acme Corp", Email: "billing@acme.test", IsActive: true},
	{Name: "Northwind Traders", Email: "finance@northwind.test", IsActive: true},
}

// DemoUsers are created in order, so a fresh store assigns ids 1, 2 and 3.
var DemoUsers = []DemoUser{
	{Email: "superuser@test.com", Password: "supersecret", FullName: "Super User", IsSuperuser: true},
	{Email: "admin@acme.test", Password: "adminpass", FullName: "Alex Admin"},
	{Email: "editor@northwind.test", Password: "editorpass", FullName: "Casey Editor"},
}

// demoMembership indexes into DemoAccounts and DemoUsers.
type demoMembership struct {
	account, user int
	role          string
}

var demoMemberships = []demoMembership{
	{account: 0, user: 1, role: membershipdomain.RoleAdmin},
	{account: 0, user: 2, role: membershipdomain.RoleMember},
	{account: 1, user: 2, role: membershipdomain.RoleAdmin},
}

// Result reports what Demo created.
type Result struct {
	Skipped     bool
	Accounts    int
	Users       int
	Memberships int
}

// Demo creates the demo data. It does nothing when the first demo user already exists.
func Demo(ctx context.Context, repos *storage.Repositories, hasher *security.Hasher) (Result, error) {
	existing, err := repos.Users.GetByEmail(ctx, DemoUsers[0].Email)
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}
	if existing != nil {
		return Result{Skipped: true}, nil
	}
	now := time.Now().UTC()

	var res Result
	accountIDs := make([]int64, len(DemoAccounts))
	for i := range DemoAccounts {
		a := DemoAccounts[i]
		a.CreatedAt = now
		if err := repos.Accounts.Create(ctx, &a); err != nil {
			return res, fmt.Errorf("seed account %s: %w", a.Email, err)
		}
		accountIDs[i] = a.ID
		res.Accounts++
	}

	userIDs := make([]int64, len(DemoUsers))
	for i, du := range DemoUsers {
		hash, err := hasher.Hash(du.Password)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", du.Email, err)
		}
		u := &userdomain.User{
			Email:        du.Email,
			FullName:     du.FullName,
			IsActive:     true,
			IsSuperuser:  du.IsSuperuser,
			PasswordHash: hash,
			CreatedAt:    now,
		}
		if err := repos.Users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("seed user %s: %w", du.Email, err)
		}
		userIDs[i] = u.ID
		res.Users++
	}

	for _, dm := range demoMemberships {
		m := &membershipdomain.Membership{
			AccountID: accountIDs[dm.account],
			UserID:    userIDs[dm.user],
			Role:      dm.role,
			CreatedAt: now,
		}
		if err := repos.Memberships.Create(ctx, m); err != nil {
			return res, fmt.Errorf("seed membership: %w", err)
		}
		res.Memberships++
	}
	return res, nil
}
