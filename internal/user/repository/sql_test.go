package repository

import (
	"context"
	"errors"
	"testing"

	"multitenant-cms/internal/db/dbtest"
	"multitenant-cms/internal/user/domain"
)

func TestSQLRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.NewSQLite(t))

	u := &domain.User{Email: "admin@acme.test", FullName: "Acme Admin", IsActive: true, PasswordHash: "$2a$hash"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("Create did not set ID")
	}

	got, err := repo.GetByEmail(ctx, "admin@acme.test")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail = %v, %v", got, err)
	}
	if got.ID != u.ID || got.FullName != "Acme Admin" || !got.IsActive || got.IsSuperuser || got.PasswordHash != "$2a$hash" {
		t.Errorf("GetByEmail = %+v", got)
	}
	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Email != u.Email {
		t.Errorf("GetByID = %v, %v", byID, err)
	}

	missing, err := repo.GetByID(ctx, u.ID+100)
	if err != nil || missing != nil {
		t.Errorf("GetByID(unknown) = %v, %v; want nil, nil", missing, err)
	}
	if got, _ := repo.GetByEmail(ctx, "ADMIN@acme.test"); got != nil {
		t.Error("email lookup must be exact")
	}
}

func TestSQLRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.NewSQLite(t))
	if err := repo.Create(ctx, &domain.User{Email: "a@acme.test", PasswordHash: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.User{Email: "a@acme.test", PasswordHash: "y"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Create duplicate = %v, want ErrEmailTaken", err)
	}
	if err := repo.Create(ctx, &domain.User{Email: "b@acme.test"}); err == nil {
		t.Error("Create without a password hash should fail validation")
	}
}

func TestSQLRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewSQLite(t)
	repo := NewSQLRepository(conn)
	for _, email := range []string{"superuser@test.com", "admin@acme.test", "editor@northwind.test"} {
		if err := repo.Create(ctx, &domain.User{Email: email, PasswordHash: "x", IsActive: true}); err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
	}
	accountID := dbtest.InsertAccount(t, conn, "Acme Corp")
	if _, err := conn.Exec("INSERT INTO memberships (account_id, user_id, role) VALUES (?, 2, 'admin')", accountID); err != nil {
		t.Fatalf("insert membership: %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 3 || users[0].ID != 1 || users[2].Email != "editor@northwind.test" {
		t.Fatalf("List = %+v", users)
	}

	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if u, _ := repo.GetByID(ctx, 2); u != nil {
		t.Error("deleted user still present")
	}
	var memberships int
	if err := conn.Get(&memberships, "SELECT COUNT(*) FROM memberships WHERE user_id = 2"); err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if memberships != 0 {
		t.Errorf("memberships of deleted user = %d, want 0", memberships)
	}
	if err := repo.Delete(ctx, 42); err != nil {
		t.Errorf("Delete(unknown) = %v, want nil", err)
	}
}
