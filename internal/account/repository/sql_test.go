package repository

import (
	"context"
	"errors"
	"testing"

	"multitenant-cms/internal/account/domain"
	"multitenant-cms/internal/db/dbtest"
)

func TestSQLRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.NewSQLite(t))

	acme := &domain.Account{Name: "Acme Corp", Email: "billing@acme.test", IsActive: true}
	northwind := &domain.Account{Name: "Northwind Traders", Email: "finance@northwind.test"}
	for _, a := range []*domain.Account{acme, northwind} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", a.Name, err)
		}
	}
	if acme.ID != 1 || northwind.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", acme.ID, northwind.ID)
	}

	got, err := repo.GetByID(ctx, acme.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %v, %v", got, err)
	}
	if got.Name != "Acme Corp" || got.Email != "billing@acme.test" || !got.IsActive {
		t.Errorf("GetByID = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stored")
	}
	if n, _ := repo.GetByID(ctx, northwind.ID); n == nil || n.IsActive {
		t.Errorf("inactive flag not kept: %+v", n)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("List = %+v, %v", all, err)
	}

	missing, err := repo.GetByID(ctx, 99)
	if err != nil || missing != nil {
		t.Errorf("GetByID(99) = %v, %v; want nil, nil", missing, err)
	}
}

func TestSQLRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.NewSQLite(t))
	if err := repo.Create(ctx, &domain.Account{Name: "Acme Corp", Email: "billing@acme.test"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Account{Name: "Acme Again", Email: "billing@acme.test"})
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("Create duplicate = %v, want ErrAccountExists", err)
	}
}

func TestSQLRepository_DeleteCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewSQLite(t)
	repo := NewSQLRepository(conn)
	a := &domain.Account{Name: "Acme Corp", Email: "billing@acme.test"}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	userID := dbtest.InsertUser(t, conn, "admin@acme.test")
	if _, err := conn.Exec("INSERT INTO memberships (account_id, user_id, role) VALUES (?, ?, 'admin')", a.ID, userID); err != nil {
		t.Fatalf("insert membership: %v", err)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.GetByID(ctx, a.ID); got != nil {
		t.Error("deleted account still present")
	}
	var n int
	if err := conn.Get(&n, "SELECT COUNT(*) FROM memberships"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("memberships after account delete = %d, want 0", n)
	}
}
