package repository

import (
	"context"
	"errors"
	"testing"

	"multitenant-cms/internal/db/dbtest"
	"multitenant-cms/internal/membership/domain"
)

func TestSQLRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewSQLite(t)
	repo := NewSQLRepository(conn)
	acme := dbtest.InsertAccount(t, conn, "Acme Corp")
	northwind := dbtest.InsertAccount(t, conn, "Northwind Traders")
	editor := dbtest.InsertUser(t, conn, "editor@northwind.test")

	member := &domain.Membership{AccountID: acme, UserID: editor, Role: domain.RoleMember}
	admin := &domain.Membership{AccountID: northwind, UserID: editor, Role: domain.RoleAdmin}
	for _, m := range []*domain.Membership{member, admin} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if member.ID == 0 || admin.ID <= member.ID {
		t.Fatalf("ids = %d, %d", member.ID, admin.ID)
	}

	got, err := repo.GetByUserAndAccount(ctx, editor, northwind)
	if err != nil || got == nil || got.Role != domain.RoleAdmin {
		t.Fatalf("GetByUserAndAccount = %+v, %v", got, err)
	}
	none, err := repo.GetByUserAndAccount(ctx, editor, northwind+10)
	if err != nil || none != nil {
		t.Errorf("GetByUserAndAccount(other account) = %v, %v; want nil, nil", none, err)
	}

	mine, err := repo.ListByUser(ctx, editor)
	if err != nil || len(mine) != 2 || mine[0].AccountID != acme || mine[1].AccountID != northwind {
		t.Errorf("ListByUser = %+v, %v", mine, err)
	}
}

func TestSQLRepository_Constraints(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewSQLite(t)
	repo := NewSQLRepository(conn)
	acme := dbtest.InsertAccount(t, conn, "Acme Corp")
	admin := dbtest.InsertUser(t, conn, "admin@acme.test")

	if err := repo.Create(ctx, &domain.Membership{AccountID: acme, UserID: admin, Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Membership{AccountID: acme, UserID: admin, Role: domain.RoleMember})
	if !errors.Is(err, ErrMembershipExists) {
		t.Errorf("second membership for the pair = %v, want ErrMembershipExists", err)
	}

	err = repo.Create(ctx, &domain.Membership{AccountID: acme + 50, UserID: admin, Role: domain.RoleMember})
	if err == nil || errors.Is(err, ErrMembershipExists) {
		t.Errorf("membership in unknown account = %v, want foreign key error", err)
	}
	if err := repo.Create(ctx, &domain.Membership{AccountID: acme, UserID: admin}); err == nil {
		t.Error("Create without a role should fail")
	}
}

func TestSQLRepository_DeleteAndCascade(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewSQLite(t)
	repo := NewSQLRepository(conn)
	acme := dbtest.InsertAccount(t, conn, "Acme Corp")
	northwind := dbtest.InsertAccount(t, conn, "Northwind Traders")
	admin := dbtest.InsertUser(t, conn, "admin@acme.test")
	editor := dbtest.InsertUser(t, conn, "editor@northwind.test")
	for _, m := range []*domain.Membership{
		{AccountID: acme, UserID: admin, Role: domain.RoleAdmin},
		{AccountID: acme, UserID: editor, Role: domain.RoleMember},
		{AccountID: northwind, UserID: editor, Role: domain.RoleAdmin},
	} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.DeleteByAccount(ctx, northwind); err != nil {
		t.Fatalf("DeleteByAccount: %v", err)
	}
	all, _ := repo.List(ctx)
	if len(all) != 2 {
		t.Fatalf("after DeleteByAccount len = %d, want 2", len(all))
	}
	if err := repo.DeleteByUser(ctx, admin); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 1 || all[0].UserID != editor {
		t.Fatalf("after DeleteByUser = %+v", all)
	}

	if _, err := conn.Exec("DELETE FROM users WHERE id = ?", editor); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 0 {
		t.Errorf("memberships survived their user: %+v", all)
	}
}
