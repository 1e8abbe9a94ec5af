package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/babycare/internal/database"
	"github.com/dukerupert/babycare/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupFamilyTestDB(t *testing.T) (*FamilyStore, *BabyStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewFamilyStore(db), NewBabyStore(db)
}

func TestFamilyCreate(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	f, err := fs.Create("My Baby")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if f.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if f.Name != "My Baby" {
		t.Errorf("name = %q, want %q", f.Name, "My Baby")
	}

	got, err := fs.GetByID(f.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Name != "My Baby" {
		t.Errorf("GetByID = %+v, want name %q", got, "My Baby")
	}
}

func TestFamilyCreateSeedsBabyInfo(t *testing.T) {
	fs, bs := setupFamilyTestDB(t)

	f, err := fs.Create("Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	b, err := bs.Get(f.ID)
	if err != nil {
		t.Fatalf("get baby: %v", err)
	}
	if b == nil {
		t.Fatal("expected seeded baby info")
	}
	if b.Name != "Baby" || b.Gender != "Not specified" || b.Weight != 0 || b.Height != 0 || b.BirthDate != "" {
		t.Errorf("seeded baby = %+v, want defaults", b)
	}
}

func TestFamilyGetByIDNotFound(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	f, err := fs.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if f != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestFamilyIDForUser(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	id, err := fs.FamilyIDForUser(42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 0 {
		t.Errorf("family id = %d, want 0 for non-member", id)
	}

	f, _ := fs.Create("Smith")
	if _, err := fs.UpsertMember(f.ID, 42, "Administrator", "Alice"); err != nil {
		t.Fatalf("upsert member: %v", err)
	}

	id, err = fs.FamilyIDForUser(42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != f.ID {
		t.Errorf("family id = %d, want %d", id, f.ID)
	}
}

func TestUpsertMemberReplaces(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)
	f, _ := fs.Create("Smith")

	if _, err := fs.UpsertMember(f.ID, 7, "Parent", "Bob"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	m, err := fs.UpsertMember(f.ID, 7, "Administrator", "Robert")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if m.Role != "Administrator" || m.Name != "Robert" {
		t.Errorf("member = %+v, want Administrator/Robert", m)
	}

	members, err := fs.ListMembers(f.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member after re-adding, got %d", len(members))
	}
}

func TestListMembersScopedToFamily(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)
	a, _ := fs.Create("A")
	b, _ := fs.Create("B")

	fs.UpsertMember(a.ID, 1, "Parent", "One")
	fs.UpsertMember(a.ID, 2, "Parent", "Two")
	fs.UpsertMember(b.ID, 3, "Parent", "Three")

	members, err := fs.ListMembers(a.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	for _, m := range members {
		if m.FamilyID != a.ID {
			t.Errorf("member %d belongs to family %d, want %d", m.UserID, m.FamilyID, a.ID)
		}
	}
}

func TestListIDs(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	ids, err := fs.ListIDs()
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no families, got %v", ids)
	}

	a, _ := fs.Create("A")
	b, _ := fs.Create("B")

	ids, err = fs.ListIDs()
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Errorf("ids = %v, want [%d %d]", ids, a.ID, b.ID)
	}
}

func TestUpsertMemberUnknownFamily(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	if _, err := fs.UpsertMember(999, 1, "Parent", "Ghost"); err == nil {
		t.Fatal("expected foreign key error for unknown family")
	}
}

func TestFamilyCreateWithAdmin(t *testing.T) {
	fs, _ := setupFamilyTestDB(t)

	f, err := fs.CreateWithAdmin("Smith", model.Member{UserID: 10, Role: model.RoleAdministrator, Name: "Alice"})
	if err != nil {
		t.Fatalf("create with admin: %v", err)
	}
	m, err := fs.GetMember(f.ID, 10)
	if err != nil || m == nil {
		t.Fatalf("member = %v, %v", m, err)
	}
	if m.Role != model.RoleAdministrator || m.Name != "Alice" {
		t.Errorf("member = %+v", m)
	}
}

func TestFamilyCreateWithAdminRollsBack(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)
	if _, err := db.Exec(`CREATE TRIGGER reject_member BEFORE INSERT ON family_members
		BEGIN SELECT RAISE(ABORT, 'member rejected'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := fs.CreateWithAdmin("Smith", model.Member{UserID: 10, Role: model.RoleAdministrator, Name: "Alice"}); err == nil {
		t.Fatal("expected error when the member insert fails")
	}
	ids, err := fs.ListIDs()
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("families = %v, want none left behind", ids)
	}
}
