package store

import (
	"testing"

	"github.com/dukerupert/babycare/internal/model"
)

func TestBabyUpdatePartial(t *testing.T) {
	fs, bs := setupFamilyTestDB(t)
	f, err := fs.Create("Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	if _, err := bs.Update(f.ID, model.BabyPatch{Name: strPtr("Mia"), Weight: floatPtr(4.2)}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	b, err := bs.Update(f.ID, model.BabyPatch{Height: floatPtr(55.5)})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	if b.Name != "Mia" {
		t.Errorf("name = %q, want %q", b.Name, "Mia")
	}
	if b.Weight != 4.2 {
		t.Errorf("weight = %v, want 4.2", b.Weight)
	}
	if b.Height != 55.5 {
		t.Errorf("height = %v, want 55.5", b.Height)
	}
	if b.Gender != model.GenderUnspecified {
		t.Errorf("gender = %q, want %q", b.Gender, model.GenderUnspecified)
	}

	stored, err := bs.Get(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *stored != *b {
		t.Errorf("stored = %+v, want %+v", *stored, *b)
	}
}

func TestBabyUpdateBirthDate(t *testing.T) {
	fs, bs := setupFamilyTestDB(t)
	f, _ := fs.Create("Smith")

	b, err := bs.Update(f.ID, model.BabyPatch{BirthDate: strPtr("01.02.2026")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if b.BirthDate != "01.02.2026" {
		t.Errorf("birth date = %q, want %q", b.BirthDate, "01.02.2026")
	}
}

func TestBabyGetOrDefaultMissingRow(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)
	bs := NewBabyStore(db)
	f, _ := fs.Create("Smith")

	if _, err := db.Exec(`DELETE FROM baby_info WHERE family_id = ?`, f.ID); err != nil {
		t.Fatalf("delete baby info: %v", err)
	}

	b, err := bs.GetOrDefault(f.ID)
	if err != nil {
		t.Fatalf("get or default: %v", err)
	}
	if b != model.DefaultBabyInfo(f.ID) {
		t.Errorf("baby = %+v, want defaults", b)
	}

	// Update recreates the row from defaults.
	updated, err := bs.Update(f.ID, model.BabyPatch{Gender: strPtr(model.GenderGirl)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Gender != model.GenderGirl || updated.Name != model.DefaultBabyName {
		t.Errorf("updated = %+v", updated)
	}
}
