package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/babycare/internal/model"
)

type BabyStore struct {
	db *sql.DB
}

func NewBabyStore(db *sql.DB) *BabyStore {
	return &BabyStore{db: db}
}

// Get returns the family's baby profile, or nil when none exists.
func (s *BabyStore) Get(familyID int64) (*model.BabyInfo, error) {
	var b model.BabyInfo
	var birth sql.NullString
	err := s.db.QueryRow(
		`SELECT family_id, name, birth_date, gender, weight, height FROM baby_info WHERE family_id = ?`, familyID,
	).Scan(&b.FamilyID, &b.Name, &birth, &b.Gender, &b.Weight, &b.Height)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get baby info: %w", err)
	}
	b.BirthDate = birth.String
	return &b, nil
}

// GetOrDefault returns the stored profile or the documented default.
func (s *BabyStore) GetOrDefault(familyID int64) (model.BabyInfo, error) {
	b, err := s.Get(familyID)
	if err != nil {
		return model.BabyInfo{}, err
	}
	if b == nil {
		return model.DefaultBabyInfo(familyID), nil
	}
	return *b, nil
}

// Update applies the fields set in p over the current profile, creating the
// profile from defaults when it is missing.
func (s *BabyStore) Update(familyID int64, p model.BabyPatch) (*model.BabyInfo, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cur := model.DefaultBabyInfo(familyID)
	var birth sql.NullString
	err = tx.QueryRow(
		`SELECT name, birth_date, gender, weight, height FROM baby_info WHERE family_id = ?`, familyID,
	).Scan(&cur.Name, &birth, &cur.Gender, &cur.Weight, &cur.Height)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read baby info: %w", err)
	}
	cur.BirthDate = birth.String

	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.BirthDate != nil {
		cur.BirthDate = *p.BirthDate
	}
	if p.Gender != nil {
		cur.Gender = *p.Gender
	}
	if p.Weight != nil {
		cur.Weight = *p.Weight
	}
	if p.Height != nil {
		cur.Height = *p.Height
	}

	var birthArg any
	if cur.BirthDate != "" {
		birthArg = cur.BirthDate
	}
	_, err = tx.Exec(
		`INSERT INTO baby_info (family_id, name, birth_date, gender, weight, height) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(family_id) DO UPDATE SET name = excluded.name, birth_date = excluded.birth_date,
		 gender = excluded.gender, weight = excluded.weight, height = excluded.height`,
		familyID, cur.Name, birthArg, cur.Gender, cur.Weight, cur.Height,
	)
	if err != nil {
		return nil, fmt.Errorf("write baby info: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit baby info: %w", err)
	}
	return &cur, nil
}
