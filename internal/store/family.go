package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/babycare/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	if err := scanner.Scan(&m.FamilyID, &m.UserID, &m.Role, &m.Name); err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `family_id, user_id, role, name`

// Create inserts a family and seeds its default baby profile in one
// transaction.
func (s *FamilyStore) Create(name string) (*model.Family, error) {
	return s.create(name, nil)
}

// CreateWithAdmin is Create plus the first member, written in the same
// transaction so a family never exists without its administrator.
func (s *FamilyStore) CreateWithAdmin(name string, admin model.Member) (*model.Family, error) {
	return s.create(name, &admin)
}

func (s *FamilyStore) create(name string, admin *model.Member) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	baby := model.DefaultBabyInfo(id)
	_, err = tx.Exec(
		`INSERT INTO baby_info (family_id, name, birth_date, gender, weight, height) VALUES (?, ?, NULL, ?, ?, ?)`,
		id, baby.Name, baby.Gender, baby.Weight, baby.Height,
	)
	if err != nil {
		return nil, fmt.Errorf("seed baby info: %w", err)
	}

	if admin != nil {
		_, err = tx.Exec(
			`INSERT INTO family_members (family_id, user_id, role, name) VALUES (?, ?, ?, ?)`,
			id, admin.UserID, admin.Role, admin.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("insert admin member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit family: %w", err)
	}
	return &model.Family{ID: id, Name: name}, nil
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	var f model.Family
	err := s.db.QueryRow(`SELECT id, name FROM families WHERE id = ?`, id).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return &f, nil
}

// FamilyIDForUser resolves the family a recipient belongs to. It returns 0
// when the recipient has no membership.
func (s *FamilyStore) FamilyIDForUser(userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT family_id FROM family_members WHERE user_id = ? ORDER BY family_id LIMIT 1`, userID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolve family: %w", err)
	}
	return id, nil
}

// ListIDs returns every family id in ascending order.
func (s *FamilyStore) ListIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM families ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertMember adds a recipient to a family, replacing role and name if the
// recipient is already a member of it.
func (s *FamilyStore) UpsertMember(familyID, userID int64, role, name string) (*model.Member, error) {
	_, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, role, name) VALUES (?, ?, ?, ?)
		 ON CONFLICT(family_id, user_id) DO UPDATE SET role = excluded.role, name = excluded.name`,
		familyID, userID, role, name,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert member: %w", err)
	}
	return s.GetMember(familyID, userID)
}

func (s *FamilyStore) GetMember(familyID, userID int64) (*model.Member, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) ListMembers(familyID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY rowid`, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
