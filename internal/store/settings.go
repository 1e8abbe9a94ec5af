package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/babycare/internal/model"
)

const settingsCols = `family_id, feed_interval, diaper_interval, tips_enabled, tips_time_hour, tips_time_minute,
	bath_interval, bath_time_hour, bath_time_minute, bath_enabled`

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func scanSettings(scanner interface{ Scan(...any) error }) (*model.Settings, error) {
	var st model.Settings
	err := scanner.Scan(
		&st.FamilyID, &st.FeedInterval, &st.DiaperInterval, &st.TipsEnabled, &st.TipsTime.Hour, &st.TipsTime.Minute,
		&st.BathInterval, &st.BathTime.Hour, &st.BathTime.Minute, &st.BathEnabled,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Get returns the family's settings, or nil when no row has been created yet.
func (s *SettingsStore) Get(familyID int64) (*model.Settings, error) {
	row := s.db.QueryRow(`SELECT `+settingsCols+` FROM settings WHERE family_id = ?`, familyID)
	st, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// GetOrCreate returns the family's settings, inserting the defaults first if
// the row does not exist.
func (s *SettingsStore) GetOrCreate(familyID int64) (*model.Settings, error) {
	if _, err := s.db.Exec(`INSERT INTO settings (family_id) VALUES (?) ON CONFLICT(family_id) DO NOTHING`, familyID); err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}
	st, err := s.Get(familyID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("settings for family %d vanished after create", familyID)
	}
	return st, nil
}

// Update writes only the fields set in p. Columns of a row created here take
// their schema defaults.
func (s *SettingsStore) Update(familyID int64, p model.SettingsPatch) (*model.Settings, error) {
	if p.Empty() {
		return s.GetOrCreate(familyID)
	}

	cols := []string{"family_id"}
	args := []any{familyID}
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	if p.FeedInterval != nil {
		add("feed_interval", *p.FeedInterval)
	}
	if p.DiaperInterval != nil {
		add("diaper_interval", *p.DiaperInterval)
	}
	if p.TipsEnabled != nil {
		add("tips_enabled", *p.TipsEnabled)
	}
	if p.TipsTime != nil {
		add("tips_time_hour", p.TipsTime.Hour)
		add("tips_time_minute", p.TipsTime.Minute)
	}
	if p.BathInterval != nil {
		add("bath_interval", *p.BathInterval)
	}
	if p.BathTime != nil {
		add("bath_time_hour", p.BathTime.Hour)
		add("bath_time_minute", p.BathTime.Minute)
	}
	if p.BathEnabled != nil {
		add("bath_enabled", *p.BathEnabled)
	}

	sets := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, c+" = excluded."+c)
	}
	query := fmt.Sprintf(
		`INSERT INTO settings (%s) VALUES (%s) ON CONFLICT(family_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "),
	)
	if _, err := s.db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.GetOrCreate(familyID)
}

// ToggleTips flips tips_enabled and returns the new value.
func (s *SettingsStore) ToggleTips(familyID int64) (bool, error) {
	return s.toggle(familyID, "tips_enabled")
}

// ToggleBath flips bath_enabled and returns the new value.
func (s *SettingsStore) ToggleBath(familyID int64) (bool, error) {
	return s.toggle(familyID, "bath_enabled")
}

func (s *SettingsStore) toggle(familyID int64, col string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO settings (family_id) VALUES (?) ON CONFLICT(family_id) DO NOTHING`, familyID); err != nil {
		return false, fmt.Errorf("create settings: %w", err)
	}
	if _, err := tx.Exec(`UPDATE settings SET `+col+` = NOT `+col+` WHERE family_id = ?`, familyID); err != nil {
		return false, fmt.Errorf("toggle %s: %w", col, err)
	}
	var enabled bool
	if err := tx.QueryRow(`SELECT `+col+` FROM settings WHERE family_id = ?`, familyID).Scan(&enabled); err != nil {
		return false, fmt.Errorf("read %s: %w", col, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}
	return enabled, nil
}
