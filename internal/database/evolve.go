package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Column is a column added to an existing table after the initial release.
type Column struct {
	Table      string
	Name       string
	Definition string
}

// lateColumns lists settings columns that older databases may lack.
var lateColumns = []Column{
	{Table: "settings", Name: "bath_interval", Definition: "INTEGER NOT NULL DEFAULT 1"},
	{Table: "settings", Name: "bath_time_hour", Definition: "INTEGER NOT NULL DEFAULT 19"},
	{Table: "settings", Name: "bath_time_minute", Definition: "INTEGER NOT NULL DEFAULT 0"},
	{Table: "settings", Name: "bath_enabled", Definition: "INTEGER NOT NULL DEFAULT 1"},
}

// EvolveSchema adds every late column that is missing. Running it against an
// up-to-date database is a no-op.
func EvolveSchema(db *sql.DB) error {
	for _, c := range lateColumns {
		if err := AddColumn(db, c); err != nil {
			return err
		}
	}
	return nil
}

// AddColumn adds c to its table unless a column with that name already exists.
func AddColumn(db *sql.DB, c Column) error {
	exists, err := columnExists(db, c.Table, c.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.Table, c.Name, c.Definition))
	if err != nil && !isDuplicateColumn(err) {
		return fmt.Errorf("add column %s.%s: %w", c.Table, c.Name, err)
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Another process may add the column between the check and the ALTER.
func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}
