package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/nanotox/pkg/toxicity"
)

const (
	deleteToxicitySQL = `DELETE FROM toxicity`
	deleteElementSQL  = `DELETE FROM element`

	insertElementSQL  = `INSERT INTO element (name, position) VALUES (?, ?)`
	insertToxicitySQL = `INSERT INTO toxicity (element, concentration, value) VALUES (?, ?, ?)`

	upsertInfoSQL = `INSERT INTO table_info (id, source, imported_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET source = excluded.source, imported_at = excluded.imported_at
	`

	selectEntriesSQL = `SELECT t.element, t.concentration, t.value
		FROM toxicity t
		JOIN element e ON e.name = t.element
		ORDER BY e.position, t.concentration
	`

	selectInfoSQL          = `SELECT source, imported_at FROM table_info WHERE id = 1`
	selectElementCountSQL  = `SELECT COUNT(*) FROM element`
	selectToxicityCountSQL = `SELECT COUNT(*) FROM toxicity`
)

// ImportResult summarizes a SaveTable run.
type ImportResult struct {
	Source   string `json:"source" yaml:"source"`
	Elements int    `json:"elements" yaml:"elements"`
	Entries  int    `json:"entries" yaml:"entries"`
	Duration string `json:"duration" yaml:"duration"`
}

// TableInfo describes the stored table.
type TableInfo struct {
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	ImportedAt string `json:"imported_at,omitempty" yaml:"importedAt,omitempty"`
	Elements   int64  `json:"elements" yaml:"elements"`
	Entries    int64  `json:"entries" yaml:"entries"`
}

// SaveTable replaces the stored table with t in a single transaction.
func SaveTable(db *sql.DB, t *toxicity.Table) (*ImportResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if t == nil {
		return nil, errors.New("table required")
	}

	start := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, q := range []string{deleteToxicitySQL, deleteElementSQL} {
		if _, err := tx.Exec(q); err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("error clearing stored table: %w", err)
		}
	}

	elemStmt, err := tx.Prepare(rebind(db, insertElementSQL))
	if err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("failed to prepare element insert statement: %w", err)
	}
	defer elemStmt.Close()

	for i, name := range t.Elements() {
		if _, err := elemStmt.Exec(name, i); err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("error inserting element[%d]: %s: %w", i, name, err)
		}
	}

	toxStmt, err := tx.Prepare(rebind(db, insertToxicitySQL))
	if err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("failed to prepare toxicity insert statement: %w", err)
	}
	defer toxStmt.Close()

	entries := t.Entries()
	for _, e := range entries {
		if _, err := toxStmt.Exec(e.Element, e.Concentration, e.Value); err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("error inserting %s at %s: %w",
				e.Element, toxicity.FormatConcentration(e.Concentration), err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(rebind(db, upsertInfoSQL), t.Source(), now); err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("error saving table info: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	res := &ImportResult{
		Source:   t.Source(),
		Elements: len(t.Elements()),
		Entries:  len(entries),
		Duration: time.Since(start).String(),
	}
	slog.Debug("table saved", "source", res.Source, "elements", res.Elements, "entries", res.Entries)
	return res, nil
}

// LoadTable reads the stored table. An empty store is a load error.
func LoadTable(db *sql.DB, source string) (*toxicity.Table, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectEntriesSQL)
	if err != nil {
		return nil, &toxicity.DataLoadError{Source: source, Reason: "query failed", Err: err}
	}
	defer rows.Close()

	entries := make([]toxicity.Entry, 0)
	for rows.Next() {
		var e toxicity.Entry
		if err := rows.Scan(&e.Element, &e.Concentration, &e.Value); err != nil {
			return nil, &toxicity.DataLoadError{Source: source, Reason: "failed to scan row", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &toxicity.DataLoadError{Source: source, Reason: "failed to read rows", Err: err}
	}

	return toxicity.FromEntries(source, entries)
}

// GetTableInfo returns what is currently stored.
func GetTableInfo(db *sql.DB) (*TableInfo, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	info := &TableInfo{}
	err := db.QueryRow(selectInfoSQL).Scan(&info.Source, &info.ImportedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to scan table info: %w", err)
	}

	if err := db.QueryRow(selectElementCountSQL).Scan(&info.Elements); err != nil {
		return nil, fmt.Errorf("error getting element count: %w", err)
	}
	if err := db.QueryRow(selectToxicityCountSQL).Scan(&info.Entries); err != nil {
		return nil, fmt.Errorf("error getting entry count: %w", err)
	}

	return info, nil
}
