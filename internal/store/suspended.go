package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"optia/internal/model"
)

// LoadSuspended reads the full suspended-control namespace.
func (s *Store) LoadSuspended() ([]model.SuspendedControl, error) {
	rows, err := s.db.Query(`
		SELECT dossier_key, control_type, client, advisor, amount,
		       answers, last_document, reason, suspended_at
		FROM suspended_controls
		ORDER BY suspended_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load suspended controls: %w", err)
	}
	defer rows.Close()

	var out []model.SuspendedControl
	for rows.Next() {
		var entry model.SuspendedControl
		var answers, suspendedAt string
		if err := rows.Scan(&entry.DossierKey, &entry.ControlType, &entry.Client,
			&entry.Advisor, &entry.Amount, &answers, &entry.LastDocument,
			&entry.Reason, &suspendedAt); err != nil {
			return nil, fmt.Errorf("scan suspended control: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &entry.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		entry.SuspendedAt, err = time.Parse(timeLayout, suspendedAt)
		if err != nil {
			return nil, fmt.Errorf("parse suspended_at for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ReplaceSuspended writes the full suspended-control namespace.
func (s *Store) ReplaceSuspended(entries []model.SuspendedControl) error {
	return s.replaceNamespace("suspended_controls", func(tx *sql.Tx) error {
		return insertSuspended(tx, entries)
	})
}

func insertSuspended(tx *sql.Tx, entries []model.SuspendedControl) error {
	stmt, err := tx.Prepare(`
		INSERT INTO suspended_controls
			(dossier_key, control_type, client, advisor, amount,
			 answers, last_document, reason, suspended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare suspended insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		answers := entry.Answers
		if answers == nil {
			answers = map[string]string{}
		}
		encoded, err := json.Marshal(answers)
		if err != nil {
			return fmt.Errorf("encode answers for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		if _, err := stmt.Exec(entry.DossierKey, entry.ControlType, entry.Client,
			entry.Advisor, entry.Amount, string(encoded), entry.LastDocument,
			entry.Reason, entry.SuspendedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("insert suspended control %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
	}
	return nil
}
