package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"optia/internal/model"
)

// LoadControles reads the full completed-control history, oldest first.
func (s *Store) LoadControles() ([]model.CompletedControl, error) {
	rows, err := s.db.Query(`
		SELECT dossier_key, control_type, client, advisor, domain, amount,
		       documents, anomaly_count, conform, completed_at
		FROM controles
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load controles: %w", err)
	}
	defer rows.Close()

	var out []model.CompletedControl
	for rows.Next() {
		var entry model.CompletedControl
		var documents, completedAt string
		var conform int
		if err := rows.Scan(&entry.DossierKey, &entry.ControlType, &entry.Client,
			&entry.Advisor, &entry.Domain, &entry.Amount, &documents,
			&entry.AnomalyCount, &conform, &completedAt); err != nil {
			return nil, fmt.Errorf("scan controle: %w", err)
		}
		if err := json.Unmarshal([]byte(documents), &entry.Documents); err != nil {
			return nil, fmt.Errorf("decode documents for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		entry.Conform = conform != 0
		entry.CompletedAt, err = time.Parse(timeLayout, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ReplaceControles writes the full completed-control history.
func (s *Store) ReplaceControles(entries []model.CompletedControl) error {
	return s.replaceNamespace("controles", func(tx *sql.Tx) error {
		return insertControles(tx, entries)
	})
}

func insertControles(tx *sql.Tx, entries []model.CompletedControl) error {
	stmt, err := tx.Prepare(`
		INSERT INTO controles
			(dossier_key, control_type, client, advisor, domain, amount,
			 documents, anomaly_count, conform, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare controle insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		documents := entry.Documents
		if documents == nil {
			documents = []model.DocumentResult{}
		}
		encoded, err := json.Marshal(documents)
		if err != nil {
			return fmt.Errorf("encode documents for %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
		conform := 0
		if entry.Conform {
			conform = 1
		}
		if _, err := stmt.Exec(entry.DossierKey, entry.ControlType, entry.Client,
			entry.Advisor, entry.Domain, entry.Amount, string(encoded),
			entry.AnomalyCount, conform, entry.CompletedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("insert controle %s/%s: %w", entry.DossierKey, entry.ControlType, err)
		}
	}
	return nil
}
