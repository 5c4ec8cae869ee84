package store

import (
	"database/sql"
	"fmt"
	"time"

	"optia/internal/model"
)

// LoadControlled reads the full controlled-dossier namespace.
func (s *Store) LoadControlled() ([]model.ControlledDossier, error) {
	rows, err := s.db.Query(`
		SELECT dossier_key, control_type, controlled_at
		FROM controlled_dossiers
		ORDER BY controlled_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load controlled dossiers: %w", err)
	}
	defer rows.Close()

	var out []model.ControlledDossier
	for rows.Next() {
		var marker model.ControlledDossier
		var controlledAt string
		if err := rows.Scan(&marker.DossierKey, &marker.ControlType, &controlledAt); err != nil {
			return nil, fmt.Errorf("scan controlled dossier: %w", err)
		}
		marker.ControlledAt, err = time.Parse(timeLayout, controlledAt)
		if err != nil {
			return nil, fmt.Errorf("parse controlled_at for %s/%s: %w", marker.DossierKey, marker.ControlType, err)
		}
		out = append(out, marker)
	}
	return out, rows.Err()
}

// ReplaceControlled writes the full controlled-dossier namespace.
func (s *Store) ReplaceControlled(markers []model.ControlledDossier) error {
	return s.replaceNamespace("controlled_dossiers", func(tx *sql.Tx) error {
		return insertControlled(tx, markers)
	})
}

func insertControlled(tx *sql.Tx, markers []model.ControlledDossier) error {
	stmt, err := tx.Prepare(`
		INSERT INTO controlled_dossiers (dossier_key, control_type, controlled_at)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare controlled insert: %w", err)
	}
	defer stmt.Close()

	for _, marker := range markers {
		if _, err := stmt.Exec(marker.DossierKey, marker.ControlType,
			marker.ControlledAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("insert controlled dossier %s/%s: %w", marker.DossierKey, marker.ControlType, err)
		}
	}
	return nil
}
