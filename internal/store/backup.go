package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"optia/internal/model"
)

// BackupVersion is the current backup document version tag.
const BackupVersion = "1"

// ErrBadBackup marks a backup document that cannot be imported.
var ErrBadBackup = errors.New("invalid backup document")

// Backup is the full persisted state as one structured document.
type Backup struct {
	Version            string                    `json:"version"`
	ExportedAt         time.Time                 `json:"exportedAt"`
	Controles          []model.CompletedControl  `json:"controles"`
	SuspendedControls  []model.SuspendedControl  `json:"suspendedControls"`
	ControlledDossiers []model.ControlledDossier `json:"controlledDossiers"`
}

// Export serializes the three namespaces in full.
func (s *Store) Export() (*Backup, error) {
	controles, err := s.LoadControles()
	if err != nil {
		return nil, err
	}
	suspended, err := s.LoadSuspended()
	if err != nil {
		return nil, err
	}
	controlled, err := s.LoadControlled()
	if err != nil {
		return nil, err
	}
	return &Backup{
		Version:            BackupVersion,
		ExportedAt:         time.Now(),
		Controles:          controles,
		SuspendedControls:  suspended,
		ControlledDossiers: controlled,
	}, nil
}

// Import replaces all three namespaces with the backup content, inside one
// transaction. All-or-nothing: any failure leaves the current state intact.
func (s *Store) Import(b *Backup) error {
	if b == nil {
		return fmt.Errorf("%w: empty document", ErrBadBackup)
	}
	if b.Version != BackupVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrBadBackup, b.Version)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	for _, table := range []string{"controles", "suspended_controls", "controlled_dossiers"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := importAll(tx, b); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func importAll(tx *sql.Tx, b *Backup) error {
	if err := insertControles(tx, b.Controles); err != nil {
		return err
	}
	if err := insertSuspended(tx, b.SuspendedControls); err != nil {
		return err
	}
	return insertControlled(tx, b.ControlledDossiers)
}
