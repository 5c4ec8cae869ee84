// Package lifecycle tracks each dossier's audit state per control type:
// not controlled, suspended mid-control, or controlled. State is keyed by
// the derived dossier key, read fully into memory at startup, and written
// back whole on every mutation.
package lifecycle

import (
	"sync"
	"time"

	"optia/internal/model"
	"optia/internal/store"
)

// Tracker owns the in-memory copy of the three persisted namespaces.
type Tracker struct {
	mu         sync.Mutex
	store      *store.Store
	suspended  []model.SuspendedControl
	controlled []model.ControlledDossier
	history    []model.CompletedControl
	now        func() time.Time
}

// NewTracker loads the full persisted state.
func NewTracker(st *store.Store) (*Tracker, error) {
	t := &Tracker{store: st, now: time.Now}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads all namespaces from the store, e.g. after a restore.
func (t *Tracker) Reload() error {
	suspended, err := t.store.LoadSuspended()
	if err != nil {
		return err
	}
	controlled, err := t.store.LoadControlled()
	if err != nil {
		return err
	}
	history, err := t.store.LoadControles()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspended = suspended
	t.controlled = controlled
	t.history = history
	return nil
}

// SaveSuspended upserts a suspended entry by (dossier key, control type):
// an existing entry is replaced in place, never duplicated. The full
// updated set is persisted; on a storage failure the in-memory state keeps
// the previous content so the caller can retry.
func (t *Tracker) SaveSuspended(entry model.SuspendedControl) error {
	if entry.SuspendedAt.IsZero() {
		entry.SuspendedAt = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make([]model.SuspendedControl, len(t.suspended))
	copy(updated, t.suspended)

	replaced := false
	for i := range updated {
		if updated[i].DossierKey == entry.DossierKey && updated[i].ControlType == entry.ControlType {
			updated[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, entry)
	}

	if err := t.store.ReplaceSuspended(updated); err != nil {
		return err
	}
	t.suspended = updated
	return nil
}

// RemoveSuspended deletes the suspended entry for the key, if any.
func (t *Tracker) RemoveSuspended(dossierKey, controlType string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make([]model.SuspendedControl, 0, len(t.suspended))
	for _, entry := range t.suspended {
		if entry.DossierKey == dossierKey && entry.ControlType == controlType {
			continue
		}
		updated = append(updated, entry)
	}
	if len(updated) == len(t.suspended) {
		return nil
	}

	if err := t.store.ReplaceSuspended(updated); err != nil {
		return err
	}
	t.suspended = updated
	return nil
}

// Suspended returns the suspended entry for the key, if present.
func (t *Tracker) Suspended(dossierKey, controlType string) (model.SuspendedControl, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range t.suspended {
		if entry.DossierKey == dossierKey && entry.ControlType == controlType {
			return entry, true
		}
	}
	return model.SuspendedControl{}, false
}

// SuspendedControls returns a copy of the full suspended set.
func (t *Tracker) SuspendedControls() []model.SuspendedControl {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.SuspendedControl, len(t.suspended))
	copy(out, t.suspended)
	return out
}

// MarkControlled inserts or refreshes the completion marker for the key.
// Deliberately independent of the suspended bookkeeping: a stale suspended
// entry is the caller's to remove when finalizing.
func (t *Tracker) MarkControlled(dossierKey, controlType string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make([]model.ControlledDossier, len(t.controlled))
	copy(updated, t.controlled)

	marker := model.ControlledDossier{
		DossierKey:   dossierKey,
		ControlType:  controlType,
		ControlledAt: t.now(),
	}
	replaced := false
	for i := range updated {
		if updated[i].DossierKey == dossierKey && updated[i].ControlType == controlType {
			updated[i] = marker
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, marker)
	}

	if err := t.store.ReplaceControlled(updated); err != nil {
		return err
	}
	t.controlled = updated
	return nil
}

// Complete appends a history entry and marks the dossier controlled. The
// anomaly count is recomputed from the document results before persisting.
func (t *Tracker) Complete(entry model.CompletedControl) error {
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = t.now()
	}
	entry.AnomalyCount = entry.CountAnomalies()
	entry.Conform = entry.AnomalyCount == 0

	t.mu.Lock()
	updated := make([]model.CompletedControl, len(t.history), len(t.history)+1)
	copy(updated, t.history)
	updated = append(updated, entry)

	if err := t.store.ReplaceControles(updated); err != nil {
		t.mu.Unlock()
		return err
	}
	t.history = updated
	t.mu.Unlock()

	return t.MarkControlled(entry.DossierKey, entry.ControlType)
}

// Status reports the audit state for the key. A suspended entry takes
// priority over a controlled marker when both exist; the check order is
// deliberate, not incidental.
func (t *Tracker) Status(dossierKey, controlType string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.suspended {
		if entry.DossierKey == dossierKey && entry.ControlType == controlType {
			return model.StatusSuspended
		}
	}
	for _, marker := range t.controlled {
		if marker.DossierKey == dossierKey && marker.ControlType == controlType {
			return model.StatusControlled
		}
	}
	return model.StatusNotControlled
}

// CleanOldSuspended irreversibly deletes suspended entries older than the
// day threshold, measured from wall-clock time at call time. Returns the
// number of removed entries.
func (t *Tracker) CleanOldSuspended(daysThreshold int) (int, error) {
	cutoff := t.now().AddDate(0, 0, -daysThreshold)

	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make([]model.SuspendedControl, 0, len(t.suspended))
	for _, entry := range t.suspended {
		if entry.SuspendedAt.Before(cutoff) {
			continue
		}
		updated = append(updated, entry)
	}
	removed := len(t.suspended) - len(updated)
	if removed == 0 {
		return 0, nil
	}

	if err := t.store.ReplaceSuspended(updated); err != nil {
		return 0, err
	}
	t.suspended = updated
	return removed, nil
}

// History returns a copy of the completed-control history, oldest first.
func (t *Tracker) History() []model.CompletedControl {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.CompletedControl, len(t.history))
	copy(out, t.history)
	return out
}

// ControlledDossiers returns a copy of the completion markers.
func (t *Tracker) ControlledDossiers() []model.ControlledDossier {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.ControlledDossier, len(t.controlled))
	copy(out, t.controlled)
	return out
}
