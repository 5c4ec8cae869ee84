package model

import "time"

// Dossier audit status values as reported by the lifecycle tracker.
const (
	StatusNotControlled = "non_controle"
	StatusSuspended     = "suspendu"
	StatusControlled    = "controle"
)

// SuspendedControl is a partially completed audit persisted for resumption.
// Keyed by (DossierKey, ControlType); saving again with the same key replaces
// the previous entry.
type SuspendedControl struct {
	DossierKey  string            `json:"dossierKey"`
	ControlType string            `json:"controlType"`
	Client      string            `json:"client"`
	Advisor     string            `json:"advisor"`
	Amount      string            `json:"amount"`
	Answers     map[string]string `json:"answers"`
	// LastDocument is the checklist label the reviewer stopped at.
	LastDocument string    `json:"lastDocument"`
	Reason       string    `json:"reason"`
	SuspendedAt  time.Time `json:"suspendedAt"`
}

// DocumentResult is the outcome for one checklist document of a completed
// control. Status is one of "conforme", "non_conforme", "absent".
type DocumentResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// Document result status values.
const (
	DocConform    = "conforme"
	DocNonConform = "non_conforme"
	DocMissing    = "absent"
)

// CompletedControl is one timestamped history entry. Entries are append-only;
// they are never mutated after creation except through a full restore.
type CompletedControl struct {
	DossierKey  string `json:"dossierKey"`
	ControlType string `json:"controlType"`

	// Snapshot of the record at completion time; the record set itself is
	// replaced on every ingestion, so the history keeps its own copy.
	Client  string `json:"client"`
	Advisor string `json:"advisor"`
	Domain  string `json:"domain"`
	Amount  string `json:"amount"`

	Documents    []DocumentResult `json:"documents"`
	AnomalyCount int              `json:"anomalyCount"`
	Conform      bool             `json:"conform"`
	CompletedAt  time.Time        `json:"completedAt"`
}

// CountAnomalies recomputes the anomaly count from the document results.
func (c *CompletedControl) CountAnomalies() int {
	n := 0
	for _, doc := range c.Documents {
		if doc.Status != DocConform {
			n++
		}
	}
	return n
}

// ControlledDossier marks one dossier as controlled for one control type.
// Independent of the suspended bookkeeping; callers remove stale suspended
// entries themselves when finalizing.
type ControlledDossier struct {
	DossierKey   string    `json:"dossierKey"`
	ControlType  string    `json:"controlType"`
	ControlledAt time.Time `json:"controlledAt"`
}
