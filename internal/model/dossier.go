package model

import (
	"fmt"
	"strings"
	"time"
)

// Sentinel components used when a key part is missing from the source row.
// Keys must stay stable across re-ingestions, so these never change.
const (
	MissingCaseCode  = "SANS_CODE"
	MissingReference = "SANS_REF"
	MissingAmount    = "SANS_MONTANT"
)

// DateField carries one parsed date cell. Raw always keeps the original cell
// text; Valid reports whether Time holds a usable value.
type DateField struct {
	Raw   string    `json:"raw"`
	Time  time.Time `json:"time,omitempty"`
	Valid bool      `json:"valid"`
}

// DossierRecord is one normalized row of the ingested spreadsheet.
type DossierRecord struct {
	// OriginalIndex is the position in the filtered record set. It is not
	// stable across re-ingestion; use Key() for durable identity.
	OriginalIndex int `json:"originalIndex"`

	Client    string `json:"client"`
	Advisor   string `json:"advisor"`
	Assistant string `json:"assistant"`
	Domain    string `json:"domain"`
	Supplier  string `json:"supplier"`
	Contract  string `json:"contract"`
	Reference string `json:"reference"`
	ActType   string `json:"actType"`

	// Amount keeps the original formatted cell text for display;
	// AmountValue is the extracted numeric value used for filtering.
	Amount      string  `json:"amount"`
	AmountValue float64 `json:"amountValue"`

	Status    string `json:"status"`
	CaseCode  string `json:"caseCode"`
	PEP       string `json:"pep"`
	NewClient string `json:"newClient"`

	EntryDate      DateField `json:"entryDate"`
	SendDate       DateField `json:"sendDate"`
	ValidationDate DateField `json:"validationDate"`
	SignatureDate  DateField `json:"signatureDate"`

	// Raw is the source row, kept for traceability.
	Raw []string `json:"-"`
}

// affirmative marker for flag columns ("Oui" in the source exports).
const affirmative = "oui"

// IsNewClient reports whether the new-client flag holds the affirmative
// marker, compared case-insensitively.
func (d *DossierRecord) IsNewClient() bool {
	return strings.EqualFold(strings.TrimSpace(d.NewClient), affirmative)
}

// IsPEP reports whether the politically-exposed flag is set.
func (d *DossierRecord) IsPEP() bool {
	return strings.EqualFold(strings.TrimSpace(d.PEP), affirmative)
}

// Key derives the durable identity for lifecycle tracking. Missing parts are
// substituted with fixed sentinels so the key shape is always three segments.
func (d *DossierRecord) Key() string {
	code := strings.TrimSpace(d.CaseCode)
	if code == "" {
		code = MissingCaseCode
	}
	ref := strings.TrimSpace(d.Reference)
	if ref == "" {
		ref = MissingReference
	}
	amount := strings.TrimSpace(d.Amount)
	if amount == "" {
		amount = MissingAmount
	}
	return fmt.Sprintf("%s|%s|%s", code, ref, amount)
}
