package model

import "time"

// EligibilityCriteria restricts which dossiers a control type may sample.
type EligibilityCriteria struct {
	// MinAmount is the inclusive lower bound on the extracted amount.
	MinAmount float64 `json:"minAmount"`
	// ExcludedDomains lists domains whose dossiers are never eligible.
	// Compared case- and diacritic-insensitively.
	ExcludedDomains []string `json:"excludedDomains,omitempty"`
	// PEPOnly restricts eligibility to politically-exposed clients.
	PEPOnly bool `json:"pepOnly"`
	// NewClientsOnly makes the new-client flag a mandatory criterion.
	NewClientsOnly bool `json:"newClientsOnly"`
	// PrioritizeNewClients fills the sample with new clients first but does
	// not exclude the rest. Ignored when NewClientsOnly is set.
	PrioritizeNewClients bool `json:"prioritizeNewClients"`
}

// ControlDefinition is the static description of one control type.
// Definitions are code-defined and immutable; see Definitions().
type ControlDefinition struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Cadence     string              `json:"cadence"`
	SampleSize  int                 `json:"sampleSize"`
	Priority    string              `json:"priority"`
	Criteria    EligibilityCriteria `json:"criteria"`
	// Checklist is the ordered list of documents reviewed during the control.
	Checklist []string `json:"checklist"`
}

// Active-control status values. A run moves forward only; "completed" is set
// when every selected dossier has been controlled.
const (
	RunSampleDrawn = "sample_drawn"
	RunReplaced    = "replaced"
	RunRegenerated = "regenerated"
	RunCompleted   = "completed"
)

// ActiveControl is the live state of one launched control run. At most one
// exists at a time; launching a new control replaces it.
type ActiveControl struct {
	Code       string             `json:"code"`
	Definition *ControlDefinition `json:"definition"`
	Selected   []DossierRecord    `json:"selected"`
	StartedAt  time.Time          `json:"startedAt"`
	EndedAt    *time.Time         `json:"endedAt,omitempty"`
	Status     string             `json:"status"`
}

var definitions = []*ControlDefinition{
	{
		Code:        "LCB_FT",
		Name:        "Contrôle LCB-FT",
		Description: "Lutte contre le blanchiment et le financement du terrorisme sur les entrées en relation récentes.",
		Cadence:     "trimestriel",
		SampleSize:  5,
		Priority:    "haute",
		Criteria:    EligibilityCriteria{NewClientsOnly: true},
		Checklist: []string{
			"Pièce d'identité",
			"Justificatif de domicile",
			"Questionnaire de connaissance client",
			"Déclaration d'origine des fonds",
			"Fiche de vigilance LCB-FT",
		},
	},
	{
		Code:        "PPE",
		Name:        "Personnes politiquement exposées",
		Description: "Vigilance renforcée sur les clients politiquement exposés.",
		Cadence:     "semestriel",
		SampleSize:  3,
		Priority:    "haute",
		Criteria:    EligibilityCriteria{PEPOnly: true},
		Checklist: []string{
			"Pièce d'identité",
			"Déclaration PPE",
			"Déclaration d'origine des fonds",
			"Validation de la direction",
		},
	},
	{
		Code:        "GRANDS_COMPTES",
		Name:        "Dossiers à enjeu",
		Description: "Revue des dossiers dont le montant dépasse le seuil des grands comptes.",
		Cadence:     "trimestriel",
		SampleSize:  5,
		Priority:    "normale",
		Criteria:    EligibilityCriteria{MinAmount: 100000, PrioritizeNewClients: true},
		Checklist: []string{
			"Lettre de mission",
			"Rapport d'adéquation",
			"Profil de risque",
			"Justificatif de l'origine des fonds",
		},
	},
	{
		Code:        "ADEQUATION",
		Name:        "Adéquation du conseil",
		Description: "Cohérence entre le profil du client et la préconisation.",
		Cadence:     "mensuel",
		SampleSize:  8,
		Priority:    "normale",
		Criteria:    EligibilityCriteria{ExcludedDomains: []string{"Immobilier"}},
		Checklist: []string{
			"Questionnaire de risque",
			"Rapport d'adéquation",
			"Document d'entrée en relation",
			"Bulletin de souscription",
		},
	},
	{
		Code:        "NOUVEAUX_ENTRANTS",
		Name:        "Entrée en relation",
		Description: "Complétude des dossiers d'entrée en relation du mois.",
		Cadence:     "mensuel",
		SampleSize:  5,
		Priority:    "normale",
		Criteria:    EligibilityCriteria{NewClientsOnly: true},
		Checklist: []string{
			"Document d'entrée en relation",
			"Pièce d'identité",
			"Questionnaire de connaissance client",
			"Lettre de mission",
		},
	},
}

// Definitions returns the control-type catalogue in display order.
func Definitions() []*ControlDefinition {
	return definitions
}

// DefinitionByCode looks up a control type; nil when the code is unknown.
func DefinitionByCode(code string) *ControlDefinition {
	for _, def := range definitions {
		if def.Code == code {
			return def
		}
	}
	return nil
}
