package parser

// FieldKey is a canonical semantic field of a dossier row.
type FieldKey string

// Canonical field keys. The header row of an export names these columns in
// free text; the mapper resolves which column carries which key.
const (
	KeyClient         FieldKey = "client"
	KeyAdvisor        FieldKey = "advisor"
	KeyAssistant      FieldKey = "assistant"
	KeyDomain         FieldKey = "domain"
	KeySupplier       FieldKey = "supplier"
	KeyContract       FieldKey = "contract"
	KeyReference      FieldKey = "reference"
	KeyActType        FieldKey = "actType"
	KeyAmount         FieldKey = "amount"
	KeyStatus         FieldKey = "status"
	KeyCaseCode       FieldKey = "caseCode"
	KeyPEP            FieldKey = "pep"
	KeyNewClient      FieldKey = "newClient"
	KeyEntryDate      FieldKey = "entryDate"
	KeySendDate       FieldKey = "sendDate"
	KeyValidationDate FieldKey = "validationDate"
	KeySignatureDate  FieldKey = "signatureDate"
)

// ColumnMapping maps canonical field keys to zero-based column indices.
// Built once per ingested file; keys without a resolvable column are absent.
type ColumnMapping map[FieldKey]int

// Column returns the mapped index for key, or -1 when the key is unmapped.
func (m ColumnMapping) Column(key FieldKey) int {
	if idx, ok := m[key]; ok {
		return idx
	}
	return -1
}

// fieldOrder fixes the scan order: more specific fields claim their columns
// before generic ones so that e.g. "Référence dossier" is resolved as the
// reference before the looser "dossier" variant of the case code can take
// it. The order is part of mapping determinism.
var fieldOrder = []FieldKey{
	KeyClient,
	KeyReference,
	KeyCaseCode,
	KeyContract,
	KeyAmount,
	KeyAdvisor,
	KeyAssistant,
	KeyDomain,
	KeySupplier,
	KeyActType,
	KeyStatus,
	KeyPEP,
	KeyNewClient,
	KeyEntryDate,
	KeySendDate,
	KeyValidationDate,
	KeySignatureDate,
}

// fieldVariants ranks the normalized header spellings accepted for each key.
// Variants are matched against NormalizeHeader output, so they carry no
// accents, spaces or punctuation. Order matters: the first match wins.
var fieldVariants = map[FieldKey][]string{
	KeyClient:         {"nomprenom", "nometprenom", "nomduclient", "nomclient", "client"},
	KeyCaseCode:       {"codedossier", "numerodossier", "ndossier", "dossier"},
	KeyReference:      {"reference", "refdossier", "ref"},
	KeyContract:       {"numerocontrat", "ncontrat", "contrat"},
	KeyAmount:         {"montantcapital", "montant", "capital", "prime", "versement"},
	KeyAdvisor:        {"conseiller", "conseillere", "gestionnaire", "commercial"},
	KeyAssistant:      {"assistante", "assistant", "middleoffice", "backoffice"},
	KeyDomain:         {"domaine", "typeproduit", "produit", "famille"},
	KeySupplier:       {"fournisseur", "compagnie", "partenaire"},
	KeyActType:        {"typeacte", "natureacte", "acte", "nature"},
	KeyStatus:         {"statutdossier", "statut", "etat"},
	KeyPEP:            {"personnepolitiquementexposee", "ppe", "pep"},
	KeyNewClient:      {"nouveauclient", "entreeenrelation", "nouveau"},
	KeyEntryDate:      {"dateentreeenrelation", "dateentree", "datedentree"},
	KeySendDate:       {"dateenvoi", "datedenvoi", "envoi"},
	KeyValidationDate: {"datevalidation", "datedevalidation", "validation"},
	KeySignatureDate:  {"datesignature", "datedesignature", "signature"},
}
