package parser

import (
	"reflect"
	"testing"
)

func standardHeaders() []string {
	return []string{
		"",                   // 0
		"Nom Prénom",         // 1
		"Conseiller",         // 2
		"Assistante",         // 3
		"Domaine",            // 4
		"Fournisseur",        // 5
		"Contrat",            // 6
		"Référence",          // 7
		"Type d'acte",        // 8
		"Montant",            // 9
		"Statut",             // 10
		"Montant Capital",    // 11
		"Code dossier",       // 12
		"PPE",                // 13
		"Nouveau client",     // 14
		"Date d'envoi",       // 15
		"Date de validation", // 16
		"Date de signature",  // 17
	}
}

func TestInfer_ForcedOverrideWins(t *testing.T) {
	t.Parallel()

	// Column 9 is also named "Montant"; the forced override must pin the
	// amount to column 11 regardless.
	mapping := NewMapper().Infer(standardHeaders())
	if got := mapping.Column(KeyAmount); got != 11 {
		t.Fatalf("amount column want=11 got=%d", got)
	}
}

func TestInfer_Deterministic(t *testing.T) {
	t.Parallel()

	m := NewMapper()
	headers := standardHeaders()
	first := m.Infer(headers)
	for i := 0; i < 5; i++ {
		if again := m.Infer(headers); !reflect.DeepEqual(first, again) {
			t.Fatalf("mapping not deterministic: %v vs %v", first, again)
		}
	}
}

func TestInfer_NoColumnClaimedTwice(t *testing.T) {
	t.Parallel()

	mapping := NewMapper().Infer(standardHeaders())
	seen := make(map[int]FieldKey)
	for key, idx := range mapping {
		if other, dup := seen[idx]; dup {
			t.Fatalf("column %d claimed by both %s and %s", idx, other, key)
		}
		seen[idx] = key
	}
}

func TestInfer_ExactMatches(t *testing.T) {
	t.Parallel()

	mapping := NewMapper().Infer(standardHeaders())
	expect := map[FieldKey]int{
		KeyClient:    1,
		KeyAdvisor:   2,
		KeyAssistant: 3,
		KeyDomain:    4,
		KeySupplier:  5,
		KeyContract:  6,
		KeyReference: 7,
		KeyActType:   8,
		KeyStatus:    10,
		KeyCaseCode:  12,
		KeyPEP:       13,
		KeyNewClient: 14,
	}
	for key, want := range expect {
		if got := mapping.Column(key); got != want {
			t.Fatalf("%s column want=%d got=%d (mapping=%v)", key, want, got, mapping)
		}
	}
}

func TestInfer_PartialMatch(t *testing.T) {
	t.Parallel()

	headers := []string{"Nom Prénom du client final", "Conseiller référent"}
	mapping := NewMapperWithOverrides(nil).Infer(headers)
	if got := mapping.Column(KeyClient); got != 0 {
		t.Fatalf("client column want=0 got=%d", got)
	}
	if got := mapping.Column(KeyAdvisor); got != 1 {
		t.Fatalf("advisor column want=1 got=%d", got)
	}
}

func TestInfer_PositionalFallback(t *testing.T) {
	t.Parallel()

	// No header matches any variant; the client falls back to the first
	// non-empty column, advisor and assistant to the next unclaimed ones.
	headers := []string{"", "Colonne A", "Colonne B", "Colonne C"}
	mapping := NewMapperWithOverrides(nil).Infer(headers)
	if got := mapping.Column(KeyClient); got != 1 {
		t.Fatalf("client fallback want=1 got=%d", got)
	}
	if got := mapping.Column(KeyAdvisor); got != 2 {
		t.Fatalf("advisor fallback want=2 got=%d", got)
	}
	if got := mapping.Column(KeyAssistant); got != 3 {
		t.Fatalf("assistant fallback want=3 got=%d", got)
	}
}

func TestInfer_UnmatchedKeysAbsent(t *testing.T) {
	t.Parallel()

	headers := []string{"Nom Prénom", "Conseiller"}
	mapping := NewMapperWithOverrides(nil).Infer(headers)
	if got := mapping.Column(KeySupplier); got != -1 {
		t.Fatalf("supplier should be unmapped, got column %d", got)
	}
	if _, ok := mapping[KeySignatureDate]; ok {
		t.Fatalf("signature date should be absent from mapping")
	}
}

func TestInfer_ForcedOverrideSkipsEmptyHeader(t *testing.T) {
	t.Parallel()

	headers := []string{"Nom Prénom", "Montant"}
	// Pinned column 11 does not exist in this narrow export; the name
	// match must take over.
	mapping := NewMapper().Infer(headers)
	if got := mapping.Column(KeyAmount); got != 1 {
		t.Fatalf("amount column want=1 got=%d", got)
	}
}
