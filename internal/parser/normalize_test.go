package parser

import "testing"

func TestNormalizeHeader_Diacritics(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Nom Prénom":         "nomprenom",
		"Conseillère":        "conseillere",
		"  Date d'envoi  ":   "datedenvoi",
		"Montant\nCapital":   "montantcapital",
		"Entrée en relation": "entreeenrelation",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q) want=%q got=%q", in, want, got)
		}
	}
}

func TestExtractAmount_FrenchFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1 234,56 €", 1234.56, true},
		{"1234.56", 1234.56, true},
		{"1.234.567", 1234567, true},
		{"1.234,50", 1234.50, true},
		{"250000", 250000, true},
		{"-300,25", -300.25, true},
		{"n/a", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ExtractAmount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ExtractAmount(%q) want=(%v,%v) got=(%v,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}
