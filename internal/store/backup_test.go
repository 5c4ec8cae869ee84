package store

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"optia/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "optia.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedStore(t *testing.T, st *Store) {
	t.Helper()

	at := time.Date(2026, time.March, 12, 10, 30, 0, 0, time.UTC)
	controles := []model.CompletedControl{
		{
			DossierKey:  "D-001|REF-1|10 000,00 €",
			ControlType: "LCB_FT",
			Client:      "Dupont Marie",
			Advisor:     "Martin",
			Domain:      "Assurance vie",
			Amount:      "10 000,00 €",
			Documents: []model.DocumentResult{
				{Name: "Pièce d'identité", Status: model.DocConform},
				{Name: "Justificatif de domicile", Status: model.DocMissing, Comment: "non fourni"},
			},
			AnomalyCount: 1,
			CompletedAt:  at,
		},
	}
	suspended := []model.SuspendedControl{
		{
			DossierKey:   "D-002|REF-2|SANS_MONTANT",
			ControlType:  "PPE",
			Client:       "Durand Paul",
			Answers:      map[string]string{"Déclaration PPE": "conforme"},
			LastDocument: "Déclaration PPE",
			Reason:       "attente de pièce",
			SuspendedAt:  at.Add(time.Hour),
		},
	}
	controlled := []model.ControlledDossier{
		{DossierKey: "D-001|REF-1|10 000,00 €", ControlType: "LCB_FT", ControlledAt: at.Add(2 * time.Hour)},
	}

	if err := st.ReplaceControles(controles); err != nil {
		t.Fatalf("seed controles: %v", err)
	}
	if err := st.ReplaceSuspended(suspended); err != nil {
		t.Fatalf("seed suspended: %v", err)
	}
	if err := st.ReplaceControlled(controlled); err != nil {
		t.Fatalf("seed controlled: %v", err)
	}
}

func TestBackup_RoundTrip(t *testing.T) {
	t.Parallel()

	source := newTestStore(t)
	seedStore(t, source)

	backup, err := source.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	// The backup travels as a JSON document.
	raw, err := json.Marshal(backup)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Backup
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	target := newTestStore(t)
	if err := target.Import(&restored); err != nil {
		t.Fatalf("import: %v", err)
	}

	after, err := target.Export()
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if !reflect.DeepEqual(after.Controles, backup.Controles) {
		t.Fatalf("controles differ:\nwant %+v\ngot  %+v", backup.Controles, after.Controles)
	}
	if !reflect.DeepEqual(after.SuspendedControls, backup.SuspendedControls) {
		t.Fatalf("suspended differ:\nwant %+v\ngot  %+v", backup.SuspendedControls, after.SuspendedControls)
	}
	if !reflect.DeepEqual(after.ControlledDossiers, backup.ControlledDossiers) {
		t.Fatalf("controlled differ:\nwant %+v\ngot  %+v", backup.ControlledDossiers, after.ControlledDossiers)
	}
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	seedStore(t, st)

	err := st.Import(&Backup{Version: "99"})
	if err == nil {
		t.Fatalf("expected version error")
	}

	// The rejected import must not have touched the current state.
	after, err := st.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(after.Controles) != 1 || len(after.SuspendedControls) != 1 || len(after.ControlledDossiers) != 1 {
		t.Fatalf("state modified by rejected import: %+v", after)
	}
}

func TestReplaceNamespace_OverwritesWholly(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	seedStore(t, st)

	if err := st.ReplaceSuspended(nil); err != nil {
		t.Fatalf("replace with empty set: %v", err)
	}
	suspended, err := st.LoadSuspended()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(suspended) != 0 {
		t.Fatalf("suspended namespace should be empty, got %d", len(suspended))
	}

	// The other namespaces are untouched.
	controles, err := st.LoadControles()
	if err != nil {
		t.Fatalf("load controles: %v", err)
	}
	if len(controles) != 1 {
		t.Fatalf("controles namespace touched: %d", len(controles))
	}
}
