package sampling

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"optia/internal/model"
)

func newTestEngine(records []model.DossierRecord) *Engine {
	e := NewEngine()
	e.rnd = rand.New(rand.NewSource(1))
	e.SetRecords(records)
	return e
}

// makeRecords builds n records; the first newClients of them carry the
// affirmative new-client flag.
func makeRecords(n, newClients int, amount float64) []model.DossierRecord {
	records := make([]model.DossierRecord, n)
	for i := range records {
		flag := "Non"
		if i < newClients {
			flag = "Oui"
		}
		records[i] = model.DossierRecord{
			OriginalIndex: i,
			Client:        fmt.Sprintf("Client %d", i),
			CaseCode:      fmt.Sprintf("D-%03d", i),
			Reference:     fmt.Sprintf("REF-%d", i),
			Amount:        fmt.Sprintf("%.0f", amount),
			AmountValue:   amount,
			NewClient:     flag,
		}
	}
	return records
}

func indexSet(records []model.DossierRecord) map[int]bool {
	out := make(map[int]bool, len(records))
	for _, rec := range records {
		out[rec.OriginalIndex] = true
	}
	return out
}

// checkPoolInvariant verifies selected ∪ available == eligible and the two
// sets are disjoint.
func checkPoolInvariant(t *testing.T, e *Engine) {
	t.Helper()

	active := e.Active()
	if active == nil {
		t.Fatalf("expected an active control")
	}
	if len(active.Selected) != active.Definition.SampleSize {
		t.Fatalf("selected size want=%d got=%d", active.Definition.SampleSize, len(active.Selected))
	}

	selected := indexSet(active.Selected)
	available := indexSet(e.Available())
	for idx := range selected {
		if available[idx] {
			t.Fatalf("record %d is in both selected and available", idx)
		}
	}

	eligible := indexSet(e.ComputeEligible(active.Definition))
	if len(selected)+len(available) != len(eligible) {
		t.Fatalf("selected(%d)+available(%d) != eligible(%d)", len(selected), len(available), len(eligible))
	}
	for idx := range eligible {
		if !selected[idx] && !available[idx] {
			t.Fatalf("eligible record %d lost from both sets", idx)
		}
	}
}

func TestSelectControlType_InsufficientPool(t *testing.T) {
	t.Parallel()

	// LCB_FT requires 5 new clients; only 4 qualify.
	e := newTestEngine(makeRecords(10, 4, 1000))
	_, err := e.SelectControlType("LCB_FT")
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("want ErrInsufficientPool got %v", err)
	}
	if e.Active() != nil {
		t.Fatalf("active control must stay unset after a failed select")
	}
}

func TestSelectControlType_MandatoryNewClientCriterion(t *testing.T) {
	t.Parallel()

	e := newTestEngine(makeRecords(20, 8, 1000))
	active, err := e.SelectControlType("LCB_FT")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, rec := range active.Selected {
		if !rec.IsNewClient() {
			t.Fatalf("selected record %d is not a new client", rec.OriginalIndex)
		}
	}
	for _, rec := range e.Available() {
		if !rec.IsNewClient() {
			t.Fatalf("available record %d is not a new client", rec.OriginalIndex)
		}
	}
	checkPoolInvariant(t, e)
}

func TestSelectControlType_PrioritizesNewClients(t *testing.T) {
	t.Parallel()

	// GRANDS_COMPTES prioritizes new clients: with 2 of them among the
	// eligible, both must be drawn into the sample of 5.
	e := newTestEngine(makeRecords(12, 2, 150000))
	active, err := e.SelectControlType("GRANDS_COMPTES")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	fresh := 0
	for _, rec := range active.Selected {
		if rec.IsNewClient() {
			fresh++
		}
	}
	if fresh != 2 {
		t.Fatalf("new clients in sample want=2 got=%d", fresh)
	}
	checkPoolInvariant(t, e)
}

func TestComputeEligible_AmountThreshold(t *testing.T) {
	t.Parallel()

	records := append(makeRecords(6, 0, 150000), makeRecords(4, 0, 50)...)
	for i := range records {
		records[i].OriginalIndex = i
	}
	e := newTestEngine(records)

	eligible := e.ComputeEligible(model.DefinitionByCode("GRANDS_COMPTES"))
	if len(eligible) != 6 {
		t.Fatalf("eligible count want=6 got=%d", len(eligible))
	}
}

func TestComputeEligible_ExcludedDomains(t *testing.T) {
	t.Parallel()

	records := makeRecords(10, 0, 1000)
	records[0].Domain = "Immobilier"
	records[1].Domain = "immobilier " // spacing and case must not matter
	e := newTestEngine(records)

	eligible := e.ComputeEligible(model.DefinitionByCode("ADEQUATION"))
	if len(eligible) != 8 {
		t.Fatalf("eligible count want=8 got=%d", len(eligible))
	}
}

func TestReplaceDossier_SwapsOneForOne(t *testing.T) {
	t.Parallel()

	// 8 eligible new clients, sample of 5: available pool has 3.
	e := newTestEngine(makeRecords(8, 8, 1000))
	active, err := e.SelectControlType("LCB_FT")
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	before := indexSet(e.Available())
	if len(before) != 3 {
		t.Fatalf("available want=3 got=%d", len(before))
	}
	displaced := active.Selected[0]

	incoming, err := e.ReplaceDossier(0)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !before[incoming.OriginalIndex] {
		t.Fatalf("incoming record %d was not in the pool", incoming.OriginalIndex)
	}

	after := e.Available()
	if len(after) != 3 {
		t.Fatalf("available after replace want=3 got=%d", len(after))
	}
	if !indexSet(after)[displaced.OriginalIndex] {
		t.Fatalf("displaced record %d not returned to the pool", displaced.OriginalIndex)
	}
	if got := e.Active().Selected[0].OriginalIndex; got != incoming.OriginalIndex {
		t.Fatalf("slot 0 want=%d got=%d", incoming.OriginalIndex, got)
	}
	checkPoolInvariant(t, e)
}

func TestReplaceDossier_Errors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(makeRecords(5, 5, 1000))
	if _, err := e.ReplaceDossier(0); !errors.Is(err, ErrNoActiveControl) {
		t.Fatalf("want ErrNoActiveControl got %v", err)
	}

	if _, err := e.SelectControlType("LCB_FT"); err != nil {
		t.Fatalf("select: %v", err)
	}
	// All 5 eligible are selected: the pool is empty.
	if _, err := e.ReplaceDossier(0); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("want ErrEmptyPool got %v", err)
	}
	if _, err := e.ReplaceDossier(99); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("want ErrSlotOutOfRange got %v", err)
	}
}

func TestRegenerateSample_RedrawsFresh(t *testing.T) {
	t.Parallel()

	e := newTestEngine(makeRecords(20, 20, 1000))
	if _, err := e.SelectControlType("LCB_FT"); err != nil {
		t.Fatalf("select: %v", err)
	}
	checkPoolInvariant(t, e)

	active, err := e.RegenerateSample()
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if active.Status != model.RunRegenerated {
		t.Fatalf("status want=%s got=%s", model.RunRegenerated, active.Status)
	}
	checkPoolInvariant(t, e)
}

func TestRegenerateSample_ReevaluatesEligibility(t *testing.T) {
	t.Parallel()

	e := newTestEngine(makeRecords(6, 6, 1000))
	if _, err := e.SelectControlType("LCB_FT"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// The record set shrank below the sample size since the initial draw;
	// regeneration must re-check and refuse without clearing the run.
	e.mu.Lock()
	e.records = makeRecords(4, 4, 1000)
	e.mu.Unlock()

	if _, err := e.RegenerateSample(); !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("want ErrInsufficientPool got %v", err)
	}
	if e.Active() == nil {
		t.Fatalf("active control must survive a failed regeneration")
	}
}

func TestOperationSequence_KeepsInvariant(t *testing.T) {
	t.Parallel()

	e := newTestEngine(makeRecords(30, 30, 1000))
	if _, err := e.SelectControlType("LCB_FT"); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := e.ReplaceDossier(i % 5); err != nil {
			t.Fatalf("replace %d: %v", i, err)
		}
		checkPoolInvariant(t, e)
	}
	if _, err := e.RegenerateSample(); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	checkPoolInvariant(t, e)
}
