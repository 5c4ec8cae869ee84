// Package sampling draws and maintains the random dossier sample of a
// control run. A run owns two disjoint sets: the selected sample and the
// available pool of eligible-but-unselected dossiers; every operation leaves
// their union equal to the eligible set.
package sampling

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"optia/internal/model"
	"optia/internal/parser"
)

// Eligibility and reference errors. All of them leave the engine state
// untouched; callers surface them as notifications.
var (
	ErrInsufficientPool = errors.New("not enough eligible dossiers")
	ErrNoActiveControl  = errors.New("no active control")
	ErrSlotOutOfRange   = errors.New("sample slot out of range")
	ErrEmptyPool        = errors.New("available pool is empty")
	ErrUnknownControl   = errors.New("unknown control type")
)

// Engine holds the full record set, the single active control run and its
// available pool. Handlers share one instance, so mutations are guarded.
type Engine struct {
	mu        sync.Mutex
	records   []model.DossierRecord
	active    *model.ActiveControl
	available []model.DossierRecord
	rnd       *rand.Rand
	now       func() time.Time
}

// NewEngine creates an engine with an empty record set.
func NewEngine() *Engine {
	return &Engine{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// SetRecords replaces the full record set after an ingestion pass. Any
// active control and its pool are cleared: the sample referenced rows that
// no longer exist.
func (e *Engine) SetRecords(records []model.DossierRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = records
	e.active = nil
	e.available = nil
}

// Records returns the current record set.
func (e *Engine) Records() []model.DossierRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records
}

// Active returns the current control run, or nil when none is launched.
func (e *Engine) Active() *model.ActiveControl {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Available returns a copy of the current available pool.
func (e *Engine) Available() []model.DossierRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.DossierRecord, len(e.available))
	copy(out, e.available)
	return out
}

// ComputeEligible filters the record set by the control type's criteria:
// minimum amount on the extracted value, excluded domains, the PEP flag, and
// the new-client flag where the control type mandates it. The new-client
// criterion is mandatory, never advisory.
func (e *Engine) ComputeEligible(def *model.ControlDefinition) []model.DossierRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeEligible(def)
}

func (e *Engine) computeEligible(def *model.ControlDefinition) []model.DossierRecord {
	crit := def.Criteria
	excluded := make(map[string]bool, len(crit.ExcludedDomains))
	for _, d := range crit.ExcludedDomains {
		excluded[parser.NormalizeHeader(d)] = true
	}

	eligible := make([]model.DossierRecord, 0, len(e.records))
	for _, rec := range e.records {
		if rec.AmountValue < crit.MinAmount {
			continue
		}
		if len(excluded) > 0 && excluded[parser.NormalizeHeader(rec.Domain)] {
			continue
		}
		if crit.PEPOnly && !rec.IsPEP() {
			continue
		}
		if crit.NewClientsOnly && !rec.IsNewClient() {
			continue
		}
		eligible = append(eligible, rec)
	}
	return eligible
}

// SelectControlType launches a control run: it draws the initial sample and
// sets the available pool to the remaining eligible dossiers. When the
// eligible set is smaller than the required sample size, the call reports
// the shortfall and changes nothing.
func (e *Engine) SelectControlType(code string) (*model.ActiveControl, error) {
	def := model.DefinitionByCode(code)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownControl, code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	eligible := e.computeEligible(def)
	if len(eligible) < def.SampleSize {
		return nil, fmt.Errorf("%w: %d eligible, %d required", ErrInsufficientPool, len(eligible), def.SampleSize)
	}

	selected := e.drawSample(def, eligible)
	e.active = &model.ActiveControl{
		Code:       code,
		Definition: def,
		Selected:   selected,
		StartedAt:  e.now(),
		Status:     model.RunSampleDrawn,
	}
	e.available = subtract(eligible, selected)
	return e.active, nil
}

// ReplaceDossier swaps one pool dossier, picked uniformly at random, into
// the given sample slot and returns the displaced dossier to the pool. One
// in, one out: the pool invariant holds by construction.
func (e *Engine) ReplaceDossier(slot int) (model.DossierRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return model.DossierRecord{}, ErrNoActiveControl
	}
	if slot < 0 || slot >= len(e.active.Selected) {
		return model.DossierRecord{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if len(e.available) == 0 {
		return model.DossierRecord{}, ErrEmptyPool
	}

	pick := e.rnd.Intn(len(e.available))
	incoming := e.available[pick]
	displaced := e.active.Selected[slot]

	e.active.Selected[slot] = incoming
	e.available[pick] = displaced
	e.active.Status = model.RunReplaced
	return incoming, nil
}

// RegenerateSample redraws the full sample. Eligibility is recomputed fresh
// at call time, not reused from the initial draw; the confirmation gate for
// this irreversible bulk replace lives with the caller.
func (e *Engine) RegenerateSample() (*model.ActiveControl, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil, ErrNoActiveControl
	}
	def := e.active.Definition

	eligible := e.computeEligible(def)
	if len(eligible) < def.SampleSize {
		return nil, fmt.Errorf("%w: %d eligible, %d required", ErrInsufficientPool, len(eligible), def.SampleSize)
	}

	e.active.Selected = e.drawSample(def, eligible)
	e.available = subtract(eligible, e.active.Selected)
	e.active.Status = model.RunRegenerated
	return e.active, nil
}

// CompleteActive closes the current run once every selected dossier has been
// controlled.
func (e *Engine) CompleteActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return
	}
	ended := e.now()
	e.active.EndedAt = &ended
	e.active.Status = model.RunCompleted
}

// drawSample applies the stratification rule. A mandatory new-client control
// needs no stratification: the eligible set already holds only new clients.
// A prioritizing control takes as many new clients as available first and
// fills the remainder from the rest; each sub-draw is uniform without
// replacement. Everything else is a plain uniform draw.
func (e *Engine) drawSample(def *model.ControlDefinition, eligible []model.DossierRecord) []model.DossierRecord {
	size := def.SampleSize

	if def.Criteria.PrioritizeNewClients && !def.Criteria.NewClientsOnly {
		var fresh, rest []model.DossierRecord
		for _, rec := range eligible {
			if rec.IsNewClient() {
				fresh = append(fresh, rec)
			} else {
				rest = append(rest, rec)
			}
		}
		selected := e.drawUniform(fresh, min(size, len(fresh)))
		selected = append(selected, e.drawUniform(rest, size-len(selected))...)
		return selected
	}

	return e.drawUniform(eligible, size)
}

// drawUniform draws n records without replacement via a shuffled copy, so no
// index can be picked twice within one draw.
func (e *Engine) drawUniform(pool []model.DossierRecord, n int) []model.DossierRecord {
	if n <= 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	shuffled := make([]model.DossierRecord, len(pool))
	copy(shuffled, pool)
	e.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// subtract returns eligible minus selected. Keyed by OriginalIndex, which is
// unique within one ingestion pass; the derived dossier key is not, as two
// rows can share code, reference and amount.
func subtract(eligible, selected []model.DossierRecord) []model.DossierRecord {
	taken := make(map[int]bool, len(selected))
	for i := range selected {
		taken[selected[i].OriginalIndex] = true
	}
	rest := make([]model.DossierRecord, 0, len(eligible)-len(selected))
	for _, rec := range eligible {
		if taken[rec.OriginalIndex] {
			continue
		}
		rest = append(rest, rec)
	}
	return rest
}
