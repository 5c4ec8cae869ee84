package parser

import "strings"

// matchStrategy locates the column for one field among the headers not yet
// claimed by a more specific mapping. Strategies are evaluated in a fixed
// order so the ranking stays independently testable.
type matchStrategy interface {
	// match returns the claimed column index, or false when the strategy
	// finds nothing for the key.
	match(key FieldKey, normalized []string, claimed map[int]FieldKey) (int, bool)
}

// exactStrategy claims the first unclaimed column whose normalized header
// equals one of the key's ranked variants.
type exactStrategy struct{}

func (exactStrategy) match(key FieldKey, normalized []string, claimed map[int]FieldKey) (int, bool) {
	for _, variant := range fieldVariants[key] {
		for idx, header := range normalized {
			if header == "" {
				continue
			}
			if _, taken := claimed[idx]; taken {
				continue
			}
			if header == variant {
				return idx, true
			}
		}
	}
	return 0, false
}

// partialStrategy claims the first unclaimed column whose normalized header
// contains one of the key's variants.
type partialStrategy struct{}

func (partialStrategy) match(key FieldKey, normalized []string, claimed map[int]FieldKey) (int, bool) {
	for _, variant := range fieldVariants[key] {
		for idx, header := range normalized {
			if header == "" {
				continue
			}
			if _, taken := claimed[idx]; taken {
				continue
			}
			if strings.Contains(header, variant) {
				return idx, true
			}
		}
	}
	return 0, false
}

// fallbackWindow bounds the positional scan for the critical fields.
const fallbackWindow = 3

// Mapper infers a ColumnMapping from a free-text header row. The zero value
// is not usable; NewMapper installs the default forced overrides.
type Mapper struct {
	// forced pins fields to fixed column positions known to be unreliable
	// to detect by name. Applied only when the header there is non-empty.
	forced map[FieldKey]int

	exact   matchStrategy
	partial matchStrategy
}

// NewMapper builds a mapper with the default overrides: the capital amount
// lives in column 11 of the standard export, under a header too generic to
// match by name alone.
func NewMapper() *Mapper {
	return NewMapperWithOverrides(map[FieldKey]int{KeyAmount: 11})
}

// NewMapperWithOverrides builds a mapper with explicit forced overrides.
func NewMapperWithOverrides(forced map[FieldKey]int) *Mapper {
	return &Mapper{
		forced:  forced,
		exact:   exactStrategy{},
		partial: partialStrategy{},
	}
}

// Infer resolves which column carries which canonical field. Evaluation
// order: forced overrides, exact variant matches, substring matches, then a
// positional fallback for the critical fields. Each key claims at most one
// column and each column is claimed at most once; unmatched non-critical
// keys are simply absent. The result is deterministic for a given header
// row.
func (m *Mapper) Infer(headers []string) ColumnMapping {
	mapping := make(ColumnMapping)
	claimed := make(map[int]FieldKey)

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	claim := func(key FieldKey, idx int) {
		mapping[key] = idx
		claimed[idx] = key
	}

	// 1. Forced overrides, only when the pinned column exists and its
	// header is non-empty.
	for _, key := range fieldOrder {
		idx, ok := m.forced[key]
		if !ok || idx < 0 || idx >= len(headers) {
			continue
		}
		if strings.TrimSpace(headers[idx]) == "" {
			continue
		}
		claim(key, idx)
	}

	// 2. Exact matches for every remaining key, in priority order, so a
	// specific header is never swallowed by a looser substring first.
	for _, key := range fieldOrder {
		if _, done := mapping[key]; done {
			continue
		}
		if idx, ok := m.exact.match(key, normalized, claimed); ok {
			claim(key, idx)
		}
	}

	// 3. Substring matches for whatever is still unmapped.
	for _, key := range fieldOrder {
		if _, done := mapping[key]; done {
			continue
		}
		if idx, ok := m.partial.match(key, normalized, claimed); ok {
			claim(key, idx)
		}
	}

	// 4. Positional fallback for the critical fields: the client column
	// first, then advisor and assistant right of the resolved client.
	if _, ok := mapping[KeyClient]; !ok {
		if idx, ok := firstUnclaimed(headers, claimed, 0, fallbackWindow+1); ok {
			claim(KeyClient, idx)
		}
	}
	if clientIdx, ok := mapping[KeyClient]; ok {
		if _, done := mapping[KeyAdvisor]; !done {
			if idx, ok := firstUnclaimed(headers, claimed, clientIdx+1, fallbackWindow); ok {
				claim(KeyAdvisor, idx)
			}
		}
		if advisorIdx, done := mapping[KeyAdvisor]; done {
			if _, has := mapping[KeyAssistant]; !has {
				if idx, ok := firstUnclaimed(headers, claimed, advisorIdx+1, fallbackWindow); ok {
					claim(KeyAssistant, idx)
				}
			}
		}
	}

	return mapping
}

// firstUnclaimed scans count columns starting at from and returns the first
// unclaimed position with a non-empty header.
func firstUnclaimed(headers []string, claimed map[int]FieldKey, from, count int) (int, bool) {
	for idx := from; idx < from+count && idx < len(headers); idx++ {
		if _, taken := claimed[idx]; taken {
			continue
		}
		if strings.TrimSpace(headers[idx]) == "" {
			continue
		}
		return idx, true
	}
	return 0, false
}
