// Package matcher implements the Pattern Matcher & Scorer (spec.md §4.5):
// matching the six VDS positions against every active schema's Patterns,
// then picking one winning Pattern per Element when more than one schema's
// patterns disagree. It is the component responsible for "F-150 vs F-550"
// style conflicts, where a less specific but more internally coherent
// schema should still lose to a schema whose patterns collectively explain
// more of the VIN.
package matcher

import (
	"context"
	"sort"

	"autolytiq/vindecoder/internal/catalogcore"
	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/decodeerr"
)

// maxElementWeight scales Element.Weight into the [0,1] band the confidence
// formula expects. Catalog authors are expected to keep weights within
// [1, maxElementWeight]; a heavier weight simply saturates at 1.0.
const maxElementWeight = 10

// Candidate is one matching Pattern considered for an Element, kept for
// provenance/debugging even when it loses the tiebreak.
type Candidate struct {
	Pattern         catalogcore.Pattern
	SchemaID        int64
	Specificity     int
	SchemaCoherence int     // count of this schema's patterns that matched
	CoherenceRatio  float64 // SchemaCoherence / total patterns in this schema
}

// Resolved is the winning assignment for one Element: a Pattern plus the
// display value its AttributeRef resolves to.
type Resolved struct {
	Element      catalogcore.Element
	Winner       catalogcore.Pattern
	DisplayValue string
	Specificity  int
	Confidence   float64
	Candidates   []Candidate
}

// Match evaluates every active schema's Patterns against vin's VDS window
// (positions 4-9, vin[3:9]) and returns one Resolved entry per Element that
// produced at least one match, keyed by Element.Name.
// makeID is the WMI Resolver's winning Make (spec.md §4.2's makeName?
// output), used only to scope Model lookups (spec.md §4.5); Make itself is
// never pattern-matched, it comes from the Wmi row.
func Match(ctx context.Context, store catalogstore.Store, schemas []catalogstore.WmiSchemaLink, vin string, preferOfficial bool, makeID *int64) (map[string]Resolved, []*decodeerr.Error) {
	if len(vin) < 9 {
		return nil, []*decodeerr.Error{decodeerr.New(decodeerr.CodePatternNoMatch, "VIN too short to contain a VDS window")}
	}
	window := vin[3:9]

	type schemaStats struct {
		total   int
		matched int
	}
	stats := make(map[int64]*schemaStats)
	byElement := make(map[int64][]Candidate)
	elements := make(map[int64]catalogcore.Element)

	var warnings []*decodeerr.Error

	for _, link := range schemas {
		schemaID := link.Schema.ID
		patterns, err := store.PatternsForSchema(ctx, schemaID)
		if err != nil {
			warnings = append(warnings, decodeerr.New(decodeerr.CodeCatalogUnavailable, "pattern lookup failed: "+err.Error()))
			continue
		}
		st := &schemaStats{total: len(patterns)}
		stats[schemaID] = st

		for _, p := range patterns {
			ok, specificity := matchKeys(p.Keys, window)
			if !ok {
				continue
			}
			st.matched++

			el, found, err := store.Element(ctx, p.ElementID)
			if err != nil {
				warnings = append(warnings, decodeerr.New(decodeerr.CodeCatalogUnavailable, "element lookup failed: "+err.Error()))
				continue
			}
			if !found {
				continue
			}
			elements[el.ID] = el

			byElement[el.ID] = append(byElement[el.ID], Candidate{
				Pattern:     p,
				SchemaID:    schemaID,
				Specificity: specificity,
			})
		}
	}

	if len(byElement) == 0 {
		return nil, []*decodeerr.Error{decodeerr.New(decodeerr.CodePatternNoMatch, "no pattern in any active schema matched the VDS")}
	}

	// Backfill coherence now that every schema's match count is final.
	for _, cands := range byElement {
		for i := range cands {
			st := stats[cands[i].SchemaID]
			cands[i].SchemaCoherence = st.matched
			if st.total > 0 {
				cands[i].CoherenceRatio = float64(st.matched) / float64(st.total)
			}
		}
	}

	out := make(map[string]Resolved, len(byElement))
	for elID, cands := range byElement {
		el := elements[elID]
		// Element.Weight is constant within a single element's candidate
		// group (they're all the same Element) and only orders across
		// elements via normalize() in the confidence formula below; the
		// tiebreak here starts at schema coherence.
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].SchemaCoherence != cands[j].SchemaCoherence {
				return cands[i].SchemaCoherence > cands[j].SchemaCoherence
			}
			if cands[i].Specificity != cands[j].Specificity {
				return cands[i].Specificity > cands[j].Specificity
			}
			if preferOfficial && cands[i].Pattern.Source != cands[j].Pattern.Source {
				return cands[i].Pattern.Source == catalogcore.SourceOfficial
			}
			return cands[i].Pattern.ID < cands[j].Pattern.ID
		})

		winner := cands[0]
		displayValue, lookupWarn := resolveDisplayValue(ctx, store, el, winner.Pattern.Attribute, makeID)
		if lookupWarn != nil {
			warnings = append(warnings, lookupWarn)
		}

		confidence := normalize(el.Weight) * (0.5 + 0.5*float64(winner.Specificity)/6.0) * winner.CoherenceRatio
		if confidence > 1 {
			confidence = 1
		}

		out[el.Name] = Resolved{
			Element:      el,
			Winner:       winner.Pattern,
			DisplayValue: displayValue,
			Specificity:  winner.Specificity,
			Confidence:   confidence,
			Candidates:   cands,
		}
	}

	return out, warnings
}

// matchKeys compares a Pattern's 6-char Keys against window position by
// position; '*' matches anything. specificity is the count of non-wildcard
// positions, used as the tertiary tiebreak.
func matchKeys(keys, window string) (matched bool, specificity int) {
	if len(keys) != 6 || len(window) != 6 {
		return false, 0
	}
	for i := 0; i < 6; i++ {
		k := keys[i]
		if k == '*' {
			continue
		}
		if k != window[i] {
			return false, 0
		}
		specificity++
	}
	return true, specificity
}

func normalize(weight int) float64 {
	if weight <= 0 {
		return 0
	}
	if weight >= maxElementWeight {
		return 1
	}
	return float64(weight) / float64(maxElementWeight)
}

// resolveDisplayValue turns an AttributeRef into the string a caller sees.
// Model is special-cased: its id is only unambiguous within a Make, so it
// is resolved through ModelForMake first, falling back to the flat Model
// lookup (and a MODEL_MAKE_MISMATCH warning) when no Make won this decode
// or the two disagree (spec.md §4.5).
func resolveDisplayValue(ctx context.Context, store catalogstore.Store, el catalogcore.Element, attr catalogcore.AttributeRef, makeID *int64) (string, *decodeerr.Error) {
	if attr.Kind == catalogcore.AttributeLiteral {
		return attr.Literal, nil
	}

	if el.LookupTable == "Model" {
		if makeID != nil {
			if name, found, err := store.ModelForMake(ctx, *makeID, attr.TableID); err == nil && found {
				return name, nil
			}
		}
		name, found, err := store.LookupName(ctx, "Model", attr.TableID)
		if err != nil || !found {
			return "", decodeerr.New(decodeerr.CodeLookupMiss, "model id has no catalog entry")
		}
		return name, decodeerr.New(decodeerr.CodeModelMakeMismatch, "model resolved without a confirmed make association")
	}

	name, found, err := store.LookupName(ctx, el.LookupTable, attr.TableID)
	if err != nil || !found {
		return "", decodeerr.New(decodeerr.CodeLookupMiss, "no catalog entry for "+el.LookupTable+" id")
	}
	return name, nil
}
