// Package wmiresolve implements the WMI Resolver (spec.md §4.2): matching
// VIN positions 1-3 (and the 1-3+12-14 low-volume extension) against the
// catalog's Wmi rows, then disambiguating multiple candidates the way the
// teacher's inventory-service decoder picks one manufacturer record out of
// several NHTSA hits for the same prefix.
package wmiresolve

import (
	"context"
	"fmt"
	"sort"

	"autolytiq/vindecoder/internal/catalogcore"
	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/decodeerr"
)

// Result is the outcome of resolving a VIN's WMI, including the candidates
// that lost the disambiguation tiebreak (carried for provenance/debugging).
type Result struct {
	WMI        catalogcore.Wmi
	Candidates []catalogcore.Wmi
}

// Resolve matches vin's WMI prefix against store, preferring the six-char
// low-volume form (positions 1-3 + 12-14) when the three-char code is
// itself flagged low-volume, then disambiguating multiple hits.
//
// Tiebreak order (spec.md §4.2):
//  1. a candidate whose MakeID is set and confirmed by an explicit
//     Wmi_Make row wins outright (when assumedMakeID is given, only a
//     candidate whose MakeID equals it is considered for this tier);
//  2. else a candidate with MakeID set (no join confirmation available)
//     wins over one with none;
//  3. else the lowest id wins, for determinism.
func Resolve(ctx context.Context, store catalogstore.Store, vin string, assumedMakeID *int64) (Result, []*decodeerr.Error) {
	if len(vin) < 14 {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeWMINotFound, "VIN too short to resolve a WMI")}
	}

	code3 := vin[0:3]
	candidates, err := store.WMIsByCode(ctx, code3)
	if err != nil {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeCatalogUnavailable, "wmi lookup failed: "+err.Error())}
	}

	if len(candidates) == 1 && candidates[0].LowVolume {
		if extended, ok := resolveLowVolume(ctx, store, vin); ok {
			candidates = extended
		}
	} else if len(candidates) > 0 && anyLowVolume(candidates) {
		if extended, ok := resolveLowVolume(ctx, store, vin); ok {
			candidates = extended
		}
	}

	if len(candidates) == 0 {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeWMINotFound,
			fmt.Sprintf("no WMI found for code %q", code3))}
	}

	if len(candidates) == 1 {
		return Result{WMI: candidates[0], Candidates: candidates}, nil
	}

	best, err := disambiguate(ctx, store, candidates, assumedMakeID)
	if err != nil {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeWMINotFound, err.Error())}
	}
	return Result{WMI: best, Candidates: candidates}, nil
}

// resolveLowVolume re-queries using the six-char extended code (positions
// 1-3 + 12-14), returning ok=false if nothing matches so the caller falls
// back to the plain three-char candidate set.
func resolveLowVolume(ctx context.Context, store catalogstore.Store, vin string) ([]catalogcore.Wmi, bool) {
	if len(vin) < 14 {
		return nil, false
	}
	extended := vin[0:3] + vin[11:14]
	rows, err := store.WMIsByCode(ctx, extended)
	if err != nil || len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

func anyLowVolume(rows []catalogcore.Wmi) bool {
	for _, r := range rows {
		if r.LowVolume {
			return true
		}
	}
	return false
}

func disambiguate(ctx context.Context, store catalogstore.Store, candidates []catalogcore.Wmi, assumedMakeID *int64) (catalogcore.Wmi, error) {
	type scored struct {
		wmi   catalogcore.Wmi
		tier  int // lower is better
	}

	scoredRows := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		tier := 3
		if c.MakeID != nil {
			tier = 2
			if assumedMakeID == nil || *c.MakeID == *assumedMakeID {
				linked, err := store.WmiMakeLink(ctx, c.ID, *c.MakeID)
				if err != nil {
					return catalogcore.Wmi{}, err
				}
				if linked {
					tier = 1
				}
			}
		}
		scoredRows = append(scoredRows, scored{wmi: c, tier: tier})
	}

	sort.SliceStable(scoredRows, func(i, j int) bool {
		if scoredRows[i].tier != scoredRows[j].tier {
			return scoredRows[i].tier < scoredRows[j].tier
		}
		return scoredRows[i].wmi.ID < scoredRows[j].wmi.ID
	})

	return scoredRows[0].wmi, nil
}
