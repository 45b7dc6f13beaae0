// Package catalogstore provides read-only, indexed access to the VIN
// catalog: WMIs, VIN schemas, patterns, elements, and lookup tables. It is
// the Catalog Store component of spec.md §2.1.
//
// Two backends satisfy the same Store interface, the "synchronous in-memory
// fast path" and "pooled-worker fast path" spec.md §9 calls for as the
// portable replacement for the source's callback/promise-driven native
// adapter: MemStore (memstore.go) and the lib/pq-backed SQLStore
// (sqlstore.go). Decoder code only ever sees the Store capability.
package catalogstore

import (
	"context"
	"sort"

	"autolytiq/vindecoder/internal/catalogcore"
)

// Store is the read-only query capability the decoder pipeline consumes.
// Every method is safe for concurrent callers; a Store is built once at
// Decoder construction and never mutated afterward (spec.md §5).
type Store interface {
	// WMIsByCode returns every Wmi row whose Code matches code (3 or 6
	// chars). Multiple rows mean the code is shared across brands.
	WMIsByCode(ctx context.Context, code string) ([]catalogcore.Wmi, error)
	// WmiMakeLink reports whether wmiID has an explicit Wmi_Make row for
	// makeID, the resolver's second-tier tiebreaker.
	WmiMakeLink(ctx context.Context, wmiID, makeID int64) (bool, error)
	// SchemasForWMI returns every Wmi_VinSchema row (plus its VinSchema)
	// linked to wmiID.
	SchemasForWMI(ctx context.Context, wmiID int64) ([]WmiSchemaLink, error)
	// PatternsForSchema returns every Pattern in schemaID, cached per
	// schema id by the backend (spec.md §4.4 "cached per schema id").
	PatternsForSchema(ctx context.Context, schemaID int64) ([]catalogcore.Pattern, error)
	// Element looks up one Element by id.
	Element(ctx context.Context, id int64) (catalogcore.Element, bool, error)
	// LookupName resolves a (table, id) pair to its display name via the
	// closed dispatch table described in spec.md §9 ("dynamic lookup by
	// table name" redesign note): an unknown table name is returned as an
	// error rather than turned into a query. MemStore also rejects unknown
	// table names when a catalog layer is loaded; SQLStore does not check
	// element lookup tables at load time.
	LookupName(ctx context.Context, table string, id int64) (string, bool, error)
	// ModelForMake resolves a Model id within a Make's Make_Model join.
	// ok is false if the model isn't linked to makeID, signaling the
	// caller to fall back to a global Model lookup (spec.md §4.5).
	ModelForMake(ctx context.Context, makeID, modelID int64) (name string, ok bool, err error)
	// NamedRowID looks up a lookup-table row's id by name. Overlay
	// composition does not go through it: each catalog layer resolves its
	// own foreign keys by name through its own index at load time.
	NamedRowID(ctx context.Context, table, name string) (int64, bool, error)
	// Close releases any resources (prepared statements, connections)
	// held by the backend.
	Close() error
}

// WmiSchemaLink pairs a Wmi_VinSchema join row with the VinSchema it
// references, as returned by SchemasForWMI.
type WmiSchemaLink struct {
	Link   catalogcore.WmiVinSchema
	Schema catalogcore.VinSchema
}

// ActiveForYear filters links to those whose [YearFrom, YearTo] range
// contains year, or returns all links unfiltered if year is nil (spec.md
// §4.4: "If resolvedYear is unknown, select all schemas for wmiId").
func ActiveForYear(links []WmiSchemaLink, year *int) []WmiSchemaLink {
	if year == nil {
		return links
	}
	y := *year
	out := make([]WmiSchemaLink, 0, len(links))
	for _, l := range links {
		if l.Link.YearFrom > y {
			continue
		}
		if l.Link.YearTo != nil && *l.Link.YearTo < y {
			continue
		}
		out = append(out, l)
	}
	// Deterministic order: lowest schema id first, matching the matcher's
	// quaternary pattern-id tiebreak downstream.
	sort.Slice(out, func(i, j int) bool { return out[i].Schema.ID < out[j].Schema.ID })
	return out
}
