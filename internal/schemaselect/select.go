// Package schemaselect implements the Schema Selector (spec.md §4.4):
// narrowing a WMI's linked VinSchemas to those active for a resolved model
// year, falling back to the unfiltered set when the year is unknown.
package schemaselect

import (
	"context"

	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/decodeerr"
)

// Select returns the VinSchemas linked to wmiID that are active for year
// (see catalogstore.ActiveForYear), or every linked schema if year is nil.
func Select(ctx context.Context, store catalogstore.Store, wmiID int64, year *int) ([]catalogstore.WmiSchemaLink, []*decodeerr.Error) {
	links, err := store.SchemasForWMI(ctx, wmiID)
	if err != nil {
		return nil, []*decodeerr.Error{decodeerr.New(decodeerr.CodeCatalogUnavailable, "schema lookup failed: "+err.Error())}
	}

	active := catalogstore.ActiveForYear(links, year)
	if len(active) == 0 {
		return nil, []*decodeerr.Error{decodeerr.New(decodeerr.CodeLookupMiss, "no VIN schema is active for the resolved model year")}
	}
	return active, nil
}
