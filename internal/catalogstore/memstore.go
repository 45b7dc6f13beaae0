package catalogstore

import (
	"context"
	"fmt"

	"autolytiq/vindecoder/internal/catalogcore"
)

// MemStore is the synchronous in-memory fast path Store: every layer is
// held fully resident, and reads are plain map lookups with no locking,
// safe for unlimited concurrent readers since layers are built once and
// never mutated afterward (spec.md §5).
type MemStore struct {
	layers []*layer
}

// NewMemStore composes base and overlays into a single virtual union view.
// Layers are composed in the order given: base first, then overlays, which
// matters only for PreferOfficial-style tiebreaks performed upstream in the
// matcher (MemStore itself never drops a layer's rows).
func NewMemStore(base RawCatalog, overlays ...RawCatalog) (*MemStore, error) {
	baseLayer, err := loadLayer(base, 0)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: load base catalog: %w", err)
	}
	layers := []*layer{baseLayer}
	for i, ov := range overlays {
		l, err := loadLayer(ov, i+1)
		if err != nil {
			return nil, fmt.Errorf("catalogstore: load overlay %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return &MemStore{layers: layers}, nil
}

func (m *MemStore) WMIsByCode(_ context.Context, code string) ([]catalogcore.Wmi, error) {
	var out []catalogcore.Wmi
	for _, l := range m.layers {
		out = append(out, l.wmisByCode[code]...)
	}
	return out, nil
}

func (m *MemStore) WmiMakeLink(_ context.Context, wmiID, makeID int64) (bool, error) {
	for _, l := range m.layers {
		if byMake, ok := l.wmiMakes[wmiID]; ok && byMake[makeID] {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) SchemasForWMI(_ context.Context, wmiID int64) ([]WmiSchemaLink, error) {
	var out []WmiSchemaLink
	for _, l := range m.layers {
		out = append(out, l.schemaLinks[wmiID]...)
	}
	return out, nil
}

func (m *MemStore) PatternsForSchema(_ context.Context, schemaID int64) ([]catalogcore.Pattern, error) {
	for _, l := range m.layers {
		if ps, ok := l.patterns[schemaID]; ok {
			return ps, nil
		}
	}
	return nil, nil
}

func (m *MemStore) Element(_ context.Context, id int64) (catalogcore.Element, bool, error) {
	for _, l := range m.layers {
		if el, ok := l.elementsByID[id]; ok {
			return el, true, nil
		}
	}
	return catalogcore.Element{}, false, nil
}

func (m *MemStore) LookupName(_ context.Context, table string, id int64) (string, bool, error) {
	if !knownLookupTables[table] {
		return "", false, fmt.Errorf("catalogstore: unknown lookup table %q", table)
	}
	for _, l := range m.layers {
		if rows, ok := l.lookupRows[table]; ok {
			if name, ok := rows[id]; ok {
				return name, true, nil
			}
		}
	}
	return "", false, nil
}

func (m *MemStore) ModelForMake(_ context.Context, makeID, modelID int64) (string, bool, error) {
	for _, l := range m.layers {
		if byModel, ok := l.makeModel[makeID]; ok {
			if name, ok := byModel[modelID]; ok {
				return name, true, nil
			}
		}
	}
	return "", false, nil
}

func (m *MemStore) NamedRowID(_ context.Context, table, name string) (int64, bool, error) {
	if !knownLookupTables[table] {
		return 0, false, fmt.Errorf("catalogstore: unknown lookup table %q", table)
	}
	for _, l := range m.layers {
		if ids, ok := l.lookupIDs[table]; ok {
			if id, ok := ids[name]; ok {
				return id, true, nil
			}
		}
	}
	return 0, false, nil
}

func (m *MemStore) Close() error { return nil }
