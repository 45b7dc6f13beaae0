package catalogstore

import (
	"fmt"

	"autolytiq/vindecoder/internal/catalogcore"
)

// idSpace is the width of each layer's id range. Layer N (0 = base, 1 = the
// first overlay, ...) owns [idSpace*(N+1), idSpace*(N+2)), so a union view
// over several layers never confuses a base-catalog id with an overlay id,
// without requiring the layers to coordinate at load time.
const idSpace = int64(1_000_000_000)

// layer is one loaded catalog layer: either the base NHTSA-derived dataset
// or a single community overlay. It owns its own id space end to end, per
// spec.md §9's "layered catalog ... each layer keeps its own id space."
type layer struct {
	source catalogcore.Source

	elementsByName map[string]catalogcore.Element
	elementsByID   map[int64]catalogcore.Element

	// lookupRows holds every flat lookup table (Make, Model, Country, ...)
	// row by (table, id), with a name index for FK-by-name resolution.
	lookupRows map[string]map[int64]string
	lookupIDs  map[string]map[string]int64

	makeModel map[int64]map[int64]string // makeID -> modelID -> name

	wmisByCode map[string][]catalogcore.Wmi
	wmiMakes   map[int64]map[int64]bool // wmiID -> makeID -> linked

	schemaLinks map[int64][]WmiSchemaLink // wmiID -> links
	patterns    map[int64][]catalogcore.Pattern

	wmiSeq, schemaSeq, patternSeq, linkSeq int64

	// base is this layer's offset into the shared id space: layer N's ids
	// all fall in [base, base+idSpace), so no two layers ever mint the same
	// id regardless of load order.
	base int64
}

func newLayer(source catalogcore.Source, base int64) *layer {
	return &layer{
		source:         source,
		base:           base,
		elementsByName: make(map[string]catalogcore.Element),
		elementsByID:   make(map[int64]catalogcore.Element),
		lookupRows:     make(map[string]map[int64]string),
		lookupIDs:      make(map[string]map[string]int64),
		makeModel:      make(map[int64]map[int64]string),
		wmisByCode:     make(map[string][]catalogcore.Wmi),
		wmiMakes:       make(map[int64]map[int64]bool),
		schemaLinks:    make(map[int64][]WmiSchemaLink),
		patterns:       make(map[int64][]catalogcore.Pattern),
	}
}

// knownLookupTables is the closed dispatch table of spec.md §9's "dynamic
// lookup by table name" redesign: a catalog referencing any other table
// name fails to load instead of issuing an ad-hoc query at decode time.
var knownLookupTables = map[string]bool{
	"Make": true, "Model": true, "BodyStyle": true, "FuelType": true,
	"ElectrificationLevel": true, "Country": true, "Manufacturer": true,
	"VehicleType": true, "DriveType": true, "Transmission": true,
	"Series": true,
}

func (l *layer) internName(table, name string) (int64, error) {
	if !knownLookupTables[table] {
		return 0, fmt.Errorf("catalogstore: unknown lookup table %q", table)
	}
	if l.lookupIDs[table] == nil {
		l.lookupIDs[table] = make(map[string]int64)
		l.lookupRows[table] = make(map[int64]string)
	}
	if id, ok := l.lookupIDs[table][name]; ok {
		return id, nil
	}
	id := l.base + int64(len(l.lookupIDs[table])) + 1
	// Offset by a per-table band so ids from different tables can never
	// collide even though every table starts counting from 1.
	id += tableBand(table)
	l.lookupIDs[table][name] = id
	l.lookupRows[table][id] = name
	return id, nil
}

// tableBand spreads each lookup table's ids into its own numeric band
// within the layer's id space so two different tables never mint the same
// id, simplifying debugging (an id alone tells you its table's rough range).
func tableBand(table string) int64 {
	bands := map[string]int64{
		"Make": 0, "Model": 10_000_000, "BodyStyle": 20_000_000,
		"FuelType": 30_000_000, "ElectrificationLevel": 40_000_000,
		"Country": 50_000_000, "Manufacturer": 60_000_000,
		"VehicleType": 70_000_000, "DriveType": 80_000_000,
		"Transmission": 90_000_000, "Series": 100_000_000,
	}
	return bands[table]
}

func (l *layer) internElement(def rawElement) (catalogcore.Element, error) {
	if el, ok := l.elementsByName[def.Name]; ok {
		return el, nil
	}
	if def.LookupTable != "" && !knownLookupTables[def.LookupTable] {
		return catalogcore.Element{}, fmt.Errorf("catalogstore: element %q references unknown lookup table %q", def.Name, def.LookupTable)
	}
	id := l.base + int64(len(l.elementsByName)) + 1
	el := catalogcore.Element{ID: id, Name: def.Name, LookupTable: def.LookupTable, Weight: def.Weight}
	l.elementsByName[def.Name] = el
	l.elementsByID[id] = el
	return el, nil
}

func (l *layer) resolveAttribute(table string, attr rawPatternAttr) (catalogcore.AttributeRef, error) {
	if attr.Lookup == "" {
		return catalogcore.AttributeRef{Kind: catalogcore.AttributeLiteral, Literal: attr.Literal}, nil
	}
	id, err := l.internName(attr.Lookup, attr.Value)
	if err != nil {
		return catalogcore.AttributeRef{}, err
	}
	return catalogcore.AttributeRef{Kind: catalogcore.AttributeLookupRef, TableID: id}, nil
}

func (l *layer) loadWMI(raw rawWMI) error {
	manufID, err := l.internName("Manufacturer", raw.Manufacturer)
	if err != nil {
		return err
	}
	countryID, err := l.internName("Country", raw.Country)
	if err != nil {
		return err
	}
	vehicleTypeID, err := l.internName("VehicleType", raw.VehicleType)
	if err != nil {
		return err
	}

	var makeIDPtr *int64
	var makeID int64
	if raw.Make != "" {
		id, err := l.internName("Make", raw.Make)
		if err != nil {
			return err
		}
		makeID = id
		makeIDPtr = &id
	}

	l.wmiSeq++
	wmiID := l.base + l.wmiSeq

	var plantCities map[byte]string
	if len(raw.PlantCities) > 0 {
		plantCities = make(map[byte]string, len(raw.PlantCities))
		for code, city := range raw.PlantCities {
			if len(code) != 1 {
				return fmt.Errorf("catalogstore: plant code %q for WMI %q must be a single character", code, raw.Code)
			}
			plantCities[code[0]] = city
		}
	}

	wmi := catalogcore.Wmi{
		ID:             wmiID,
		Code:           raw.Code,
		ManufacturerID: manufID,
		MakeID:         makeIDPtr,
		CountryID:      countryID,
		VehicleTypeID:  vehicleTypeID,
		LowVolume:      raw.LowVolume,
		Source:         l.source,
		PlantCities:    plantCities,
	}
	l.wmisByCode[raw.Code] = append(l.wmisByCode[raw.Code], wmi)

	if makeIDPtr != nil {
		if l.wmiMakes[wmiID] == nil {
			l.wmiMakes[wmiID] = make(map[int64]bool)
		}
		l.wmiMakes[wmiID][makeID] = true
	}

	for _, rs := range raw.Schemas {
		if err := l.loadSchema(wmiID, makeID, rs); err != nil {
			return fmt.Errorf("wmi %q schema %q: %w", raw.Code, rs.Name, err)
		}
	}
	return nil
}

func (l *layer) loadSchema(wmiID, makeID int64, raw rawSchema) error {
	l.schemaSeq++
	schemaID := l.base + l.schemaSeq

	schema := catalogcore.VinSchema{ID: schemaID, Name: raw.Name, Notes: raw.Notes, Source: l.source}

	l.linkSeq++
	link := catalogcore.WmiVinSchema{
		ID:          l.base + l.linkSeq,
		WmiID:       wmiID,
		VinSchemaID: schemaID,
		YearFrom:    raw.YearFrom,
		YearTo:      raw.YearTo,
	}
	l.schemaLinks[wmiID] = append(l.schemaLinks[wmiID], WmiSchemaLink{Link: link, Schema: schema})

	for _, rp := range raw.Patterns {
		if len(rp.Keys) != 6 {
			return fmt.Errorf("pattern keys %q must be exactly 6 characters", rp.Keys)
		}
		el, err := l.internElement(rawElement{Name: rp.Element})
		if err != nil {
			return err
		}
		if el.Weight == 0 {
			return fmt.Errorf("element %q used before being declared with a weight", rp.Element)
		}

		attr, err := l.resolveAttribute(el.LookupTable, rp.Attribute)
		if err != nil {
			return err
		}

		// Model attribute values are scoped to the enclosing WMI's make,
		// matching spec.md §3's "Model additionally requires a Make
		// context."
		if el.LookupTable == "Model" && attr.Kind == catalogcore.AttributeLookupRef && makeID != 0 {
			if l.makeModel[makeID] == nil {
				l.makeModel[makeID] = make(map[int64]string)
			}
			l.makeModel[makeID][attr.TableID] = l.lookupRows["Model"][attr.TableID]
		}

		l.patternSeq++
		pattern := catalogcore.Pattern{
			ID:          l.base + l.patternSeq,
			VinSchemaID: schemaID,
			Keys:        rp.Keys,
			ElementID:   el.ID,
			Attribute:   attr,
			Source:      l.source,
		}
		l.patterns[schemaID] = append(l.patterns[schemaID], pattern)
	}
	return nil
}

// loadLayer builds a layer from a parsed RawCatalog. layerIndex (0 = base,
// 1 = first overlay, ...) selects this layer's disjoint id band. Elements
// must be declared before any pattern references them (InitSchema-style
// up-front declaration), matching how the embedded catalog files are
// authored.
func loadLayer(rc RawCatalog, layerIndex int) (*layer, error) {
	l := newLayer(rc.Source, idSpace*int64(layerIndex+1))
	for _, def := range rc.Elements {
		if _, err := l.internElement(def); err != nil {
			return nil, err
		}
	}
	for _, w := range rc.WMIs {
		if err := l.loadWMI(w); err != nil {
			return nil, err
		}
	}
	return l, nil
}
