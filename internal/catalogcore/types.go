// Package catalogcore defines the entity shapes of the VIN catalog: WMIs,
// VIN schemas, positional patterns, elements, and the lookup tables they
// reference. These types are the wire shape of spec.md §6's catalog schema;
// they carry no behavior beyond what's needed to describe the data.
package catalogcore

// Source identifies whether a catalog row came from the base NHTSA-derived
// dataset or a community-contributed overlay (spec.md §4.7).
type Source string

const (
	SourceOfficial  Source = "official"
	SourceCommunity Source = "community"
)

// Wmi is a World Manufacturer Identifier row. Code is non-unique across
// brands; the WMI resolver disambiguates using MakeID and the Wmi_Make join.
type Wmi struct {
	ID             int64
	Code           string // 3 chars, or 6 for low-volume manufacturers
	ManufacturerID int64
	MakeID         *int64
	CountryID      int64
	VehicleTypeID  int64
	LowVolume      bool // true when Code is the 3+3 extended form (positions 1-3 + 12-14)
	Source         Source

	// PlantCities maps a position-11 plant code to a city name. Not part of
	// spec.md §6's table list; spec.md §4.6 requires plant.city but defines
	// no Plant entity, so it is carried here as optional per-WMI data
	// (see DESIGN.md "Plant modeling").
	PlantCities map[byte]string
}

// WmiMake is the Wmi_Make join table: an explicit brand association for a
// WMI, used as a resolver tiebreaker ahead of bare MakeID presence.
type WmiMake struct {
	WmiID  int64
	MakeID int64
}

// VinSchema groups the positional Patterns describing one vehicle variant
// family for a WMI across a year range.
type VinSchema struct {
	ID         int64
	Name       string
	SourceWMI  string
	Notes      string
	Source     Source
}

// WmiVinSchema is the Wmi_VinSchema join: the year range for which a schema
// applies to a WMI. YearTo nil means open-ended.
type WmiVinSchema struct {
	ID          int64
	WmiID       int64
	VinSchemaID int64
	YearFrom    int
	YearTo      *int
}

// AttributeKind distinguishes a Pattern's AttributeID between a foreign key
// into a lookup table and a bare literal value (spec.md §9, "Untyped string
// attributeId" redesign note).
type AttributeKind int

const (
	AttributeLiteral AttributeKind = iota
	AttributeLookupRef
)

// AttributeRef is the tagged variant that replaces Pattern.AttributeId's
// untyped string: either a literal value or a reference resolved through a
// named lookup table at catalog load time, so the matcher never guesses.
type AttributeRef struct {
	Kind    AttributeKind
	Literal string // valid when Kind == AttributeLiteral
	TableID int64  // valid when Kind == AttributeLookupRef: row id in LookupTable
}

// Element is a named vehicle attribute (Make, Model, Body Class, Drive
// Type, ...) with an integer priority Weight and an optional LookupTable
// name. LookupTable == "" means pattern attribute values are literal strings.
type Element struct {
	ID          int64
	Name        string
	LookupTable string
	Weight      int
}

// Pattern matches six VDS positions (VIN positions 4-9) against one
// (Element, AttributeRef) assignment within a VinSchema.
type Pattern struct {
	ID          int64
	VinSchemaID int64
	Keys        string // exactly 6 chars over {A-Z,0-9,'*'}
	ElementID   int64
	Attribute   AttributeRef
	Source      Source
}

// NamedRow is the shape of every flat lookup table: Make, Model, BodyStyle,
// FuelType, ElectrificationLevel, Country, Manufacturer, VehicleType,
// DriveType, Transmission, and so on.
type NamedRow struct {
	ID   int64
	Name string
}

// MakeModel is the Make_Model join: Model names are only unique within a
// Make context.
type MakeModel struct {
	MakeID  int64
	ModelID int64
}
