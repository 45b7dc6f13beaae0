// Package assembler implements the Result Assembler (spec.md §4.6): folding
// the WMI Resolver, Model-Year Resolver, validator, and matcher outputs
// into the grouped vehicle/wmi/plant/engine/modelYear/checkDigit shape a
// caller actually wants, optionally attaching pattern provenance.
package assembler

import (
	"sort"

	"autolytiq/vindecoder/internal/catalogcore"
	"autolytiq/vindecoder/internal/matcher"
	"autolytiq/vindecoder/internal/modelyear"
	"autolytiq/vindecoder/internal/validator"
)

// Provenance is one Element's winning pattern, included only when the
// caller asks for it (DecodeOptions.IncludePatterns).
type Provenance struct {
	Element     string         `json:"element"`
	PatternID   int64          `json:"patternId"`
	Specificity int            `json:"specificity"`
	Confidence  float64        `json:"confidence"`
	Source      catalogcore.Source `json:"source"`
}

// Vehicle groups the vehicle-describing values by display name: Make comes
// from the resolved WMI row, and whichever of Model, Series, Trim,
// BodyStyle, VehicleType, FuelType, DriveType, ElectrificationLevel,
// Transmission the matcher resolved fill the other fields.
type Vehicle struct {
	Make                 string `json:"make,omitempty"`
	Model                string `json:"model,omitempty"`
	Series               string `json:"series,omitempty"`
	Trim                 string `json:"trim,omitempty"`
	BodyStyle            string `json:"bodyStyle,omitempty"`
	VehicleType          string `json:"vehicleType,omitempty"`
	FuelType             string `json:"fuelType,omitempty"`
	DriveType            string `json:"driveType,omitempty"`
	ElectrificationLevel string `json:"electrificationLevel,omitempty"`
	Transmission         string `json:"transmission,omitempty"`
}

// WMIInfo is the assembled World Manufacturer Identifier group.
type WMIInfo struct {
	Code         string `json:"code"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Country      string `json:"country,omitempty"`
	Region       string `json:"region,omitempty"`
	LowVolume    bool   `json:"lowVolume"`
}

// regionOf derives a coarse region from a country name (spec.md §4.2's
// "region (derived from country)"). Unrecognized countries yield "".
func regionOf(country string) string {
	switch country {
	case "United States", "Canada", "Mexico":
		return "North America"
	case "Germany", "United Kingdom", "France", "Italy", "Spain", "Sweden":
		return "Europe"
	case "Japan", "South Korea", "China", "India":
		return "Asia"
	default:
		return ""
	}
}

// Plant is the assembled plant group (spec.md §4.6 "plant.city"); City is
// empty when the WMI carries no PlantCities entry for vin[10].
type Plant struct {
	Code byte   `json:"code"`
	City string `json:"city,omitempty"`
}

// Engine groups engine-describing elements decoded from the VDS. Its
// fields are filled from the same matcher elements as the like-named
// Vehicle fields, so the two always carry the same values.
type Engine struct {
	FuelType             string `json:"fuelType,omitempty"`
	ElectrificationLevel string `json:"electrificationLevel,omitempty"`
	Transmission         string `json:"transmission,omitempty"`
	DriveType            string `json:"driveType,omitempty"`
}

// ModelYear is the assembled model-year group.
type ModelYear struct {
	Year       int  `json:"year,omitempty"`
	Resolved   bool `json:"resolved"`
	Overridden bool `json:"overridden,omitempty"`
}

// CheckDigit is the assembled check-digit group.
type CheckDigit struct {
	Expected byte `json:"expected"`
	Actual   byte `json:"actual"`
	Valid    bool `json:"valid"`
}

// Assembled is the grouped, caller-facing decode payload before it is
// wrapped in the public DecodeResult envelope.
type Assembled struct {
	Vehicle     Vehicle       `json:"vehicle"`
	WMI         WMIInfo       `json:"wmi"`
	Plant       *Plant        `json:"plant,omitempty"`
	Engine      Engine        `json:"engine"`
	ModelYear   ModelYear     `json:"modelYear"`
	CheckDigit  CheckDigit    `json:"checkDigit"`
	Provenance  []Provenance  `json:"provenance,omitempty"`
}

// Assemble groups the pipeline's intermediate results into Assembled.
// includePatterns controls whether Provenance is populated.
func Assemble(
	wmi catalogcore.Wmi,
	wmiManufacturer, wmiCountry, makeName string,
	plantCode byte,
	my modelyear.Result,
	check validator.CheckDigitResult,
	elements map[string]matcher.Resolved,
	includePatterns bool,
) Assembled {
	a := Assembled{
		WMI: WMIInfo{
			Code:         wmi.Code,
			Manufacturer: wmiManufacturer,
			Country:      wmiCountry,
			Region:       regionOf(wmiCountry),
			LowVolume:    wmi.LowVolume,
		},
		ModelYear: ModelYear{
			Year:       my.Year,
			Resolved:   my.Resolved,
			Overridden: my.Overridden,
		},
		CheckDigit: CheckDigit{
			Expected: check.Expected,
			Actual:   check.Actual,
			Valid:    check.Valid,
		},
	}

	if plantCode != 0 {
		p := &Plant{Code: plantCode}
		if wmi.PlantCities != nil {
			p.City = wmi.PlantCities[plantCode]
		}
		a.Plant = p
	}

	a.Vehicle.Make = makeName

	assign := func(name string, dst *string) {
		if r, ok := elements[name]; ok {
			*dst = r.DisplayValue
		}
	}
	assign("Model", &a.Vehicle.Model)
	assign("Series", &a.Vehicle.Series)
	assign("Trim", &a.Vehicle.Trim)
	assign("BodyStyle", &a.Vehicle.BodyStyle)
	assign("VehicleType", &a.Vehicle.VehicleType)
	assign("FuelType", &a.Vehicle.FuelType)
	assign("DriveType", &a.Vehicle.DriveType)
	assign("ElectrificationLevel", &a.Vehicle.ElectrificationLevel)
	assign("Transmission", &a.Vehicle.Transmission)

	assign("FuelType", &a.Engine.FuelType)
	assign("ElectrificationLevel", &a.Engine.ElectrificationLevel)
	assign("Transmission", &a.Engine.Transmission)
	assign("DriveType", &a.Engine.DriveType)

	if includePatterns {
		for name, r := range elements {
			a.Provenance = append(a.Provenance, Provenance{
				Element:     name,
				PatternID:   r.Winner.ID,
				Specificity: r.Specificity,
				Confidence:  r.Confidence,
				Source:      r.Winner.Source,
			})
		}
		// elements is a map, so iteration order is random; sort so Decode
		// stays a pure function of its input (spec.md §8).
		sort.Slice(a.Provenance, func(i, j int) bool {
			return a.Provenance[i].PatternID < a.Provenance[j].PatternID
		})
	}

	return a
}
