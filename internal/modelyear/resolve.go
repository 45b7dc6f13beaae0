// Package modelyear implements the Model-Year Resolver (spec.md §4.3):
// decoding VIN position 10 against the 30-year cycle table, disambiguating
// the two candidate years with position 7, and applying the future-year
// guard. It is grounded on the teacher's inventory-service decodeModelYear,
// generalized from a single fixed cycle to the full letter/digit table.
package modelyear

import (
	"autolytiq/vindecoder/internal/decodeerr"
)

// cycleYears maps a position-10 character to its two candidate years: the
// 1980-2009 cycle (yLow) and the 2010-2039 cycle (yHigh). Letters I, O, Q,
// U, Z and digit 0 never appear at position 10 (0 means "not a US-style
// model year", handled separately by Resolve).
var cycleYears = map[byte][2]int{
	'A': {1980, 2010}, 'B': {1981, 2011}, 'C': {1982, 2012}, 'D': {1983, 2013},
	'E': {1984, 2014}, 'F': {1985, 2015}, 'G': {1986, 2016}, 'H': {1987, 2017},
	'J': {1988, 2018}, 'K': {1989, 2019}, 'L': {1990, 2020}, 'M': {1991, 2021},
	'N': {1992, 2022}, 'P': {1993, 2023}, 'R': {1994, 2024}, 'S': {1995, 2025},
	'T': {1996, 2026}, 'V': {1997, 2027}, 'W': {1998, 2028}, 'X': {1999, 2029},
	'Y': {2000, 2030},
	'1': {2001, 2031}, '2': {2002, 2032}, '3': {2003, 2033}, '4': {2004, 2034},
	'5': {2005, 2035}, '6': {2006, 2036}, '7': {2007, 2037}, '8': {2008, 2038},
	'9': {2009, 2039},
}

// Result is the outcome of resolving VIN position 10 to a model year.
type Result struct {
	Year       int
	Resolved   bool // false when position 10 is '0' (non-US model year convention)
	Overridden bool // true when Resolve was given an explicit override
}

// Resolve decodes position 10 (vin[9]) into a model year.
//
// Position 7 (vin[6]) disambiguates the two candidate cycle years: a
// numeric position 7 selects the 1980-2009 cycle, an alphabetic position 7
// selects the 2010-2039 cycle. This matches every worked scenario in
// spec.md §8 even though it reads as the reverse of §4.3's own prose
// statement of the rule — see DESIGN.md, "Model-year P7 disambiguation".
//
// futureYearGuard, when non-zero, is the latest year considered plausible
// (normally the current year plus two, per the "more than 2 years in the
// future" guard); a resolved year beyond it is pulled back one cycle (30
// years) to its paired candidate.
//
// override, when non-nil, bypasses position-10 decoding entirely — the
// caller has already been told the model year out of band.
func Resolve(vin string, futureYearGuard int, override *int) (Result, []*decodeerr.Error) {
	if override != nil {
		return Result{Year: *override, Resolved: true, Overridden: true}, nil
	}

	if len(vin) < 10 {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeNonUSYear, "VIN too short to resolve a model year")}
	}

	p10 := vin[9]
	if p10 == '0' {
		return Result{Resolved: false}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeNonUSYear,
			"position 10 '0' does not follow the US model-year convention")}
	}

	years, ok := cycleYears[p10]
	if !ok {
		return Result{}, []*decodeerr.Error{decodeerr.New(decodeerr.CodeNonUSYear,
			"position 10 character is not a recognized model-year code")}
	}

	year := years[0]
	if len(vin) >= 7 {
		p7 := vin[6]
		if p7 >= 'A' && p7 <= 'Z' {
			year = years[1]
		}
	} else {
		year = years[1]
	}

	var warnings []*decodeerr.Error
	if futureYearGuard > 0 && year > futureYearGuard {
		year -= 30
	}

	return Result{Year: year, Resolved: true}, warnings
}
