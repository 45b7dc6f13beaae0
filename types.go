// Package vindecoder decodes ISO 3779 Vehicle Identification Numbers
// against an offline, embeddable catalog derived from NHTSA vPIC data,
// optionally layered with community-contributed overlays. It never makes a
// network call: every Decode resolves against whatever catalog layers the
// Decoder was constructed with.
package vindecoder

import (
	"autolytiq/vindecoder/internal/assembler"
	"autolytiq/vindecoder/internal/decodeerr"
)

// DecodeResult is the full outcome of decoding one VIN: the normalized
// input, the grouped vehicle/wmi/plant/engine/modelYear/checkDigit payload,
// and every structural, integrity, or catalog diagnostic raised along the
// way. Valid is false whenever Errors contains a fatal entry.
type DecodeResult struct {
	VIN    string           `json:"vin"`
	Valid  bool             `json:"valid"`
	Result assembler.Assembled `json:"result"`
	Errors []*decodeerr.Error  `json:"errors,omitempty"`
}

// HasCode reports whether r.Errors contains an entry with the given code,
// regardless of severity — used by callers that want to branch on a
// specific diagnostic without caring whether it was fatal or a warning.
func (r DecodeResult) HasCode(code decodeerr.Code) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}
