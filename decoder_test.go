package vindecoder

import (
	"context"
	"testing"

	"autolytiq/vindecoder/internal/catalogdata"
	"autolytiq/vindecoder/internal/decodeerr"
)

func newTestDecoder(t *testing.T, includeCommunity bool) *Decoder {
	t.Helper()
	store, err := catalogdata.NewDefaultStore(includeCommunity)
	if err != nil {
		t.Fatalf("NewDefaultStore: %v", err)
	}
	dec, err := New(Config{Store: store, PreferOfficial: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { dec.Close() })
	return dec
}

// TestDecodeFordF150 is the canonical "F-150 vs F-550" regression: both
// schemas' Model pattern ("F*****") matches, but F-150's schema explains
// four of the VDS's six positions against F-550's one, so F-150 wins the
// schema-coherence tiebreak.
func TestDecodeFordF150(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "1FTFW5L86RFB45612", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected Valid=true, errors: %v", result.Errors)
	}

	v := result.Result.Vehicle
	if v.Make != "Ford" {
		t.Errorf("Make = %q, want Ford", v.Make)
	}
	if v.Model != "F-150" {
		t.Errorf("Model = %q, want F-150 (F-550 must not win the coherence tiebreak)", v.Model)
	}
	if v.BodyStyle != "Pickup" {
		t.Errorf("BodyStyle = %q, want Pickup", v.BodyStyle)
	}
	if v.FuelType != "Gasoline" {
		t.Errorf("FuelType = %q, want Gasoline", v.FuelType)
	}
	if v.DriveType != "4WD" {
		t.Errorf("DriveType = %q, want 4WD", v.DriveType)
	}

	if result.Result.ModelYear.Year != 2024 {
		t.Errorf("ModelYear.Year = %d, want 2024", result.Result.ModelYear.Year)
	}
	if result.Result.Plant == nil || result.Result.Plant.City != "Dearborn, Michigan" {
		t.Errorf("Plant = %+v, want Dearborn, Michigan", result.Result.Plant)
	}
	if !result.Result.CheckDigit.Valid {
		t.Errorf("CheckDigit.Valid = false, want true")
	}
	if result.Result.WMI.Country != "United States" || result.Result.WMI.Region != "North America" {
		t.Errorf("WMI country/region = %q/%q, want United States/North America",
			result.Result.WMI.Country, result.Result.WMI.Region)
	}
}

// TestDecodeCheckDigitMismatchStillValid exercises spec.md §4.1's "warning,
// not fatal" rule: an INVALID_CHECK_DIGIT diagnostic must not flip Valid.
func TestDecodeCheckDigitMismatchStillValid(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "1FTFW5L80RFB45612", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected Valid=true despite a check-digit mismatch, errors: %v", result.Errors)
	}
	if !result.HasCode(decodeerr.CodeInvalidCheckDigit) {
		t.Errorf("expected an INVALID_CHECK_DIGIT diagnostic, got %v", result.Errors)
	}
	if result.Result.Vehicle.Model != "F-150" {
		t.Errorf("Model = %q, want F-150 (a check-digit warning must not block the rest of decoding)", result.Result.Vehicle.Model)
	}
}

func TestDecodeHondaCRV(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "2HKRW2H25NH100001", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected Valid=true, errors: %v", result.Errors)
	}

	v := result.Result.Vehicle
	if v.Make != "Honda" || v.Model != "CR-V" || v.BodyStyle != "SUV" || v.DriveType != "AWD" {
		t.Errorf("Vehicle = %+v, want Honda CR-V SUV AWD", v)
	}
	if result.Result.ModelYear.Year != 2022 {
		t.Errorf("ModelYear.Year = %d, want 2022", result.Result.ModelYear.Year)
	}
	if result.Result.Plant == nil || result.Result.Plant.City != "Alliston, Ontario" {
		t.Errorf("Plant = %+v, want Alliston, Ontario", result.Result.Plant)
	}
}

func TestDecodeBMWX1(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "WBAVL1C21F5612345", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected Valid=true, errors: %v", result.Errors)
	}

	v := result.Result.Vehicle
	if v.Make != "BMW" || v.Model != "X1" || v.BodyStyle != "SUV" {
		t.Errorf("Vehicle = %+v, want BMW X1 SUV", v)
	}
	if result.Result.ModelYear.Year != 2015 {
		t.Errorf("ModelYear.Year = %d, want 2015", result.Result.ModelYear.Year)
	}
	if result.Result.WMI.Region != "Europe" {
		t.Errorf("Region = %q, want Europe", result.Result.WMI.Region)
	}
}

// TestDecodeTeslaModelYDriveType exercises the community overlay and its
// position-8 RWD/AWD disambiguation (spec.md §4.7's overlay composition).
func TestDecodeTeslaModelYDriveType(t *testing.T) {
	dec := newTestDecoder(t, true)

	tests := []struct {
		name      string
		vin       string
		driveType string
	}{
		{name: "rear-wheel drive", vin: "LRWYGDEE3PC234567", driveType: "RWD"},
		{name: "all-wheel drive", vin: "LRWYGDEF2PC234567", driveType: "AWD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := dec.Decode(context.Background(), tt.vin, DecodeOptions{})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !result.Valid {
				t.Fatalf("expected Valid=true, errors: %v", result.Errors)
			}

			v := result.Result.Vehicle
			if v.Make != "Tesla" || v.Model != "Model Y" {
				t.Fatalf("Vehicle = %+v, want Tesla Model Y", v)
			}
			if v.DriveType != tt.driveType {
				t.Errorf("DriveType = %q, want %q", v.DriveType, tt.driveType)
			}
			if v.FuelType != "Electric" || v.ElectrificationLevel != "BEV" {
				t.Errorf("FuelType/ElectrificationLevel = %q/%q, want Electric/BEV", v.FuelType, v.ElectrificationLevel)
			}
			if result.Result.ModelYear.Year != 2023 {
				t.Errorf("ModelYear.Year = %d, want 2023", result.Result.ModelYear.Year)
			}
			if result.Result.Plant == nil || result.Result.Plant.City != "Shanghai, China" {
				t.Errorf("Plant = %+v, want Shanghai, China", result.Result.Plant)
			}
			if result.Result.WMI.Region != "Asia" {
				t.Errorf("Region = %q, want Asia", result.Result.WMI.Region)
			}
		})
	}
}

// TestDecodeTeslaRequiresCommunityOverlay confirms LRW isn't resolvable
// against the base catalog alone.
func TestDecodeTeslaRequiresCommunityOverlay(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "LRWYGDEE3PC234567", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected Valid=false without the community overlay loaded")
	}
	if !result.HasCode(decodeerr.CodeWMINotFound) {
		t.Errorf("expected WMI_NOT_FOUND, got %v", result.Errors)
	}
}

func TestDecodeInvalidCharacters(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "1HGCM826I3A004352", DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected Valid=false for a VIN containing 'I'")
	}
	if !result.HasCode(decodeerr.CodeInvalidCharacters) {
		t.Errorf("expected INVALID_CHARACTERS, got %v", result.Errors)
	}
}

func TestDecodeIncludePatterns(t *testing.T) {
	dec := newTestDecoder(t, false)
	result, err := dec.Decode(context.Background(), "1FTFW5L86RFB45612", DecodeOptions{IncludePatterns: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Result.Provenance) == 0 {
		t.Fatal("expected provenance entries when IncludePatterns is set")
	}
}

func TestDecodeModelYearOverride(t *testing.T) {
	dec := newTestDecoder(t, false)
	year := 2021 // within the F-150 schema's open-ended [2015, ) active range
	result, err := dec.Decode(context.Background(), "1FTFW5L86RFB45612", DecodeOptions{ModelYearOverride: &year})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !result.Result.ModelYear.Overridden || result.Result.ModelYear.Year != 2021 {
		t.Errorf("ModelYear = %+v, want Year=2021 Overridden=true", result.Result.ModelYear)
	}
}

// TestDecodeIdempotentAndDeterministic decodes the same VIN twice and
// requires identical results, the determinism invariant spec.md §8 calls
// for (no hidden clock or random tiebreak in the pipeline).
func TestDecodeIdempotentAndDeterministic(t *testing.T) {
	dec := newTestDecoder(t, true)
	const vin = "WBAVL1C21F5612345"

	first, err := dec.Decode(context.Background(), vin, DecodeOptions{IncludePatterns: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, err := dec.Decode(context.Background(), vin, DecodeOptions{IncludePatterns: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if first.Result.Vehicle != second.Result.Vehicle {
		t.Errorf("repeated decodes disagree: %+v vs %+v", first.Result.Vehicle, second.Result.Vehicle)
	}
	if len(first.Result.Provenance) != len(second.Result.Provenance) {
		t.Errorf("provenance length differs across repeated decodes: %d vs %d",
			len(first.Result.Provenance), len(second.Result.Provenance))
	}
}

// TestDecodeConcurrentSafety runs many decodes in parallel against a single
// shared Decoder, since spec.md §5 requires a Store (and by extension a
// Decoder) to be safe for unlimited concurrent readers once constructed.
func TestDecodeConcurrentSafety(t *testing.T) {
	dec := newTestDecoder(t, true)
	vins := []string{
		"1FTFW5L86RFB45612",
		"2HKRW2H25NH100001",
		"WBAVL1C21F5612345",
		"LRWYGDEE3PC234567",
		"LRWYGDEF2PC234567",
	}

	done := make(chan error, len(vins)*10)
	for i := 0; i < 10; i++ {
		for _, vin := range vins {
			vin := vin
			go func() {
				_, err := dec.Decode(context.Background(), vin, DecodeOptions{})
				done <- err
			}()
		}
	}
	for i := 0; i < len(vins)*10; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Decode failed: %v", err)
		}
	}
}
