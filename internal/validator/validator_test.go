package validator

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantVIN string
		wantErr []decodeErrCode
	}{
		{
			name:    "valid length and alphabet",
			raw:     "1ftfw5l86rfb45612",
			wantVIN: "1FTFW5L86RFB45612",
		},
		{
			name:    "empty input",
			raw:     "   ",
			wantVIN: "",
			wantErr: []decodeErrCode{"EMPTY_INPUT"},
		},
		{
			name:    "wrong length",
			raw:     "1FTFW5L86RFB456",
			wantVIN: "1FTFW5L86RFB456",
			wantErr: []decodeErrCode{"INVALID_LENGTH"},
		},
		{
			name:    "forbidden letter I",
			raw:     "1HGCM826I3A004352",
			wantVIN: "1HGCM826I3A004352",
			wantErr: []decodeErrCode{"INVALID_CHARACTERS"},
		},
		{
			name:    "position 10 is U",
			raw:     "1FTFW5L86UFB45612",
			wantVIN: "1FTFW5L86UFB45612",
			wantErr: []decodeErrCode{"INVALID_CHARACTERS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, errs := Validate(tt.raw)
			if norm.VIN != tt.wantVIN {
				t.Errorf("VIN = %q, want %q", norm.VIN, tt.wantVIN)
			}
			if len(errs) != len(tt.wantErr) {
				t.Fatalf("got %d errors, want %d: %v", len(errs), len(tt.wantErr), errs)
			}
			for i, e := range errs {
				if string(e.Code) != string(tt.wantErr[i]) {
					t.Errorf("error[%d].Code = %q, want %q", i, e.Code, tt.wantErr[i])
				}
			}
		})
	}
}

// decodeErrCode avoids importing decodeerr.Code just for test table literals.
type decodeErrCode string

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		name     string
		vin      string
		expected byte
		actual   byte
		valid    bool
	}{
		{
			name:     "F-150 valid check digit",
			vin:      "1FTFW5L86RFB45612",
			expected: '6',
			actual:   '6',
			valid:    true,
		},
		{
			name:     "F-150 mismatched check digit",
			vin:      "1FTFW5L80RFB45612",
			expected: '6',
			actual:   '0',
			valid:    false,
		},
		{
			name:     "Honda CR-V valid check digit",
			vin:      "2HKRW2H25NH100001",
			expected: '5',
			actual:   '5',
			valid:    true,
		},
		{
			name:     "BMW X1 valid check digit",
			vin:      "WBAVL1C21F5612345",
			expected: '1',
			actual:   '1',
			valid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckDigit(tt.vin)
			if err != nil {
				t.Fatalf("CheckDigit returned error: %v", err)
			}
			if got.Expected != tt.expected {
				t.Errorf("Expected = %q, want %q", got.Expected, tt.expected)
			}
			if got.Actual != tt.actual {
				t.Errorf("Actual = %q, want %q", got.Actual, tt.actual)
			}
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
		})
	}
}

func TestCheckDigitRejectsShortVIN(t *testing.T) {
	if _, err := CheckDigit("1FT"); err == nil {
		t.Error("expected an error for a short VIN")
	}
}
