package modelyear

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		vin      string
		guard    int
		override *int
		wantYear int
		wantOK   bool
	}{
		{
			name:     "F-150: P7 alphabetic selects the 2010+ cycle",
			vin:      "1FTFW5L86RFB45612",
			guard:    2028,
			wantYear: 2024,
			wantOK:   true,
		},
		{
			name:     "Honda CR-V: P7 alphabetic selects the 2010+ cycle",
			vin:      "2HKRW2H25NH100001",
			guard:    2028,
			wantYear: 2022,
			wantOK:   true,
		},
		{
			name:     "BMW X1: P7 alphabetic selects the 2010+ cycle",
			vin:      "WBAVL1C21F5612345",
			guard:    2028,
			wantYear: 2015,
			wantOK:   true,
		},
		{
			name:     "future-year guard pulls the year back one cycle",
			vin:      "1FTFW5L86RFB45612",
			guard:    2020, // 2024 exceeds this, so it's pulled back to 1994
			wantYear: 1994,
			wantOK:   true,
		},
		{
			name:     "position 10 '0' is not a US-style model year",
			vin:      "1FTFW5L860FB45612",
			guard:    2028,
			wantYear: 0,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Resolve(tt.vin, tt.guard, tt.override)
			if got.Resolved != tt.wantOK {
				t.Fatalf("Resolved = %v, want %v", got.Resolved, tt.wantOK)
			}
			if got.Resolved && got.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", got.Year, tt.wantYear)
			}
		})
	}
}

func TestResolveOverride(t *testing.T) {
	override := 2019
	got, errs := Resolve("1FTFW5L86RFB45612", 2028, &override)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !got.Overridden || got.Year != 2019 {
		t.Errorf("got %+v, want Year=2019 Overridden=true", got)
	}
}
