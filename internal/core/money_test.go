package core

import "testing"

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"simple", "42.10", 4210, false},
		{"no fraction", "12", 1200, false},
		{"leading dollar", "$5.00", 500, false},
		{"thousands comma", "1,042.50", 104250, false},
		{"dollar and commas", "$12,345.67", 1234567, false},
		{"single fraction digit", "7.5", 750, false},
		{"rounds down", "12.345", 1234, false},
		{"rounds up", "12.346", 1235, false},
		{"empty", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"negative rejected", "-5.00", 0, true},
		{"plus rejected", "+5.00", 0, true},
		{"zero rejected", "0.00", 0, true},
		{"letters", "abc", 0, true},
		{"two dots", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmountCents(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmountCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmountCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{4210, "42.10"},
		{-500, "-5.00"},
		{5, "0.05"},
		{0, "0.00"},
		{100000, "1000.00"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.cents); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestAmountNeg(t *testing.T) {
	if got := Cents(500).Neg(); got.Cents != -500 || !got.Valid {
		t.Errorf("Neg() = %+v, want -500 valid", got)
	}
	if got := (Amount{}).Neg(); got.Valid {
		t.Errorf("Neg() of absent amount should stay absent, got %+v", got)
	}
}
