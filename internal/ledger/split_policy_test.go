package ledger

import "testing"

func row(date, name string) Row {
	return Row{Date: date, Name: name, Cost: "1.00"}
}

func TestSameTransaction(t *testing.T) {
	tests := []struct {
		name string
		a, b Row
		want bool
	}{
		{"exact match", row("3/14/2026", "Example Store"), row("3/14/2026", "Example Store"), true},
		{"different day", row("3/14/2026", "Example Store"), row("3/15/2026", "Example Store"), false},
		{"mixed date formats same day", row("3/14/2026", "Example Store"), row("2026-03-14", "Example Store"), true},
		{"delimited base matches", row("3/14/2026", "Example Store |"), row("3/14/2026", "Example Store | tax"), true},
		{"leading third matches", row("3/14/2026", "Example Store #1881"), row("3/14/2026", "Example St"), true},
		{"different names", row("3/14/2026", "Example Store"), row("3/14/2026", "Другое"), false},
		{"empty right", row("3/14/2026", "Example Store"), Row{}, false},
		{"empty left", Row{}, row("3/14/2026", "Example Store"), false},
		{"tiny names no third", row("3/14/2026", "ab"), row("3/14/2026", "ax"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameTransaction(tt.a, tt.b); got != tt.want {
				t.Errorf("SameTransaction(%q, %q) = %v, want %v", tt.a.Name, tt.b.Name, got, tt.want)
			}
		})
	}
}

func TestDifferenceExpr(t *testing.T) {
	if got := differenceExpr("42.10", "C12"); got != "=42.10-C12" {
		t.Errorf("literal: %q", got)
	}
	// Already an expression: extend, don't re-wrap.
	if got := differenceExpr("=42.10-C12", "C13"); got != "=42.10-C12-C13" {
		t.Errorf("expression: %q", got)
	}
}

func TestDelimitedName(t *testing.T) {
	if got := delimitedName("Example Store"); got != "Example Store |" {
		t.Errorf("delimitedName = %q", got)
	}
	if got := delimitedName("Example Store | tax"); got != "Example Store | tax" {
		t.Errorf("already delimited: %q", got)
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{{0, "A"}, {2, "C"}, {25, "Z"}, {26, "AA"}, {27, "AB"}}
	for _, tt := range tests {
		if got := columnLetter(tt.col); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}
