// Package patterns implements the text pattern library the provider
// classifiers extract transaction fields with. Patterns carry named capture
// slots (amount, counterparty, detail); matching is a pure function of the
// pattern and the input text.
package patterns

import "regexp"

// Capture slot names recognized in pattern expressions.
const (
	SlotAmount       = "amount"
	SlotCounterparty = "counterparty"
	SlotDetail       = "detail"
)

// AmountExpr is the sub-expression providers embed for a dollar magnitude:
// optional thousands commas, optional fraction. The captured string parses
// with core.ParseAmountCents.
const AmountExpr = `\$(?P<amount>[0-9][0-9,]*(?:\.[0-9]+)?)`

// Extract holds whatever a matched pattern captured. Empty fields mean the
// pattern has no such slot or the slot matched nothing.
type Extract struct {
	Amount       string
	Counterparty string
	Detail       string
}

// Pattern is one compiled pattern. Subject patterns are anchored to the
// whole text; body patterns match anywhere.
type Pattern struct {
	re *regexp.Regexp
}

// Subject compiles an expression anchored to the entire input, for matching
// whole subject lines. Panics on a bad expression, so pattern sets are
// declared as package-level variables and vetted at init.
func Subject(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(`\A(?:` + expr + `)\z`)}
}

// Body compiles an unanchored expression for scanning message bodies.
func Body(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(expr)}
}

// Match applies the pattern and pulls out its named slots.
func (p Pattern) Match(text string) (Extract, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return Extract{}, false
	}
	var ex Extract
	for i, name := range p.re.SubexpNames() {
		if i >= len(m) {
			break
		}
		switch name {
		case SlotAmount:
			ex.Amount = m[i]
		case SlotCounterparty:
			ex.Counterparty = m[i]
		case SlotDetail:
			ex.Detail = m[i]
		}
	}
	return ex, true
}

// Set is an ordered list of patterns tried first to last; the first match
// wins. Order encodes provider priority (direct payment before refund
// before category variants).
type Set []Pattern

// Match tries each pattern in order and returns the first extract.
func (s Set) Match(text string) (Extract, bool) {
	for _, p := range s {
		if ex, ok := p.Match(text); ok {
			return ex, true
		}
	}
	return Extract{}, false
}
