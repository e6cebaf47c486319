package classify

import (
	"tally/internal/core"
	"tally/internal/patterns"
)

// Default origin addresses for the standard provider set.
const (
	ChaseAddress  = "no.reply.alerts@chase.com"
	PayPalAddress = "service@paypal.com"
	VenmoAddress  = "venmo@venmo.com"
)

// rule is one subject pattern with its business meaning. Rules run in
// declaration order; the first subject match wins.
type rule struct {
	pattern  patterns.Pattern
	credit   bool // money coming back: negate the amount
	category string
	// wantBody: when the subject left the counterparty empty, fall back to
	// the provider's body patterns.
	wantBody bool
}

// provider is one payment provider's closed rule table.
type provider struct {
	name    string
	address string
	rules   []rule
	body    patterns.Set
}

type extract struct {
	amount       core.Amount
	counterparty string
	category     string
}

// extract runs the provider's subject rules in priority order. A rule match
// with an unparseable amount is treated as no extraction for that slot; a
// subject matching no rule at all yields the empty extract, which upstream
// reads as "not a receipt".
func (p *provider) extract(subject, body string) extract {
	for _, r := range p.rules {
		ex, ok := r.pattern.Match(subject)
		if !ok {
			continue
		}
		out := extract{counterparty: trimCounterparty(ex.Counterparty), category: r.category}
		if ex.Amount != "" {
			if amt, err := core.ParseAmount(ex.Amount); err == nil {
				if r.credit {
					amt = amt.Neg()
				}
				out.amount = amt
			}
		}
		if out.counterparty == "" && r.wantBody {
			if bex, ok := p.body.Match(body); ok {
				out.counterparty = trimCounterparty(bex.Counterparty)
			}
		}
		return out
	}
	return extract{}
}

func trimCounterparty(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '.' || s[len(s)-1] == ' ' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Providers returns the standard provider set. Addresses default to the
// published alert senders; pass overrides for testing against fixtures.
func Providers() []*provider {
	amount := patterns.AmountExpr
	name := `(?P<counterparty>\S.*?)`

	chase := &provider{
		name:    "Chase",
		address: ChaseAddress,
		rules: []rule{
			// Direct charge, merchant in the subject.
			{pattern: patterns.Subject(`Your ` + amount + ` transaction with ` + name + `\.?`)},
			// Pending credit: merchant only appears in the body.
			{pattern: patterns.Subject(`You have a ` + amount + ` credit pending on your credit card\.?`), credit: true, wantBody: true},
			// Refund posted.
			{pattern: patterns.Subject(`Your ` + amount + ` refund from ` + name + ` was credited\.?`), credit: true},
			// Category-specific variants; merchant resolved from the body.
			{pattern: patterns.Subject(`Your ` + amount + ` gas station purchase was approved\.?`), category: "Auto", wantBody: true},
			{pattern: patterns.Subject(`Your ` + amount + ` grocery store purchase was approved\.?`), category: "Groceries", wantBody: true},
		},
		body: patterns.Set{
			patterns.Body(`Merchant\s+(?P<counterparty>\S[^\r\n]*)`),
		},
	}

	paypal := &provider{
		name:    "PayPal",
		address: PayPalAddress,
		rules: []rule{
			{pattern: patterns.Subject(`You sent ` + amount + ` (?:USD )?to ` + name)},
			{pattern: patterns.Subject(`Receipt for your payment to ` + name), wantBody: true},
			{pattern: patterns.Subject(`You received ` + amount + ` (?:USD )?from ` + name), credit: true},
			{pattern: patterns.Subject(`You were sent a ` + amount + ` refund from ` + name), credit: true},
		},
		body: patterns.Set{
			patterns.Body(`You sent ` + amount + ` to (?P<counterparty>\S[^\r\n]*?)\.`),
		},
	}

	venmo := &provider{
		name:    "Venmo",
		address: VenmoAddress,
		rules: []rule{
			{pattern: patterns.Subject(`You paid ` + name + ` ` + amount)},
			{pattern: patterns.Subject(name + ` paid you ` + amount), credit: true},
			{pattern: patterns.Subject(name + ` charged you ` + amount)},
		},
	}

	return []*provider{chase, paypal, venmo}
}
