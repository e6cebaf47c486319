// Package classify turns a single notification message into a Receipt by
// resolving its true origin and dispatching to the matching provider's
// extraction rules.
package classify

import (
	"errors"
	"fmt"

	"tally/internal/core"
	"tally/internal/forward"
	"tally/internal/mail"
)

// ErrUnknownProvider means the message's effective origin address matches no
// known provider. This is a processing error, distinct from a recognized
// provider whose message simply isn't a transaction.
var ErrUnknownProvider = errors.New("unknown provider address")

// Config wires the classifier. Zero-value Attribution/RelayAddress disable
// forwarded-mail handling.
type Config struct {
	// RelayAddress is the forwarding relay: mail arriving from this sender
	// is unwrapped with the forward resolver before dispatch.
	RelayAddress string

	// Attribution maps a forwarded message's destination address to a
	// human label identifying whose inbox relayed it.
	Attribution map[string]string

	// DefaultAttribution labels forwarded mail whose destination is not in
	// the map.
	DefaultAttribution string
}

// Classifier dispatches messages to provider extraction routines. The
// provider set is closed: it is fixed at construction and keyed by
// normalized origin address.
type Classifier struct {
	byAddress map[string]*provider
	cfg       Config
}

// New builds a classifier over the given providers. Use Providers() for the
// standard set.
func New(cfg Config, provs []*provider) *Classifier {
	byAddr := make(map[string]*provider, len(provs))
	for _, p := range provs {
		byAddr[forward.NormalizeAddress(p.address)] = p
	}
	return &Classifier{byAddress: byAddr, cfg: cfg}
}

// Classify extracts a Receipt from one message.
//
// A recognized provider whose subject matches nothing yields a Receipt with
// neither amount nor counterparty; callers detect "not a receipt" from that,
// never from an error. Errors are reserved for an unknown origin address or
// an unresolvable forward.
func (c *Classifier) Classify(msg mail.Message) (core.Receipt, error) {
	origin := forward.NormalizeAddress(msg.Sender)
	body := msg.Body
	forwarded := false

	if c.cfg.RelayAddress != "" && origin == forward.NormalizeAddress(c.cfg.RelayAddress) {
		o, err := forward.Resolve(msg.Body)
		if err != nil {
			return core.Receipt{}, fmt.Errorf("resolve forwarded message %s: %w", msg.ID, err)
		}
		origin = o.Address
		body = o.Body
		forwarded = true
	}

	p, ok := c.byAddress[origin]
	if !ok {
		return core.Receipt{}, fmt.Errorf("%w: %s", ErrUnknownProvider, origin)
	}

	ex := p.extract(msg.Subject, body)

	label := p.name
	if forwarded {
		label = c.attributionFor(msg.Destination) + " " + p.name
	}

	return core.Receipt{
		Date:         msg.Date,
		Amount:       ex.amount,
		Counterparty: ex.counterparty,
		Category:     ex.category,
		Provider:     label,
	}, nil
}

func (c *Classifier) attributionFor(destination string) string {
	if label, ok := c.cfg.Attribution[forward.NormalizeAddress(destination)]; ok {
		return label
	}
	return c.cfg.DefaultAttribution
}
