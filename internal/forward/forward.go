// Package forward recovers the original sender and body from messages that
// arrived as forwarded copies through a relay mailbox.
package forward

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvableForward means no known forwarding banner was found in the
// body, so the true origin cannot be determined.
var ErrUnresolvableForward = errors.New("no forwarding banner recognized")

// Origin is the recovered original message content.
type Origin struct {
	Address string
	Body    string
}

// dialect is one forwarding-banner flavor. headerLines is how many header
// lines (From/Date/Subject/To and friends) follow the banner before the
// original body begins.
type dialect struct {
	marker      string
	headerLines int
}

// The two banner flavors seen in practice: Gmail's forwarded-message rule
// and Apple Mail's. Both put a From header on the first line after the
// banner and four header lines in total.
var dialects = []dialect{
	{marker: "---------- Forwarded message ---------", headerLines: 4},
	{marker: "Begin forwarded message:", headerLines: 4},
}

// Resolve scans body text for a forwarding banner and returns the original
// sender address and the unwrapped original body. Dialects are treated
// uniformly once matched.
func Resolve(body string) (Origin, error) {
	for _, d := range dialects {
		idx := strings.Index(body, d.marker)
		if idx < 0 {
			continue
		}
		return resolveAt(body[idx+len(d.marker):], d)
	}
	return Origin{}, ErrUnresolvableForward
}

func resolveAt(rest string, d dialect) (Origin, error) {
	lines := strings.Split(rest, "\n")

	// Skip the remainder of the banner line and any blank lines before the
	// header block.
	i := 1
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	from := ""
	end := i + d.headerLines
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[i:end] {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "From:"); ok {
			from = strings.TrimSpace(v)
			break
		}
	}
	if from == "" {
		return Origin{}, fmt.Errorf("banner found but no From header: %w", ErrUnresolvableForward)
	}

	return Origin{
		Address: NormalizeAddress(from),
		Body:    strings.TrimLeft(strings.Join(lines[end:], "\n"), "\n"),
	}, nil
}

// NormalizeAddress reduces a From header value to a bare lowercase address.
// Handles `Display Name <addr@host>` and already-bare addresses alike, so
// applying it twice is safe.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if open := strings.LastIndex(s, "<"); open >= 0 {
		if end := strings.Index(s[open:], ">"); end > 0 {
			s = s[open+1 : open+end]
		} else {
			s = s[open+1:]
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}
