// Package googleauth builds authenticated HTTP clients for the Gmail and
// Sheets adapters from OAuth client credentials plus a stored user token
// (minted once with cmd/oauth-init).
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials locates the OAuth client and token material. JSON values win
// over file paths, matching how deployments inject secrets.
type Credentials struct {
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
}

// Client returns an HTTP client carrying the stored user token, refreshed
// automatically, scoped as requested.
func Client(ctx context.Context, creds Credentials, scopes ...string) (*http.Client, error) {
	clientBytes, err := load(creds.ClientJSON, creds.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth client credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientBytes, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client credentials: %w", err)
	}

	tokenBytes, err := load(creds.TokenJSON, creds.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenBytes, &tok); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	return cfg.Client(ctx, &tok), nil
}

func load(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		return os.ReadFile(file)
	default:
		return nil, errors.New("neither inline JSON nor file path provided")
	}
}
