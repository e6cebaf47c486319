package google

import (
	"fmt"
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

// parseHexColor converts "#rrggbb" to the Sheets color struct.
func parseHexColor(s string) (*gsheet.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return &gsheet.Color{
		Red:   float64(val>>16&0xff) / 255,
		Green: float64(val>>8&0xff) / 255,
		Blue:  float64(val&0xff) / 255,
	}, nil
}
