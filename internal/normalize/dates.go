package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// dateLayouts are the encodings the external sources are known to use. The
// holiday calendar mixes the compact and delimited forms in one file.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate coerces a raw date string to a canonical feature date. Returns
// false for missing or unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.Date(t), true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
