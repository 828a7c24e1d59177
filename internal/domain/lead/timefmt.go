package lead

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is how follow-up times are shown to people.
const DisplayLayout = "2006-01-02 15:04"

var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime reads a user supplied time; zone-less values are taken in loc.
// An empty string parses to nil.
func ParseTime(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}

// FormatLocal renders t in loc with DisplayLayout; nil renders as "".
func FormatLocal(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(DisplayLayout)
}
