// Package extract provides the extraction collaborators that turn uploaded
// documents into dashboard user records.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jon4hz/gradeboard/internal/dashboard"
)

// ErrUnsupportedFormat is returned when no extractor handles a file.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006/01/02",
}

// ForFilename returns the extractor matching the file extension of name.
func ForFilename(name string) (dashboard.Extractor, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return NewCSV(), nil
	case ".json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// parseDate parses a date cell. Empty cells yield the zero time.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
