package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/gradeboard/internal/dashboard"
)

const (
	columnName              = "name"
	columnGrade             = "grade"
	columnLastLogin         = "last_login"
	columnLastParticipation = "last_participation"
	columnIntro             = "intro"
)

// CSV extracts user records from a CSV document with a header row.
type CSV struct {
	comma rune
}

var _ dashboard.Extractor = (*CSV)(nil)

// NewCSV creates a comma separated extractor.
func NewCSV() *CSV {
	return &CSV{comma: ','}
}

// String returns the name of the extractor.
func (c *CSV) String() string { return "csv" }

// Extract reads every data row of r. Columns are matched by header name,
// case-insensitively and in any order. Unknown columns are ignored.
func (c *CSV) Extract(ctx context.Context, r io.Reader) ([]dashboard.UserRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.comma
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []dashboard.UserRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := indexColumns(header)
	if _, ok := columns[columnGrade]; !ok {
		return nil, fmt.Errorf("csv header is missing the %q column", columnGrade)
	}

	users := make([]dashboard.UserRecord, 0)
	for row := 2; ; row++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		user, err := parseRow(columns, fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		users = append(users, user)
	}

	log.Debug("Extracted records from csv", "records", len(users), "columns", len(columns))
	return users, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func parseRow(columns map[string]int, fields []string) (dashboard.UserRecord, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	var (
		user dashboard.UserRecord
		err  error
	)

	user.Name = strings.TrimSpace(cell(columnName))
	user.Intro = cell(columnIntro)

	gradeValue := strings.TrimSpace(cell(columnGrade))
	user.Grade, err = strconv.Atoi(gradeValue)
	if err != nil {
		return user, fmt.Errorf("invalid grade %q", gradeValue)
	}

	if user.LastLogin, err = parseDate(cell(columnLastLogin)); err != nil {
		return user, fmt.Errorf("%s: %w", columnLastLogin, err)
	}
	if user.LastParticipation, err = parseDate(cell(columnLastParticipation)); err != nil {
		return user, fmt.Errorf("%s: %w", columnLastParticipation, err)
	}

	return user, nil
}
