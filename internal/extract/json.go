package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jon4hz/gradeboard/internal/dashboard"
)

// JSON extracts user records from a JSON array.
type JSON struct{}

var _ dashboard.Extractor = (*JSON)(nil)

// NewJSON creates a JSON extractor.
func NewJSON() *JSON {
	return &JSON{}
}

// String returns the name of the extractor.
func (j *JSON) String() string { return "json" }

type jsonRecord struct {
	Name              string `json:"name"`
	Grade             int    `json:"grade"`
	LastLogin         string `json:"lastLogin"`
	LastParticipation string `json:"lastParticipation"`
	Intro             string `json:"intro"`
}

// Extract decodes an array of user objects. Dates use the same layouts as the CSV extractor.
func (j *JSON) Extract(ctx context.Context, r io.Reader) ([]dashboard.UserRecord, error) {
	var raw []jsonRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return []dashboard.UserRecord{}, nil
		}
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	users := make([]dashboard.UserRecord, 0, len(raw))
	for i, rec := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lastLogin, err := parseDate(rec.LastLogin)
		if err != nil {
			return nil, fmt.Errorf("record %d: lastLogin: %w", i, err)
		}
		lastParticipation, err := parseDate(rec.LastParticipation)
		if err != nil {
			return nil, fmt.Errorf("record %d: lastParticipation: %w", i, err)
		}

		users = append(users, dashboard.UserRecord{
			Name:              rec.Name,
			Grade:             rec.Grade,
			LastLogin:         lastLogin,
			LastParticipation: lastParticipation,
			Intro:             rec.Intro,
		})
	}
	return users, nil
}
