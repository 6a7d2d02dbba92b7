package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Extractor turns a source document into user records.
type Extractor interface {
	fmt.Stringer
	// Extract reads all records from r.
	Extract(ctx context.Context, r io.Reader) ([]UserRecord, error)
}

// Target receives the import lifecycle transitions. *Store is a Target.
type Target interface {
	SetLoading(status bool)
	SetUsers(users []UserRecord)
	SetError(message string)
}

var _ Target = (*Store)(nil)

// ImportResult describes a finished import.
type ImportResult struct {
	Records  int
	Duration time.Duration
	Err      error
}

// Succeeded reports whether the import loaded its records.
func (r ImportResult) Succeeded() bool { return r.Err == nil }

// Import runs an extraction against the target. The target reports loading while
// the extractor runs, then holds either the extracted users or the failure
// message. Loading is always reset afterwards.
func Import(ctx context.Context, store Target, extractor Extractor, r io.Reader) ImportResult {
	start := time.Now()

	store.SetLoading(true)
	defer store.SetLoading(false)

	log.Debug("Starting import", "extractor", extractor.String())
	users, err := extract(ctx, extractor, r)
	if err != nil {
		log.Warn("Import failed", "extractor", extractor.String(), "error", err)
		store.SetError(err.Error())
		return ImportResult{Duration: time.Since(start), Err: err}
	}

	store.SetUsers(users)
	log.Info("Import finished", "extractor", extractor.String(), "records", len(users))
	return ImportResult{Records: len(users), Duration: time.Since(start)}
}

func extract(ctx context.Context, extractor Extractor, r io.Reader) ([]UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import canceled: %w", err)
	}
	users, err := extractor.Extract(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import canceled: %w", err)
	}
	return users, nil
}
