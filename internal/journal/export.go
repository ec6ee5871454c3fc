package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/intake/internal/errors"
)

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	IntakeExport  bool   `json:"_intake_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
	Persona       string `json:"persona,omitempty"`
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes a persona's entries (every persona when empty) to path as
// JSONL: a header line, then one entry per line. The file is replaced
// atomically.
func Export(ctx context.Context, j Journal, persona, path string) (*ExportResult, error) {
	if err := validatePath(path, pathWrite); err != nil {
		return nil, err
	}
	now := time.Now()

	entries, err := j.List(ctx, persona, 0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(ExportHeader{
		IntakeExport:  true,
		SchemaVersion: "1.0",
		ExportedAt:    now.Unix(),
		Persona:       persona,
	}); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := enc.Encode(e); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}

	return &ExportResult{Path: path, Count: len(entries), ExportedAt: now.Unix()}, nil
}

// ImportResult describes a finished import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Import appends every entry of a JSONL export file to j. Lines that do not
// decode, or entries without a persona, are reported and skipped. Entries
// whose id is already in j are counted as skipped, so importing the same file
// twice is a no-op on every backend.
func Import(ctx context.Context, j Journal, path string) (*ImportResult, error) {
	if err := validatePath(path, pathRead); err != nil {
		return nil, err
	}
	file, err := openNoFollow(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	existing, err := j.List(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ID] = true
	}

	res := &ImportResult{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if line == 1 {
			var h ExportHeader
			if json.Unmarshal(text, &h) == nil && h.IntakeExport {
				continue
			}
		}

		var e Entry
		if err := json.Unmarshal(text, &e); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if e.Persona == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: missing persona", line))
			continue
		}
		if e.ID == "" {
			e.ID = ulid.Make().String()
		}
		if seen[e.ID] {
			res.Skipped++
			continue
		}
		if err := j.Append(ctx, e); err != nil {
			return res, err
		}
		seen[e.ID] = true
		res.Imported++
	}
	if err := scanner.Err(); err != nil {
		return res, errors.NewInternal(err)
	}
	return res, nil
}
