package journal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
)

// File stores each persona either as one JSON array (<dir>/<persona>.json)
// or as one file per record (<dir>/<persona>/<persona>_<label>_<unix>.json).
//
// Writers are serialized by an in-process mutex and an advisory lock file
// (<persona>.json.lock for collections, <dir>/<persona>/.lock for record
// files), so separate processes sharing dir never overwrite each other. Every
// write goes through a temp file and rename, so readers never see a partial
// collection.
type File struct {
	dir       string
	perRecord map[string]bool
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewFile creates dir if needed. perRecord lists personas written one file
// per record.
func NewFile(dir string, perRecord []string, logger *zap.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &File{
		dir:       dir,
		perRecord: make(map[string]bool, len(perRecord)),
		logger:    logger.With(zap.String("component", "journal.file")),
		now:       time.Now,
	}
	for _, p := range perRecord {
		f.perRecord[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return f, nil
}

// Dir returns the journal directory.
func (f *File) Dir() string { return f.dir }

// CollectionPath returns the JSON array file for persona.
func (f *File) CollectionPath(persona string) string {
	return filepath.Join(f.dir, persona+".json")
}

// Append implements Journal.
func (f *File) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validPersona(e.Persona) {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid persona name %q", e.Persona))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.NewPersistence("file", fmt.Errorf("journal closed"))
	}

	if f.perRecord[e.Persona] {
		return f.appendRecordFile(e)
	}
	return f.appendCollection(e)
}

func (f *File) appendCollection(e Entry) error {
	path := f.CollectionPath(e.Persona)

	unlock, err := lockFile(path + ".lock")
	if err != nil {
		return errors.NewPersistence("file", err)
	}
	defer unlock()

	entries, err := f.readCollection(path, true)
	if err != nil {
		return errors.NewPersistence("file", err)
	}
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return errors.NewPersistence("file", err)
	}

	f.logger.Debug("appended entry",
		zap.String("persona", e.Persona),
		zap.String("id", e.ID),
		zap.Int("count", len(entries)),
	)
	return nil
}

func (f *File) appendRecordFile(e Entry) error {
	dir := filepath.Join(f.dir, e.Persona)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewPersistence("file", err)
	}

	// The name check and the rename must not interleave with another writer.
	unlock, err := lockFile(filepath.Join(dir, ".lock"))
	if err != nil {
		return errors.NewPersistence("file", err)
	}
	defer unlock()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = f.now()
	}
	base := fmt.Sprintf("%s_%s_%d", e.Persona, slug(e.Label), ts.Unix())
	path := filepath.Join(dir, base+".json")
	if _, err := os.Lstat(path); err == nil {
		// same label within the same second
		path = filepath.Join(dir, base+"_"+strings.ToLower(e.ID)+".json")
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return errors.NewPersistence("file", err)
	}

	f.logger.Debug("wrote entry file", zap.String("persona", e.Persona), zap.String("path", path))
	return nil
}

// readCollection loads a JSON array. A missing or empty file is an empty
// collection. An undecodable file is also treated as empty; when moveAside
// is set it is renamed to <path>.corrupt-<unix> so the next write does not
// destroy it.
func (f *File) readCollection(path string, moveAside bool) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		fields := []zap.Field{zap.String("path", path), zap.Error(err)}
		if moveAside {
			aside := fmt.Sprintf("%s.corrupt-%d", path, f.now().Unix())
			if rerr := os.Rename(path, aside); rerr != nil {
				return nil, fmt.Errorf("move aside corrupt journal: %w", rerr)
			}
			fields = append(fields, zap.String("moved_to", aside))
		}
		f.logger.Warn("corrupt journal collection treated as empty", fields...)
		return nil, nil
	}
	return entries, nil
}

func (f *File) readRecordFiles(persona string) ([]Entry, error) {
	dir := filepath.Join(f.dir, persona)
	names, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			f.logger.Warn("skipping unreadable entry file", zap.String("path", name), zap.Error(err))
			continue
		}
		if e.Persona == "" {
			e.Persona = persona
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (f *File) listPersona(persona string) ([]Entry, error) {
	if f.perRecord[persona] {
		return f.readRecordFiles(persona)
	}
	entries, err := f.readCollection(f.CollectionPath(persona), false)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Persona == "" {
			entries[i].Persona = persona
		}
	}
	return entries, nil
}

// personas finds every persona with data on disk.
func (f *File) personas() ([]string, error) {
	dirents, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range dirents {
		name := d.Name()
		switch {
		case d.IsDir() && f.perRecord[name]:
		case !d.IsDir() && strings.HasSuffix(name, ".json"):
			name = strings.TrimSuffix(name, ".json")
			if f.perRecord[name] {
				continue
			}
		default:
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// List implements Journal.
func (f *File) List(ctx context.Context, persona string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if persona != "" {
		entries, err := f.listPersona(persona)
		if err != nil {
			return nil, errors.NewPersistence("file", err)
		}
		return tail(entries, limit), nil
	}

	names, err := f.personas()
	if err != nil {
		return nil, errors.NewPersistence("file", err)
	}
	var all []Entry
	for _, p := range names {
		entries, err := f.listPersona(p)
		if err != nil {
			return nil, errors.NewPersistence("file", err)
		}
		all = append(all, entries...)
	}
	sortEntries(all)
	return tail(all, limit), nil
}

// Latest implements Journal.
func (f *File) Latest(ctx context.Context, persona string) (Entry, error) {
	entries, err := f.List(ctx, persona, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, errors.NewNotFound("entry", persona)
	}
	return entries[0], nil
}

// Close implements Journal.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// writeFileAtomic writes data to a random temp file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("failed to generate temp file name: %w", err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return err
	}
	success = true
	return nil
}

// validPersona rejects names that would escape the journal directory.
func validPersona(p string) bool {
	if p == "" || p == "." || p == ".." {
		return false
	}
	return !strings.ContainsAny(p, `/\`)
}

// slug turns a label into a filename-safe token.
func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "record"
	}
	return out
}
