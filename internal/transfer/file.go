package transfer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Export formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// ValidFormat reports whether f is a supported export format.
func ValidFormat(f string) bool {
	return f == FormatJSON || f == FormatJSONL
}

// Encode writes snap to w. JSON is the indented snapshot document; JSONL is
// one compact entry per line with no envelope.
func Encode(w io.Writer, snap Snapshot, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, e := range snap.Entries {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("encoding entry %s: %w", e.ID, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// ExportTo exports the collection and writes it to w.
func (s *Serializer) ExportTo(ctx context.Context, w io.Writer, format string) (Snapshot, error) {
	if !ValidFormat(format) {
		return Snapshot{}, fmt.Errorf("unknown format %q", format)
	}
	snap, err := s.Export(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := Encode(w, snap, format); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ExportFile exports the collection to path, replacing it atomically.
func (s *Serializer) ExportFile(ctx context.Context, path, format string) (Snapshot, error) {
	if !ValidFormat(format) {
		return Snapshot{}, fmt.Errorf("unknown format %q", format)
	}
	snap, err := s.Export(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	err = writeFileAtomic(path, func(w io.Writer) error {
		return Encode(w, snap, format)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// FormatFor returns the import format implied by path's extension:
// FormatJSONL for .jsonl and .ndjson, FormatJSON otherwise.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

// ImportFile reads path and imports it in the given format. An empty format
// is inferred from the extension.
func (s *Serializer) ImportFile(ctx context.Context, path, format string) (int, error) {
	if format == "" {
		format = FormatFor(path)
	}
	if !ValidFormat(format) {
		return 0, fmt.Errorf("unknown format %q", format)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatJSONL {
		return s.ImportLines(ctx, f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Import(ctx, data)
}

// ImportLines imports one JSON entry object per line, as written by the
// jsonl export. Blank lines, malformed lines and lines that are not objects
// are skipped; lines have no length limit. The batch is stored in one unit
// of work.
func (s *Serializer) ImportLines(ctx context.Context, r io.Reader) (int, error) {
	now := s.now()
	var batch []types.Entry
	skipped := 0

	br := bufio.NewReader(r)
	for {
		raw, readErr := br.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return 0, fmt.Errorf("reading lines: %w", readErr)
		}
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			var rec map[string]any
			if err := json.Unmarshal(line, &rec); err != nil || rec == nil {
				skipped++
			} else {
				batch = append(batch, Normalize(rec, now, s.newID))
			}
		}
		if readErr == io.EOF {
			break
		}
	}

	if err := s.repo.PutAll(ctx, batch); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	s.log.Info("jsonl import finished", logging.Int("imported", len(batch)), logging.Int("skipped", skipped))
	return len(batch), nil
}

// writeFileAtomic writes through a temp file in the target directory, then
// fsyncs and renames it over path. On any failure path is left untouched.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stowlog-export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		return fail(fmt.Errorf("writing export: %w", err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
