// Package hugo materializes mapped documents as local content files:
// deterministic filenames, stable front matter rendering, atomic writes,
// and safe deletion.
package hugo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Writer writes and deletes local documents under a single content
// directory. Filenames are derived from the configured format; duplicate
// names within a run get a numeric suffix.
type Writer struct {
	dir        string
	ext        string
	format     string
	dateLayout string

	mu    sync.Mutex
	taken map[string]string // filename base -> record ID that claimed it
}

// NewWriter creates a Writer for dir. The extension and filename format
// come from configuration; nothing about the layout is hardcoded.
func NewWriter(dir, ext, format, dateLayout string) *Writer {
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Writer{
		dir:        dir,
		ext:        ext,
		format:     format,
		dateLayout: dateLayout,
		taken:      make(map[string]string),
	}
}

// Dir returns the content directory.
func (w *Writer) Dir() string { return w.dir }

// Reserve marks the filename at path as owned by recordID, so writes for
// other records suffix around it. The engine seeds reservations from the
// ledger at run start; without them collision suffixing would only see
// names written in the current run and a new record could rename over a
// prior run's file.
func (w *Writer) Reserve(recordID, path string) {
	base := strings.TrimSuffix(filepath.Base(path), w.ext)
	if base == "" || base == "." {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.taken[base]; !exists {
		w.taken[base] = recordID
	}
}

// Write renders the document and writes it atomically, returning the path.
// No external reader ever observes a partial file: content goes to a
// temporary file in the same directory, then a rename moves it into place.
func (w *Writer) Write(recordID string, fields map[string]any, body string) (string, error) {
	doc, err := RenderDocument(fields, body)
	if err != nil {
		return "", err
	}

	base := w.filenameBase(recordID, fields)
	base = w.claim(base, recordID)
	path := filepath.Join(w.dir, base+w.ext)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", wrapWriteErr(w.dir, err)
	}

	tmp, err := os.CreateTemp(w.dir, ".sync-*")
	if err != nil {
		return "", wrapWriteErr(path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", wrapWriteErr(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", wrapWriteErr(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", wrapWriteErr(path, err)
	}
	return path, nil
}

// Delete removes a previously written document. Already-absent files are a
// no-op so deletion is retry-safe.
func (w *Writer) Delete(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapWriteErr(path, err)
	}

	// Free the name for reuse. Deletions run before updates and creates,
	// so a record claiming the freed name in the same run is safe.
	base := strings.TrimSuffix(filepath.Base(path), w.ext)
	w.mu.Lock()
	delete(w.taken, base)
	w.mu.Unlock()
	return nil
}

// filenameBase derives the filename (without extension) from the
// configured format and the mapped fields.
func (w *Writer) filenameBase(recordID string, fields map[string]any) string {
	switch w.format {
	case types.FilenameTitle:
		return w.titleSlug(recordID, fields)
	case types.FilenameDateTitle:
		return w.datePrefix(fields) + "-" + w.titleSlug(recordID, fields)
	default:
		// FilenameUUID: the record ID is already unique and stable.
		return recordID
	}
}

func (w *Writer) titleSlug(recordID string, fields map[string]any) string {
	title, _ := fields["title"].(string)
	if slug, ok := fields["slug"].(string); ok && slug != "" {
		title = slug
	}
	s := Slugify(title)
	if s == "" {
		return recordID
	}
	return s
}

// datePrefix formats the mapped date field with the configured layout,
// falling back to today when the field is absent or unparseable.
func (w *Writer) datePrefix(fields map[string]any) string {
	layout := w.dateLayout
	if layout == "" {
		layout = "2006-01-02"
	}
	if raw, ok := fields["date"].(string); ok && raw != "" {
		for _, parse := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z07:00", "2006-01-02"} {
			if t, err := time.Parse(parse, raw); err == nil {
				return t.Format(layout)
			}
		}
	}
	return time.Now().Format(layout)
}

// claim reserves a filename base for a record, suffixing on collision with
// a different record. The same record re-claiming its base is idempotent.
func (w *Writer) claim(base, recordID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	candidate := base
	for i := 2; ; i++ {
		owner, exists := w.taken[candidate]
		if !exists || owner == recordID {
			w.taken[candidate] = recordID
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// wrapWriteErr classifies a filesystem failure. Exhausted storage is
// fatal and aborts the run; everything else is isolated to the record.
func wrapWriteErr(path string, err error) error {
	fatal := errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS)
	return &types.WriteError{Path: path, Fatal: fatal, Err: err}
}
