package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const partialSuffix = ".partial"

// ArtifactName returns the deterministic artifact file name for a run
// started at the given time.
func ArtifactName(at time.Time) string {
	return fmt.Sprintf("generated_xdrs_%d.csv", at.Unix())
}

// SignedPath derives the co-signed artifact path: the stem before the last
// extension gets a _signed suffix.
func SignedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_signed" + ext
}

// Writer implements ports.EnvelopeWriter with one envelope per CSV row.
//
// Rows go to <path>.partial and are flushed and synced on every Append, so
// a killed process leaves every appended envelope on disk. Close moves the
// partial file to path. Neither file is ever overwritten: an existing
// artifact or leftover partial file fails with an error matching os.ErrExist.
type Writer struct {
	path  string
	file  *os.File
	csv   *csv.Writer
	count int
}

// NewWriter creates the partial file for path, creating parent directories.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create artifact %s: %w", path, os.ErrExist)
	}
	f, err := os.OpenFile(path+partialSuffix, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	return &Writer{path: path, file: f, csv: csv.NewWriter(f)}, nil
}

// Append writes one envelope row and syncs it to disk.
func (w *Writer) Append(envelope string) error {
	if w.file == nil {
		return errors.New("artifact writer is closed")
	}
	if err := w.csv.Write([]string{envelope}); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush envelope: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of envelopes appended so far.
func (w *Writer) Count() int {
	return w.count
}

// Close finalizes the artifact. With no envelopes the partial file is
// removed and the returned path is empty.
func (w *Writer) Close() (string, error) {
	if w.file == nil {
		return "", errors.New("artifact writer is closed")
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil

	partial := w.path + partialSuffix
	if err := errors.Join(flushErr, closeErr); err != nil {
		return partial, fmt.Errorf("finalize artifact: %w", err)
	}
	if w.count == 0 {
		return "", os.Remove(partial)
	}
	// Link fails if path appeared since NewWriter; the partial file is kept.
	if err := os.Link(partial, w.path); err != nil {
		return partial, fmt.Errorf("finalize artifact: %w", err)
	}
	if err := os.Remove(partial); err != nil {
		return w.path, fmt.Errorf("remove partial artifact: %w", err)
	}
	return w.path, nil
}

// WriteEnvelopes writes a complete artifact at path in one pass.
func WriteEnvelopes(path string, envelopes []string) (string, error) {
	w, err := NewWriter(path)
	if err != nil {
		return "", err
	}
	for _, e := range envelopes {
		if err := w.Append(e); err != nil {
			_, _ = w.Close()
			return "", err
		}
	}
	return w.Close()
}

// Reader implements ports.EnvelopeReader.
type Reader struct{}

// NewReader returns an artifact reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadEnvelopes returns the first column of every non-empty row, in order.
func (Reader) ReadEnvelopes(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	var out []string
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read artifact %s: %w", path, err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(row[0]))
	}
}
