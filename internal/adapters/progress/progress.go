// Package progress remembers how far a generate run got so the next run can
// pick up after the last persisted recipient.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const fileName = "claimdrop_progress.json"

// Progress is the resume point of the last generate run in a directory.
type Progress struct {
	// AccountsFile is the recipients file the offset refers to.
	AccountsFile string `json:"accounts_file"`

	// NextOffset is the first valid recipient not yet in any artifact.
	NextOffset int `json:"next_offset"`

	// Artifact is the last artifact written, empty if the run built nothing.
	Artifact string `json:"artifact"`

	Envelopes int    `json:"envelopes"`
	Outcome   string `json:"outcome"`

	// Error is set when the run failed.
	Error string `json:"error,omitempty"`

	// Skipped lists recipient ranges before NextOffset that were not
	// distributed because their page could not be built.
	Skipped []Range `json:"skipped,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Range is a run of recipients by offset in the accounts file's valid rows.
type Range struct {
	Offset int    `json:"offset"`
	Count  int    `json:"count"`
	Reason string `json:"reason"`
}

// IsEmpty reports whether no run has been recorded.
func (p Progress) IsEmpty() bool {
	return p.AccountsFile == ""
}

// ResumeOffset returns the offset to continue from for accountsFile, or
// false when the recorded run was for a different file.
func (p Progress) ResumeOffset(accountsFile string) (int, bool) {
	if p.IsEmpty() || filepath.Clean(p.AccountsFile) != filepath.Clean(accountsFile) {
		return 0, false
	}
	return p.NextOffset, true
}

// FileRepository stores Progress as JSON in a directory.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Load returns the stored progress, or an empty Progress if none exists.
func (r *FileRepository) Load(ctx context.Context) (Progress, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Progress{}, nil
		}
		return Progress{}, err
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// Save replaces the stored progress atomically.
func (r *FileRepository) Save(ctx context.Context, p Progress) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.Path())
}

// Path returns the full path of the progress file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, fileName)
}
