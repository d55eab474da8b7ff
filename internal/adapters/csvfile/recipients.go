// Package csvfile reads recipient lists and reads/writes envelope artifacts
// as CSV files.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/claimdrop/internal/domain"
)

// RecipientList is the result of reading a recipients file.
type RecipientList struct {
	Recipients []domain.Recipient

	// Rejected holds one entry per skipped row, in input order.
	Rejected []*domain.RecordError

	// Rows is the number of rows read, accepted or not.
	Rows int
}

// LoadRecipients reads the recipients file at path.
func LoadRecipients(ctx context.Context, path string) (RecipientList, error) {
	f, err := os.Open(path)
	if err != nil {
		return RecipientList{}, fmt.Errorf("open recipients: %w", err)
	}
	defer f.Close()
	return ReadRecipients(ctx, f)
}

// ReadRecipients parses account,multiplier rows. Malformed rows are collected
// in Rejected and never abort the read; only I/O errors do.
func ReadRecipients(ctx context.Context, r io.Reader) (RecipientList, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var list RecipientList
	for line := 0; ; line++ {
		if err := ctx.Err(); err != nil {
			return list, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		list.Rows++

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			list.Rejected = append(list.Rejected, &domain.RecordError{Line: line, Reason: perr.Err.Error()})
			continue
		}
		if err != nil {
			return list, fmt.Errorf("read recipients: %w", err)
		}

		rec, rerr := domain.ParseRecord(line, row)
		if rerr != nil {
			list.Rejected = append(list.Rejected, rerr)
			continue
		}
		list.Recipients = append(list.Recipients, rec)
	}
}
