// Package sources defines the input abstraction the importer reads
// contact records through. A Source turns one input file into a batch
// of canonical records plus the per-record warnings and skips
// accumulated along the way; downstream code never sees a
// source-specific representation.
package sources

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
)

// ID identifies a source implementation.
type ID string

// Source IDs.
const (
	VCardFileID ID = "vcard-file"
	CSVFileID   ID = "csv-file"
)

// Batch is the output of reading one input file. Skipped entries and
// warnings never abort a read; they ride along for the batch summary.
type Batch struct {
	// Records are the canonical records, in input order.
	Records []*contacts.Record

	// Warnings are per-record validation warnings, e.g. a contact
	// with no phone number.
	Warnings []string

	// Skipped are the malformed or unusable entries dropped during
	// the read, one error each.
	Skipped []error
}

// Source reads contact records from one input.
type Source interface {
	// ID returns the source's identifier.
	ID() ID

	// Read parses the input into a batch. Malformed entries are
	// skipped and reported inside the batch; Read fails only when the
	// input as a whole is unreadable.
	Read(ctx context.Context) (*Batch, error)
}

// ForFile picks a source implementation by file extension. Delimited
// files require a mapping table path; card files ignore it.
func ForFile(path, mappingPath string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vcf", ".vcard":
		return NewVCardFile(path), nil
	case ".csv":
		if mappingPath == "" {
			return nil, errors.NewConfigError("sources", "delimited input requires a column mapping file", nil)
		}
		return NewCSVFile(path, mappingPath), nil
	}
	return nil, errors.NewConfigError("sources", "unsupported input file type "+filepath.Ext(path), nil)
}
