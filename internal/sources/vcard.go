package sources

import (
	"context"
	"os"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
	"github.com/cardsync/cardsync/pkg/vcard"
)

// VCardFile reads canonical records from a vCard file. Both the 2.1
// and 3.0/4.0 dialects are accepted; a malformed card is skipped
// without affecting its siblings.
type VCardFile struct {
	path string
}

// NewVCardFile creates a source for the card file at path.
func NewVCardFile(path string) *VCardFile {
	return &VCardFile{path: path}
}

// ID implements Source.
func (s *VCardFile) ID() ID {
	return VCardFileID
}

// Read implements Source.
func (s *VCardFile) Read(ctx context.Context) (*Batch, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	dec := vcard.NewDecoder(f, vcard.WithFilename(s.path))
	cards, err := dec.Decode()
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	batch := &Batch{Skipped: dec.Skipped()}
	for _, skip := range batch.Skipped {
		log.Warn().Err(skip).Str("file", s.path).Msg("skipping malformed card")
	}

	for _, card := range cards {
		rec, warnings, err := contacts.FromCard(card)
		if err != nil {
			log.Warn().Err(err).Str("file", s.path).Msg("skipping unusable card")
			batch.Skipped = append(batch.Skipped, err)
			continue
		}
		batch.Records = append(batch.Records, rec)
		batch.Warnings = append(batch.Warnings, warnings...)
	}
	return batch, nil
}
