package sources

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
)

// CSVFile reads canonical records from a delimited file. The first row
// names the columns; an externally supplied YAML mapping table
// associates column names (or 1-based positions) with canonical field
// paths. The mapping is consumed here, never computed.
type CSVFile struct {
	path        string
	mappingPath string
}

// NewCSVFile creates a source for the delimited file at path using the
// mapping table at mappingPath.
func NewCSVFile(path, mappingPath string) *CSVFile {
	return &CSVFile{path: path, mappingPath: mappingPath}
}

// ID implements Source.
func (s *CSVFile) ID() ID {
	return CSVFileID
}

// Read implements Source.
func (s *CSVFile) Read(ctx context.Context) (*Batch, error) {
	mapping, err := LoadMapping(s.mappingPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Batch{}, nil
	}
	if err != nil {
		return nil, errors.WrapParse("csv", s.path, err)
	}

	log := logging.Ctx(ctx)
	batch := &Batch{}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One bad row never fails the batch.
			perr := errors.NewParseError("csv", s.path, line, err.Error())
			log.Warn().Err(perr).Msg("skipping malformed row")
			batch.Skipped = append(batch.Skipped, perr)
			continue
		}

		rec, warnings, err := contacts.FromRow(header, row, mapping)
		if err != nil {
			// A broken mapping table fails every row the same way;
			// surface it once instead of skipping the whole file.
			var cfgErr *errors.ConfigError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			log.Warn().Err(err).Str("file", s.path).Int("line", line).Msg("skipping unusable row")
			batch.Skipped = append(batch.Skipped, err)
			continue
		}
		batch.Records = append(batch.Records, rec)
		batch.Warnings = append(batch.Warnings, warnings...)
	}
	return batch, nil
}

// LoadMapping reads a YAML column-mapping table.
func LoadMapping(path string) (*contacts.FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var mapping contacts.FieldMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if len(mapping.Columns) == 0 {
		return nil, errors.NewConfigError("sources", "mapping table "+path+" defines no columns", nil)
	}
	return &mapping, nil
}
