package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
)

// Memory is an in-process Client. It backs tests and offline dry runs;
// records and locations live only for the lifetime of the process.
//
// Memory is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	locations []Location
	records   map[string]memoryRecord
}

type memoryRecord struct {
	locationID string
	record     *contacts.Record
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]memoryRecord),
	}
}

// ListLocations implements Client.
func (m *Memory) ListLocations(_ context.Context) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Location, len(m.locations))
	copy(out, m.locations)
	return out, nil
}

// ListRecords implements Client. Returned records are deep copies
// carrying their provenance; callers may mutate them freely.
func (m *Memory) ListRecords(_ context.Context, locationID string) ([]*contacts.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc, ok := m.locationByID(locationID)
	if !ok {
		return nil, fmt.Errorf("location %s: %w", locationID, errors.ErrNotFound)
	}

	var out []*contacts.Record
	for externalID, stored := range m.records {
		if stored.locationID != locationID {
			continue
		}
		rec := stored.record.Clone()
		rec.Provenance = &contacts.Provenance{
			LocationID:   loc.ID,
			LocationName: loc.DisplayName,
			ExternalID:   externalID,
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateRecord implements Client.
func (m *Memory) CreateRecord(_ context.Context, locationID string, record *contacts.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.locationByID(locationID); !ok {
		return "", fmt.Errorf("location %s: %w", locationID, errors.ErrNotFound)
	}

	externalID := uuid.NewString()
	stored := record.Clone()
	stored.Provenance = nil
	m.records[externalID] = memoryRecord{locationID: locationID, record: stored}
	return externalID, nil
}

// DeleteRecord implements Client.
func (m *Memory) DeleteRecord(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[externalID]; !ok {
		return fmt.Errorf("record %s: %w", externalID, errors.ErrNotFound)
	}
	delete(m.records, externalID)
	return nil
}

// EnsureLocation implements Client. Lookup is by exact display name.
func (m *Memory) EnsureLocation(_ context.Context, displayName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, loc := range m.locations {
		if loc.DisplayName == displayName {
			return loc.ID, nil
		}
	}
	loc := Location{ID: uuid.NewString(), DisplayName: displayName}
	m.locations = append(m.locations, loc)
	return loc.ID, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) locationByID(id string) (Location, bool) {
	for _, loc := range m.locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}
