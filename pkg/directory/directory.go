// Package directory defines the directory service the pipeline runs
// against: listing locations and records, creating and deleting
// records, and idempotent location lookup. Implementations include the
// HTTP client in internal/directory/remote and the in-process Memory
// backend used by tests and dry runs.
package directory

import (
	"context"

	"github.com/cardsync/cardsync/pkg/contacts"
)

// Location is a named partition of the directory's record space.
type Location struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"display_name"`
}

// Client is the directory collaborator consumed by the pipeline.
//
// Implementations follow continuation tokens themselves: ListRecords
// returns the complete record set for a location, however many pages
// the backend serves it in. Records returned by ListRecords carry
// their provenance (location and external IDs).
type Client interface {
	// ListLocations returns every storage location.
	ListLocations(ctx context.Context) ([]Location, error)

	// ListRecords returns every record in the given location.
	ListRecords(ctx context.Context, locationID string) ([]*contacts.Record, error)

	// CreateRecord stores a new record in the given location and
	// returns its external ID.
	CreateRecord(ctx context.Context, locationID string, record *contacts.Record) (string, error)

	// DeleteRecord removes the record with the given external ID.
	DeleteRecord(ctx context.Context, externalID string) error

	// EnsureLocation returns the ID of the location with the given
	// display name, creating it if it does not exist.
	EnsureLocation(ctx context.Context, displayName string) (string, error)
}
