package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/reconcile"
)

// existing returns a record as read back from the directory.
func existing(name, email, locationID, externalID string) *contacts.Record {
	rec := contacts.New()
	rec.DisplayName = name
	rec.AddEmail(email, contacts.EmailOther, false)
	rec.Provenance = &contacts.Provenance{
		LocationID:   locationID,
		LocationName: locationID,
		ExternalID:   externalID,
	}
	return rec
}

// incoming returns a freshly parsed record without provenance.
func incoming(name, email string) *contacts.Record {
	rec := contacts.New()
	rec.DisplayName = name
	rec.AddEmail(email, contacts.EmailOther, false)
	return rec
}

func TestIndexLookupCaseInsensitive(t *testing.T) {
	ix := reconcile.NewIndex([]*contacts.Record{
		existing("Jane", "Jane@Example.COM", "loc1", "e1"),
	}, nil)

	matches, key, ok := ix.Lookup(incoming("Jane", "jane@example.com"))
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", key)
	require.Len(t, matches, 1)
	assert.Equal(t, "Jane", matches[0].DisplayName)
}

func TestIndexPreservesAllDuplicates(t *testing.T) {
	ix := reconcile.NewIndex([]*contacts.Record{
		existing("Jane A", "jane@example.com", "loc1", "e1"),
		existing("Jane B", "jane@example.com", "loc2", "e2"),
		existing("Jane C", "jane@example.com", "loc3", "e3"),
	}, nil)

	matches, _, ok := ix.Lookup(incoming("Jane", "jane@example.com"))
	require.True(t, ok)
	assert.Len(t, matches, 3, "all records sharing a key must be preserved")
	assert.Equal(t, 1, ix.Len())
}

func TestBlankFirstEmailExcludedFromIndex(t *testing.T) {
	// A blank first email excludes the record even when a second,
	// valid address exists: only the first email participates in
	// default matching.
	rec := contacts.New()
	rec.DisplayName = "No Key"
	rec.Emails = []contacts.EmailAddress{
		{Address: "   ", Kind: contacts.EmailOther},
		{Address: "valid@example.com", Kind: contacts.EmailOther},
	}
	rec.Provenance = &contacts.Provenance{LocationID: "loc1", ExternalID: "e1"}

	ix := reconcile.NewIndex([]*contacts.Record{rec}, nil)
	assert.Equal(t, 0, ix.Len())
	require.Len(t, ix.Unmatchable(), 1)
	assert.Equal(t, "No Key", ix.Unmatchable()[0].DisplayName)

	matches, _, ok := ix.Lookup(incoming("Probe", "valid@example.com"))
	require.True(t, ok)
	assert.Empty(t, matches)
}

func TestNoEmailRecordExcluded(t *testing.T) {
	rec := contacts.New()
	rec.DisplayName = "Phone Only"
	rec.BusinessPhones = []string{"555-1234"}

	ix := reconcile.NewIndex([]*contacts.Record{rec}, nil)
	assert.Equal(t, 0, ix.Len())
	assert.Len(t, ix.Unmatchable(), 1)
}

func TestIncomingWithoutKeyProducesNoMatch(t *testing.T) {
	ix := reconcile.NewIndex([]*contacts.Record{
		existing("Jane", "jane@example.com", "loc1", "e1"),
	}, nil)

	rec := contacts.New()
	rec.DisplayName = "Keyless"
	_, _, ok := ix.Lookup(rec)
	assert.False(t, ok)
}
