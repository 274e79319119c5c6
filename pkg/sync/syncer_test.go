package sync_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsync/cardsync/internal/sources"
	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/directory"
	"github.com/cardsync/cardsync/pkg/reconcile"
	"github.com/cardsync/cardsync/pkg/sync"
	"github.com/cardsync/cardsync/pkg/vcard"
)

func parseCard(t *testing.T, text string) *contacts.Record {
	t.Helper()
	cards, err := vcard.NewDecoder(strings.NewReader(text)).Decode()
	require.NoError(t, err)
	require.Len(t, cards, 1)
	rec, _, err := contacts.FromCard(cards[0])
	require.NoError(t, err)
	return rec
}

func seedRecord(t *testing.T, mem *directory.Memory, location string, rec *contacts.Record) {
	t.Helper()
	ctx := context.Background()
	locID, err := mem.EnsureLocation(ctx, location)
	require.NoError(t, err)
	_, err = mem.CreateRecord(ctx, locID, rec)
	require.NoError(t, err)
}

func locationRecords(t *testing.T, mem *directory.Memory, location string) []*contacts.Record {
	t.Helper()
	ctx := context.Background()
	locID, err := mem.EnsureLocation(ctx, location)
	require.NoError(t, err)
	records, err := mem.ListRecords(ctx, locID)
	require.NoError(t, err)
	return records
}

func TestRunConsolidatesAcrossLocations(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	org1 := contacts.New()
	org1.DisplayName = "Jane Doe"
	org1.AddEmail("jane@example.com", contacts.EmailWork, false)
	org1.Notes = "met at conference"
	seedRecord(t, mem, "Org1", org1)

	vendors := contacts.New()
	vendors.DisplayName = "Jane Doe"
	vendors.AddEmail("JANE@example.com", contacts.EmailWork, false)
	vendors.BusinessPhones = []string{"555-0100"}
	seedRecord(t, mem, "Vendors", vendors)

	incoming := parseCard(t, "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Jane Doe\r\nEMAIL:jane@example.com\r\nEND:VCARD\r\n")

	syncer, err := sync.NewSyncer(mem, "Clients", sync.WithPolicy(reconcile.PolicyConsolidate))
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{incoming}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Consolidated)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.HasFailures())

	// One consolidated record in the target, both originals deleted.
	created := locationRecords(t, mem, "Clients")
	require.Len(t, created, 1)
	assert.Equal(t, "Jane Doe", created[0].DisplayName)
	assert.Equal(t, "met at conference", created[0].Notes)
	assert.Equal(t, []string{"555-0100"}, created[0].BusinessPhones)

	assert.Empty(t, locationRecords(t, mem, "Org1"))
	assert.Empty(t, locationRecords(t, mem, "Vendors"))
	assert.Equal(t, 1, mem.Len())
}

func TestRunCreatesUnmatchedRecords(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	incoming := contacts.New()
	incoming.DisplayName = "New Person"
	incoming.AddEmail("new@example.com", contacts.EmailWork, false)

	syncer, err := sync.NewSyncer(mem, "Clients")
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{incoming}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	require.Len(t, locationRecords(t, mem, "Clients"), 1)
}

func TestRunDefaultPolicySkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	existing := contacts.New()
	existing.DisplayName = "Jane Doe"
	existing.AddEmail("jane@example.com", contacts.EmailWork, false)
	seedRecord(t, mem, "Clients", existing)

	duplicate := contacts.New()
	duplicate.DisplayName = "Jane D"
	duplicate.AddEmail("jane@example.com", contacts.EmailWork, false)

	syncer, err := sync.NewSyncer(mem, "Clients")
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{duplicate}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, mem.Len())
}

func TestRunAmbiguityFailsRecordNotBatch(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	for _, name := range []string{"Jane A", "Jane B"} {
		rec := contacts.New()
		rec.DisplayName = name
		rec.AddEmail("jane@example.com", contacts.EmailWork, false)
		seedRecord(t, mem, "Clients", rec)
	}

	ambiguous := contacts.New()
	ambiguous.DisplayName = "Jane Doe"
	ambiguous.AddEmail("jane@example.com", contacts.EmailWork, false)

	fresh := contacts.New()
	fresh.DisplayName = "New Person"
	fresh.AddEmail("new@example.com", contacts.EmailWork, false)

	syncer, err := sync.NewSyncer(mem, "Clients", sync.WithPolicy(reconcile.PolicyMerge))
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{ambiguous, fresh}})
	require.NoError(t, err)

	// The ambiguous record fails, the batch continues.
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)
	assert.True(t, summary.HasFailures())
}

func TestRunCountsUnmatchableExisting(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	keyless := contacts.New()
	keyless.DisplayName = "No Email"
	seedRecord(t, mem, "Clients", keyless)

	syncer, err := sync.NewSyncer(mem, "Clients")
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unmatchable)
	assert.Contains(t, summary.String(), "no match key")
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	existing := contacts.New()
	existing.DisplayName = "Jane Doe"
	existing.AddEmail("jane@example.com", contacts.EmailWork, false)
	seedRecord(t, mem, "Org1", existing)

	incoming := contacts.New()
	incoming.DisplayName = "Jane Doe"
	incoming.AddEmail("jane@example.com", contacts.EmailWork, false)

	syncer, err := sync.NewSyncer(mem, "Clients",
		sync.WithPolicy(reconcile.PolicyConsolidate),
		sync.WithDryRun(true))
	require.NoError(t, err)

	summary, err := syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{incoming}})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Consolidated)
	assert.Equal(t, 1, mem.Len(), "dry run must not create or delete records")
	assert.Empty(t, locationRecords(t, mem, "Clients"))
	assert.Contains(t, summary.String(), "dry run")
}

func TestRunCanceledBetweenRecords(t *testing.T) {
	mem := directory.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := contacts.New()
	rec.DisplayName = "Jane Doe"
	rec.AddEmail("jane@example.com", contacts.EmailWork, false)

	syncer, err := sync.NewSyncer(mem, "Clients")
	require.NoError(t, err)

	_, err = syncer.Run(ctx, &sources.Batch{Records: []*contacts.Record{rec}})
	require.Error(t, err)
}

func TestRunCarriesBatchWarningsAndSkips(t *testing.T) {
	ctx := context.Background()
	mem := directory.NewMemory()

	syncer, err := sync.NewSyncer(mem, "Clients")
	require.NoError(t, err)

	batch := &sources.Batch{
		Warnings: []string{"John Smith: no phone number"},
		Skipped:  []error{assert.AnError},
	}
	summary, err := syncer.Run(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Excluded)
	assert.Contains(t, summary.Report(), "John Smith: no phone number")
}
