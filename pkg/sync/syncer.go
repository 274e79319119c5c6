// Package sync orchestrates one reconciliation batch: fetch the
// existing records, build the match index, resolve each incoming
// record against it, and execute the resulting plans. The core stays
// pure; all directory traffic happens here and in the executor.
package sync

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/cardsync/cardsync/internal/sources"
	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/directory"
	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
	"github.com/cardsync/cardsync/pkg/reconcile"
)

// Syncer runs reconciliation batches against a directory.
type Syncer struct {
	client   directory.Client
	target   string
	policy   reconcile.Policy
	chooser  reconcile.Chooser
	strategy reconcile.KeyStrategy
	dryRun   bool
}

// Option configures a Syncer.
type Option func(*Syncer) error

// WithPolicy sets the duplicate-resolution policy.
func WithPolicy(policy reconcile.Policy) Option {
	return func(s *Syncer) error {
		if _, err := reconcile.ParsePolicy(string(policy)); err != nil {
			return err
		}
		s.policy = policy
		return nil
	}
}

// WithChooser sets the disambiguation chooser consulted when a policy
// requires an explicit selection.
func WithChooser(chooser reconcile.Chooser) Option {
	return func(s *Syncer) error {
		s.chooser = chooser
		return nil
	}
}

// WithKeyStrategy replaces the default first-email match key.
func WithKeyStrategy(strategy reconcile.KeyStrategy) Option {
	return func(s *Syncer) error {
		s.strategy = strategy
		return nil
	}
}

// WithDryRun computes and reports plans without executing them.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) error {
		s.dryRun = dryRun
		return nil
	}
}

// NewSyncer creates a Syncer importing into the location named target.
func NewSyncer(client directory.Client, target string, opts ...Option) (*Syncer, error) {
	if target == "" {
		return nil, errors.NewConfigError("sync", "target location is required", nil)
	}
	s := &Syncer{
		client: client,
		target: target,
		policy: reconcile.PolicySkip,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run reconciles one batch and returns its structured summary.
//
// Each incoming record resolves independently; a per-record failure is
// recorded and the batch continues. Run fails outright only when the
// directory snapshot cannot be fetched at all or the context is
// canceled. Cancellation is checked between records, never mid-record,
// so the create-then-delete sequence of a plan is never torn.
func (s *Syncer) Run(ctx context.Context, batch *sources.Batch) (*reconcile.Summary, error) {
	summary := &reconcile.Summary{
		StartedAt: utc.Now(),
		DryRun:    s.dryRun,
		Warnings:  batch.Warnings,
	}
	for _, skip := range batch.Skipped {
		summary.AddExcluded("", skip)
	}

	log := logging.Ctx(ctx)

	targetID, err := s.client.EnsureLocation(ctx, s.target)
	if err != nil {
		return nil, err
	}

	existing, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("existing", len(existing)).
		Int("incoming", len(batch.Records)).
		Str("target", s.target).
		Msg("starting reconciliation")

	index := reconcile.NewIndex(existing, s.strategy)
	summary.Unmatchable = len(index.Unmatchable())

	resolver, err := reconcile.NewResolver(index,
		reconcile.WithPolicy(s.policy),
		reconcile.WithChooser(s.chooser),
		reconcile.WithTargetLocation(targetID),
	)
	if err != nil {
		return nil, err
	}
	executor := directory.NewExecutor(s.client, directory.WithDryRun(s.dryRun))

	for _, record := range batch.Records {
		if ctx.Err() != nil {
			summary.FinishedAt = utc.Now()
			return summary, errors.ErrCanceled
		}

		plan, err := resolver.Resolve(ctx, record)
		if err != nil {
			summary.Add(reconcile.Outcome{
				DisplayName: record.DisplayName,
				Errors:      []error{err},
			})
			continue
		}
		summary.Add(executor.Execute(ctx, plan))
	}

	summary.FinishedAt = utc.Now()
	return summary, nil
}

// snapshot fetches every record from every location. The index is
// built over this immutable snapshot; nothing downstream talks to the
// directory during resolution.
func (s *Syncer) snapshot(ctx context.Context) ([]*contacts.Record, error) {
	locations, err := s.client.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	var existing []*contacts.Record
	for _, loc := range locations {
		records, err := s.client.ListRecords(ctx, loc.ID)
		if err != nil {
			return nil, err
		}
		existing = append(existing, records...)
	}
	return existing, nil
}
