package directory

import (
	"context"

	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
	"github.com/cardsync/cardsync/pkg/reconcile"
)

// Executor runs reconciliation plans against a directory client.
//
// Execution order within a plan is fixed: the create always runs
// before any delete. A delete that fails after a successful create is
// reported and the created record stays: rolling back the create
// would destroy already-merged data. The surviving duplicate is left
// for the operator to remove.
type Executor struct {
	client Client
	dryRun bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithDryRun makes the executor report what each plan would do without
// calling the directory.
func WithDryRun(dryRun bool) ExecutorOption {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// NewExecutor creates an Executor over the given client.
func NewExecutor(client Client, opts ...ExecutorOption) *Executor {
	e := &Executor{client: client}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one plan and returns its outcome. Failures are
// collected into the outcome, never returned: a failed plan must not
// abort the remaining batch.
func (e *Executor) Execute(ctx context.Context, plan *reconcile.Plan) reconcile.Outcome {
	outcome := reconcile.Outcome{
		DisplayName: planDisplayName(plan),
		Action:      plan.Action,
	}

	log := logging.Ctx(ctx)

	if plan.Action == reconcile.ActionSkip {
		log.Debug().Str("record", outcome.DisplayName).Msg("skipping duplicate")
		return outcome
	}

	if e.dryRun {
		log.Info().
			Str("record", outcome.DisplayName).
			Str("action", string(plan.Action)).
			Str("location", plan.TargetLocationID).
			Int("deletions", len(plan.Deletions)).
			Msg("dry run: plan not executed")
		return outcome
	}

	externalID, err := e.client.CreateRecord(ctx, plan.TargetLocationID, plan.Record)
	if err != nil {
		opErr := errors.NewOperationError("create", outcome.DisplayName, err)
		opErr.LocationID = plan.TargetLocationID
		outcome.Errors = append(outcome.Errors, opErr)
		// Without the create the duplicates are all we have; leave
		// them untouched.
		return outcome
	}

	log.Debug().
		Str("record", outcome.DisplayName).
		Str("location", plan.TargetLocationID).
		Str("external_id", externalID).
		Msg("created record")

	for _, del := range plan.Deletions {
		if err := e.client.DeleteRecord(ctx, del.ExternalID); err != nil {
			opErr := errors.NewOperationError("delete", outcome.DisplayName, err)
			opErr.LocationID = del.LocationID
			opErr.ExternalID = del.ExternalID
			outcome.Errors = append(outcome.Errors, opErr)
			log.Warn().
				Str("record", outcome.DisplayName).
				Str("external_id", del.ExternalID).
				Err(err).
				Msg("duplicate survives: delete failed after create")
			continue
		}
		log.Debug().
			Str("record", outcome.DisplayName).
			Str("external_id", del.ExternalID).
			Msg("deleted duplicate")
	}

	return outcome
}

func planDisplayName(plan *reconcile.Plan) string {
	if plan.Record != nil && plan.Record.DisplayName != "" {
		return plan.Record.DisplayName
	}
	if plan.Incoming != nil {
		return plan.Incoming.DisplayName
	}
	return ""
}
