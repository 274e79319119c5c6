package reconcile

import (
	"github.com/cardsync/cardsync/pkg/contacts"
)

// Action classifies what a plan does.
type Action string

// Plan actions.
const (
	ActionSkip           Action = "skip"
	ActionCreateNew      Action = "create-new"
	ActionUpdateOne      Action = "update-one"
	ActionConsolidateAll Action = "consolidate-all"
)

// String returns the string representation of an Action.
func (a Action) String() string {
	return string(a)
}

// Plan is the set of directory operations realizing one resolution
// decision. The executor performs the create first and the deletions
// after, never the reverse: a failed deletion must leave the created
// record (and its already-merged data) intact.
type Plan struct {
	// Action classifies the plan.
	Action Action

	// Incoming is the record the plan was computed for.
	Incoming *contacts.Record

	// Record is the record to create; nil for Skip. For UpdateOne it
	// is the merged record replacing the matched one, for
	// ConsolidateAll the consolidated record.
	Record *contacts.Record

	// TargetLocationID is where Record is created.
	TargetLocationID string

	// Deletions lists the existing records the plan removes. Only
	// ConsolidateAll can carry more than one.
	Deletions []contacts.Provenance
}

// NewSkipPlan discards the incoming record; no directory operation.
func NewSkipPlan(incoming *contacts.Record) *Plan {
	return &Plan{Action: ActionSkip, Incoming: incoming}
}

// NewCreatePlan creates the incoming record as-is in the target
// location.
func NewCreatePlan(incoming *contacts.Record, targetLocationID string) *Plan {
	return &Plan{
		Action:           ActionCreateNew,
		Incoming:         incoming,
		Record:           incoming.Clone(),
		TargetLocationID: targetLocationID,
	}
}

// NewUpdatePlan replaces one chosen existing match. With overwrite the
// replacement is entirely the incoming record's values; otherwise it
// is the field-level merge of the match (base) with the incoming
// record (donor). The replacement is created in the match's own
// location and the match deleted.
func NewUpdatePlan(incoming, chosen *contacts.Record, overwrite bool) *Plan {
	var record *contacts.Record
	if overwrite {
		record = incoming.Clone()
		record.Provenance = nil
	} else {
		record = Merge(chosen, incoming)
	}

	plan := &Plan{
		Action:   ActionUpdateOne,
		Incoming: incoming,
		Record:   record,
	}
	if chosen.Provenance != nil {
		plan.TargetLocationID = chosen.Provenance.LocationID
		plan.Deletions = []contacts.Provenance{*chosen.Provenance}
	}
	return plan
}

// NewConsolidatePlan combines the incoming record (base) with every
// existing match (donors, in order) into one record created in the
// designated target location, and schedules every match for deletion.
// A match already living in the target location is deleted and
// recreated rather than updated in place, so the final record reflects
// the full merge.
func NewConsolidatePlan(incoming *contacts.Record, existing []*contacts.Record, targetLocationID string) *Plan {
	plan := &Plan{
		Action:           ActionConsolidateAll,
		Incoming:         incoming,
		Record:           Merge(incoming, existing...),
		TargetLocationID: targetLocationID,
	}
	for _, match := range existing {
		if match.Provenance != nil {
			plan.Deletions = append(plan.Deletions, *match.Provenance)
		}
	}
	return plan
}
