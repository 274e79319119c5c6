package reconcile

import (
	"context"
	"strings"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
)

// Policy selects how a matched incoming record is resolved.
type Policy string

// Resolution policies.
const (
	// PolicySkip discards a matched incoming record.
	PolicySkip Policy = "skip"

	// PolicyMerge field-merges the incoming record into exactly one
	// chosen existing match.
	PolicyMerge Policy = "merge"

	// PolicyOverwrite replaces exactly one chosen existing match with
	// the incoming record's values, with no field-level combination.
	PolicyOverwrite Policy = "overwrite"

	// PolicyCreateAnyway creates the incoming record despite the
	// match; the caller explicitly opts out of deduplication.
	PolicyCreateAnyway Policy = "create"

	// PolicyConsolidate combines all existing matches with the
	// incoming record into one record in the target location and
	// deletes every match.
	PolicyConsolidate Policy = "consolidate"

	// PolicyAsk defers the policy decision per duplicate group to the
	// configured Chooser.
	PolicyAsk Policy = "ask"
)

// String returns the string representation of a Policy.
func (p Policy) String() string {
	return string(p)
}

// ParsePolicy parses a policy selector value.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySkip:
		return PolicySkip, nil
	case PolicyMerge:
		return PolicyMerge, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyCreateAnyway:
		return PolicyCreateAnyway, nil
	case PolicyConsolidate:
		return PolicyConsolidate, nil
	case PolicyAsk:
		return PolicyAsk, nil
	}
	return "", errors.NewConfigError("policy", "unknown resolution policy "+s, nil)
}

// Group is one incoming record plus all existing records sharing its
// match key. Each existing entry carries its own provenance.
type Group struct {
	Incoming *contacts.Record
	Existing []*contacts.Record
	Key      string
}

// DisambiguationRequest is yielded back to the caller when a decision
// needs a human (or host-supplied) choice. The core performs no I/O
// itself; the host answers and the resolver resumes.
type DisambiguationRequest struct {
	// Group is the duplicate group awaiting a decision.
	Group *Group

	// Policy is the configured policy; PolicyAsk when the whole
	// decision is deferred.
	Policy Policy

	// NeedsSelection is true when the policy is fixed but more than
	// one existing match exists and one must be picked.
	NeedsSelection bool
}

// Choice answers a DisambiguationRequest.
type Choice struct {
	// Policy is the resolution to apply. Ignored unless the request's
	// policy was PolicyAsk.
	Policy Policy

	// Selected is the chosen existing match, required for Merge and
	// Overwrite when the group holds more than one.
	Selected *contacts.Record
}

// Chooser supplies answers to DisambiguationRequests.
type Chooser interface {
	Choose(ctx context.Context, req *DisambiguationRequest) (*Choice, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ctx context.Context, req *DisambiguationRequest) (*Choice, error)

// Choose implements Chooser.
func (f ChooserFunc) Choose(ctx context.Context, req *DisambiguationRequest) (*Choice, error) {
	return f(ctx, req)
}

// Resolver applies the resolution policy to incoming records, one at
// a time. Each record's resolution is independent of every other
// record's.
type Resolver struct {
	index   *Index
	policy  Policy
	chooser Chooser
	target  string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver) error

// WithPolicy sets the resolution policy for matched records.
func WithPolicy(policy Policy) ResolverOption {
	return func(r *Resolver) error {
		if _, err := ParsePolicy(string(policy)); err != nil {
			return err
		}
		r.policy = policy
		return nil
	}
}

// WithChooser sets the disambiguation chooser.
func WithChooser(chooser Chooser) ResolverOption {
	return func(r *Resolver) error {
		r.chooser = chooser
		return nil
	}
}

// WithTargetLocation sets the location new and consolidated records
// are created in.
func WithTargetLocation(locationID string) ResolverOption {
	return func(r *Resolver) error {
		r.target = locationID
		return nil
	}
}

// NewResolver creates a Resolver over the given index. The default
// policy is PolicySkip: with no explicit configuration nothing is ever
// merged or deleted.
func NewResolver(index *Index, opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		index:  index,
		policy: PolicySkip,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve computes the plan for one incoming record.
//
// No match (including an incoming record with no usable match key)
// yields a create plan. On a match the policy decides; Merge and
// Overwrite over a group with more than one existing match require an
// explicit selection via the Chooser; the resolver never silently
// picks one. Without a chooser such a group returns an AmbiguityError.
func (r *Resolver) Resolve(ctx context.Context, incoming *contacts.Record) (*Plan, error) {
	matches, key, ok := r.index.Lookup(incoming)
	if !ok || len(matches) == 0 {
		return NewCreatePlan(incoming, r.target), nil
	}

	group := &Group{Incoming: incoming, Existing: matches, Key: key}

	policy := r.policy
	var selected *contacts.Record

	if policy == PolicyAsk {
		choice, err := r.choose(ctx, &DisambiguationRequest{Group: group, Policy: PolicyAsk})
		if err != nil {
			return nil, err
		}
		policy = choice.Policy
		selected = choice.Selected
	}

	switch policy {
	case PolicySkip:
		return NewSkipPlan(incoming), nil

	case PolicyCreateAnyway:
		return NewCreatePlan(incoming, r.target), nil

	case PolicyMerge, PolicyOverwrite:
		if selected == nil && len(matches) == 1 {
			selected = matches[0]
		}
		if selected == nil {
			choice, err := r.choose(ctx, &DisambiguationRequest{Group: group, Policy: policy, NeedsSelection: true})
			if err != nil {
				return nil, err
			}
			selected = choice.Selected
		}
		if selected == nil {
			return nil, errors.NewAmbiguityError(incoming.DisplayName, key, len(matches))
		}
		return NewUpdatePlan(incoming, selected, policy == PolicyOverwrite), nil

	case PolicyConsolidate:
		return NewConsolidatePlan(incoming, matches, r.target), nil
	}

	return nil, errors.NewConfigError("policy", "unknown resolution policy "+string(policy), nil)
}

// choose consults the chooser, mapping its absence to an
// AmbiguityError: ambiguity is a decision point, never a default.
func (r *Resolver) choose(ctx context.Context, req *DisambiguationRequest) (*Choice, error) {
	if r.chooser == nil {
		return nil, errors.NewAmbiguityError(req.Group.Incoming.DisplayName, req.Group.Key, len(req.Group.Existing))
	}
	choice, err := r.chooser.Choose(ctx, req)
	if err != nil {
		return nil, err
	}
	if choice == nil {
		return nil, errors.NewAmbiguityError(req.Group.Incoming.DisplayName, req.Group.Key, len(req.Group.Existing))
	}
	return choice, nil
}
