// Package reconcile implements the duplicate-matching and
// merge/consolidation core: a match index over the existing record
// snapshot, a per-record duplicate resolver, the field-level merger,
// and the plan and summary types the directory executor consumes.
//
// The core is pure: index construction, resolution, and plan
// computation are side-effect-free transformations over in-memory
// data. No component here reaches out to the network; callers fetch
// the existing snapshot and execute plans.
package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cardsync/cardsync/pkg/contacts"
)

// KeyStrategy derives the normalized match key used to test whether
// two records might represent the same real-world contact.
type KeyStrategy interface {
	// Name returns the strategy name for reporting.
	Name() string

	// Key returns the normalized key for a record, and false when the
	// record produces no usable key.
	Key(rec *contacts.Record) (string, bool)
}

// firstEmailStrategy is the default strategy: the lower-cased first
// email address. A record whose first email is blank produces no key,
// even if it has a second, valid address.
type firstEmailStrategy struct{}

// NewFirstEmailStrategy returns the default match key strategy.
func NewFirstEmailStrategy() KeyStrategy {
	return firstEmailStrategy{}
}

// Name returns the strategy name.
func (firstEmailStrategy) Name() string {
	return "first-email"
}

// Key derives the lower-cased first email address.
func (firstEmailStrategy) Key(rec *contacts.Record) (string, bool) {
	addr := strings.TrimSpace(rec.FirstEmail())
	if addr == "" {
		return "", false
	}
	return cases.Lower(language.Und).String(addr), true
}

// Index is the lookup from normalized match key to every existing
// record sharing that key. Duplicates already present across several
// storage locations legitimately share one key; the index preserves
// all of them.
type Index struct {
	strategy    KeyStrategy
	entries     map[string][]*contacts.Record
	unmatchable []*contacts.Record
}

// NewIndex builds an index over an already-fetched, immutable snapshot
// of existing records. Records that produce no key are retained for
// reporting via Unmatchable but are absent from the index; no
// duplicate check is possible for them.
func NewIndex(existing []*contacts.Record, strategy KeyStrategy) *Index {
	if strategy == nil {
		strategy = NewFirstEmailStrategy()
	}
	ix := &Index{
		strategy: strategy,
		entries:  make(map[string][]*contacts.Record, len(existing)),
	}
	for _, rec := range existing {
		key, ok := strategy.Key(rec)
		if !ok {
			ix.unmatchable = append(ix.unmatchable, rec)
			continue
		}
		ix.entries[key] = append(ix.entries[key], rec)
	}
	return ix
}

// Lookup returns every existing record sharing the incoming record's
// match key, using the same key derivation as index construction.
// Zero matches is the common, no-duplicate case. The second return is
// the derived key; ok is false when the incoming record itself
// produces no key.
func (ix *Index) Lookup(incoming *contacts.Record) (matches []*contacts.Record, key string, ok bool) {
	key, ok = ix.strategy.Key(incoming)
	if !ok {
		return nil, "", false
	}
	return ix.entries[key], key, true
}

// Strategy returns the key strategy the index was built with.
func (ix *Index) Strategy() KeyStrategy {
	return ix.strategy
}

// Unmatchable returns the existing records excluded from the index
// because they produce no match key.
func (ix *Index) Unmatchable() []*contacts.Record {
	return ix.unmatchable
}

// Len returns the number of distinct keys in the index.
func (ix *Index) Len() int {
	return len(ix.entries)
}
