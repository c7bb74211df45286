// Package dedup finds action reports that describe the same incident and
// removes all but the first-ingested copy from storage.
package dedup

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// Group is a set of records sharing a duplicate key. Keep is the
// first-ingested member.
type Group struct {
	Key    string                   `json:"key"`
	Keep   report.CanonicalRecord   `json:"keep"`
	Remove []report.CanonicalRecord `json:"remove"`
}

// Removals counts records marked for removal across groups.
func Removals(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Remove)
	}
	return n
}

// Plan groups records by report.DuplicateKey. Only groups with more than
// one member are returned, in order of their first member.
func Plan(records []report.CanonicalRecord) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		key := report.DuplicateKey(r)
		if i, ok := index[key]; ok {
			groups[i].Remove = append(groups[i].Remove, r)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Keep: r})
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Remove) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Deleter removes one record from its source layout.
type Deleter interface {
	Delete(ctx context.Context, rec report.CanonicalRecord, actor ports.Actor) error
}

// Confirmer approves a deletion plan before anything is removed.
type Confirmer interface {
	Confirm(ctx context.Context, groups []Group) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, groups []Group) bool

func (f ConfirmFunc) Confirm(ctx context.Context, groups []Group) bool { return f(ctx, groups) }

// Confirmed approves every plan.
var Confirmed = ConfirmFunc(func(context.Context, []Group) bool { return true })

// Outcome reports what Execute did.
type Outcome struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Removed []string `json:"removed,omitempty"`
	Errors  []error  `json:"-"`
}

// Deduplicator executes plans.
type Deduplicator struct {
	deleter Deleter
	logger  *internal.Logger
}

// New creates a deduplicator.
func New(deleter Deleter, logger *internal.Logger) *Deduplicator {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Deduplicator{deleter: deleter, logger: logger}
}

// Execute deletes every record marked for removal once confirmer agrees.
// Deletions are independent: a failure is counted and the rest continue.
// Entries of the same array are removed from the highest index down so
// earlier positions stay valid.
func (d *Deduplicator) Execute(ctx context.Context, groups []Group, confirmer Confirmer, actor ports.Actor) (Outcome, error) {
	if len(groups) == 0 {
		return Outcome{}, nil
	}
	if confirmer == nil || !confirmer.Confirm(ctx, groups) {
		return Outcome{}, core.ErrNotConfirmed
	}

	var out Outcome
	for _, rec := range deletionOrder(groups) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := d.deleter.Delete(ctx, rec, actor); err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Errorf("delete %s: %w", rec.ID, err))
			d.logger.Warn("[Dedup] duplicate %s not removed: %v", rec.ID, err)
			continue
		}
		out.Deleted++
		out.Removed = append(out.Removed, rec.ID)
	}

	d.logger.Info("[Dedup] duplicate removal: %d deleted, %d failed", out.Deleted, out.Failed)
	return out, nil
}

func deletionOrder(groups []Group) []report.CanonicalRecord {
	var recs []report.CanonicalRecord
	for _, g := range groups {
		recs = append(recs, g.Remove...)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].Provenance, recs[j].Provenance
		if a.SourceCollection != b.SourceCollection {
			return a.SourceCollection < b.SourceCollection
		}
		if a.SourceDocument != b.SourceDocument {
			return a.SourceDocument < b.SourceDocument
		}
		return a.Index() > b.Index()
	})
	return recs
}
