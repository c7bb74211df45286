package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// DefaultConcurrency bounds parallel location reads.
const DefaultConcurrency = 4

// Candidate is one storage location to scan. Department is applied to
// entries that do not name their own.
type Candidate struct {
	Collection string
	Department string
}

// RawEntry is one discovered entry before normalization.
type RawEntry struct {
	Payload    map[string]any
	Provenance report.Provenance
	Department string
}

// SourceFailure records a location that could not be read.
type SourceFailure struct {
	Collection string
	Err        error
}

// Stats summarises one ingestion pass.
type Stats struct {
	Locations int
	Failed    int
	Entries   int
	Elapsed   time.Duration
}

// Ingestor reads candidate locations from a document store.
type Ingestor struct {
	store       ports.DocumentStore
	logger      *internal.Logger
	concurrency int
}

// NewIngestor creates an ingestor. concurrency <= 0 uses DefaultConcurrency.
func NewIngestor(store ports.DocumentStore, logger *internal.Logger, concurrency int) *Ingestor {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Ingestor{store: store, logger: logger, concurrency: concurrency}
}

// Ingest reads every candidate. Output is ordered by candidate, then by
// document, then by array position. A location that fails to read is
// logged and reported in the failure list; the others still contribute.
func (in *Ingestor) Ingest(ctx context.Context, candidates []Candidate) ([]RawEntry, []SourceFailure) {
	entries, failures, _ := in.IngestWithStats(ctx, candidates)
	return entries, failures
}

// IngestWithStats is Ingest plus a summary of the pass.
func (in *Ingestor) IngestWithStats(ctx context.Context, candidates []Candidate) ([]RawEntry, []SourceFailure, Stats) {
	start := time.Now()
	perLocation := make([][]RawEntry, len(candidates))
	errs := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			docs, err := in.store.GetAllDocuments(gctx, c.Collection)
			if err != nil {
				errs[i] = errors.SourceUnavailable(c.Collection, err)
				return nil
			}
			perLocation[i] = flatten(c, docs)
			return nil
		})
	}
	_ = g.Wait()

	var entries []RawEntry
	var failures []SourceFailure
	for i, c := range candidates {
		if errs[i] != nil {
			in.logger.Warn("[Ingestor] skipping %s: %v", c.Collection, errs[i])
			failures = append(failures, SourceFailure{Collection: c.Collection, Err: errs[i]})
			continue
		}
		in.logger.Debug("[Ingestor] read %d entries from %s", len(perLocation[i]), c.Collection)
		entries = append(entries, perLocation[i]...)
	}

	stats := Stats{
		Locations: len(candidates),
		Failed:    len(failures),
		Entries:   len(entries),
		Elapsed:   time.Since(start),
	}
	in.logger.Info("[Ingestor] ingested %d entries from %d locations (%d failed) in %s",
		stats.Entries, stats.Locations, stats.Failed, stats.Elapsed)
	return entries, failures, stats
}

func flatten(c Candidate, docs []ports.Document) []RawEntry {
	var out []RawEntry
	for _, doc := range docs {
		shape := Classify(doc.Data)
		if shape.SourceType() == report.SourceIndividual {
			out = append(out, RawEntry{
				Payload:    doc.Data,
				Provenance: report.NewProvenance(c.Collection, doc.ID, shape, 0),
				Department: c.Department,
			})
			continue
		}
		for idx, entry := range Entries(doc.Data, shape.ArrayField()) {
			if entry == nil {
				continue
			}
			out = append(out, RawEntry{
				Payload:    entry,
				Provenance: report.NewProvenance(c.Collection, doc.ID, shape, idx),
				Department: c.Department,
			})
		}
	}
	return out
}

// Normalize maps raw entries to canonical records. Individual documents
// are identified by their document id; array entries by their own id or,
// failing that, by position.
func Normalize(entries []RawEntry, mapper *fieldmap.Mapper) []report.CanonicalRecord {
	out := make([]report.CanonicalRecord, 0, len(entries))
	for _, e := range entries {
		rec := mapper.Map(e.Payload, e.Department)
		rec.Provenance = e.Provenance
		switch {
		case !e.Provenance.IsArray():
			rec.ID = e.Provenance.SourceDocument
		case rec.ID == "":
			rec.ID = core.PositionalID(e.Provenance.SourceDocument, e.Provenance.Index()).String()
		}
		out = append(out, rec)
	}
	return out
}
