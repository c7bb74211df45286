// Package activity records who did what. Logging never blocks the caller
// and never fails.
package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// Event names.
const (
	EventReportsViewed     = "reports_viewed"
	EventReportsReloaded   = "reports_reloaded"
	EventDuplicatesPlanned = "duplicates_planned"
	EventDuplicatesRemoved = "duplicates_removed"
	EventReportsImported   = "reports_imported"
	EventReportUpdated     = "report_updated"
	EventReportDeleted     = "report_deleted"
)

const sinkTimeout = 5 * time.Second

// Logger writes events to the application log and, when a sink is set,
// to a document collection. Identical view events inside the dedup window
// are dropped; every other event is always recorded.
type Logger struct {
	log        *internal.Logger
	sink       ports.DocumentStore
	collection string
	recent     *cache.Cache
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewLogger creates an activity logger. sink may be nil.
func NewLogger(log *internal.Logger, sink ports.DocumentStore, collection string, dedupWindow time.Duration) *Logger {
	if log == nil {
		log = internal.NewNopLogger()
	}
	if dedupWindow <= 0 {
		dedupWindow = time.Second
	}
	return &Logger{
		log:        log,
		sink:       sink,
		collection: collection,
		recent:     cache.New(dedupWindow, 2*dedupWindow),
		now:        time.Now,
	}
}

// Log records event. It returns immediately.
func (l *Logger) Log(event string, actor ports.Actor, data map[string]any) {
	if event == EventReportsViewed {
		key := fingerprint(event, actor, data)
		if err := l.recent.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
			return
		}
	}

	l.log.Info("[Activity] %s by %s %v", event, actor.String(), data)
	if l.sink == nil {
		return
	}

	entry := map[string]any{
		"event":     event,
		"actorId":   actor.ID,
		"actorName": actor.String(),
		"actorRole": actor.Role,
		"data":      data,
		"timestamp": l.now().UTC(),
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if _, err := l.sink.BatchCreate(ctx, l.collection, []map[string]any{entry}); err != nil {
			l.log.Debug("[Activity] sink write failed: %v", err)
		}
	}()
}

// Wait blocks until pending sink writes finish.
func (l *Logger) Wait() {
	l.wg.Wait()
}

func fingerprint(event string, actor ports.Actor, data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		b = nil
	}
	return event + "\x1f" + actor.ID + "\x1f" + actor.String() + "\x1f" + string(b)
}

var _ ports.ActivityLogger = (*Logger)(nil)
