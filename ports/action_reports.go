package ports

import (
	"context"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

// Result is the structured outcome surfaced to the dashboard.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	// Err keeps the typed cause for in-process callers.
	Err error `json:"-"`
}

// Ok builds a successful result.
func Ok(id string) Result { return Result{Success: true, ID: id} }

// Failed builds a failed result from an error.
func Failed(err error) Result {
	if err == nil {
		return Result{Success: false}
	}
	return Result{Success: false, Error: err.Error(), Err: err}
}

// ActionReportStore is the narrow CRUD surface over the canonical
// action-report location. monthKey is empty for individual documents.
type ActionReportStore interface {
	Create(ctx context.Context, record report.CanonicalRecord, actor string) Result
	Update(ctx context.Context, id, monthKey string, patch report.Patch, actor string) Result
	Delete(ctx context.Context, id, monthKey string, actor string) Result
}
