// Package api exposes the audit engine over a minimal JSON HTTP surface:
// result ingestion for scanner wrappers, review resolution for the
// dashboard, and read views over history and the queue.
package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnDHoinville/vpat-report-sub005/internal/evidence"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/store"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/workflow"
)

// Engine is the slice of the workflow coordinator the handlers need.
type Engine interface {
	ProcessAutomatedResult(ctx context.Context, testRecordID string, raw *evidence.RawResult, criterion string) (*workflow.AutomatedOutcome, error)
	ProcessManualReview(ctx context.Context, queueItemID string, decision *workflow.Decision) (*workflow.ReviewOutcome, error)
}

// Reader is the read-side store access the handlers need.
type Reader interface {
	ListAuditEntries(ctx context.Context, testRecordID string) ([]store.AuditLogEntry, error)
	ListQueueItems(ctx context.Context, params store.ListQueueParams) ([]store.ReviewQueueItem, int, error)
}

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Engine Engine
	Reader Reader
	Logger *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Ingestion and review resolution
	mux.HandleFunc("POST /api/audit/records/{record_id}/results", deps.handleIngestResult)
	mux.HandleFunc("POST /api/audit/reviews/{item_id}", deps.handleResolveReview)

	// Read views
	mux.HandleFunc("GET /api/audit/records/{record_id}/history", deps.handleListHistory)
	mux.HandleFunc("GET /api/audit/queue", deps.handleListQueue)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
