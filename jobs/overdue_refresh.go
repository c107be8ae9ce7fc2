package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/estatedesk/estatedesk/internal/ledger"
)

// OverdueRefreshJob recomputes the cached status of unpaid installments
// whose due date has passed. Scheduled nightly; safe to run at any time
// because the status cache is derived, never authoritative.
type OverdueRefreshJob struct {
	Ledger *ledger.Service
	Logger *slog.Logger
	clock  func() time.Time
}

// NewOverdueRefreshJob wires dependencies for the refresh handler.
func NewOverdueRefreshJob(ledgerSvc *ledger.Service, logger *slog.Logger) *OverdueRefreshJob {
	return &OverdueRefreshJob{
		Ledger: ledgerSvc,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskLedgerOverdueRefresh tasks.
func (j *OverdueRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("overdue refresh: handler not configured")
	}
	var payload OverdueRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	asOf := j.clock()
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	updated, err := j.Ledger.RefreshOverdue(ctx, asOf)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("overdue refresh", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("overdue refresh completed",
			slog.Time("as_of", asOf),
			slog.Int64("installments_updated", updated))
	}
	return nil
}
