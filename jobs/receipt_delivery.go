package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ReceiptDeliveryJob handles TaskReceiptIssued tasks. No delivery
// channel is wired yet, so it logs the receipt line for ops to replay
// from the worker log.
type ReceiptDeliveryJob struct {
	Logger *slog.Logger
}

// NewReceiptDeliveryJob wires dependencies for the delivery handler.
func NewReceiptDeliveryJob(logger *slog.Logger) *ReceiptDeliveryJob {
	return &ReceiptDeliveryJob{Logger: logger}
}

// Handle processes TaskReceiptIssued tasks.
func (j *ReceiptDeliveryJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptIssuedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if j != nil && j.Logger != nil {
		j.Logger.Info("receipt issued",
			slog.String("receipt_number", payload.ReceiptNumber),
			slog.Int64("installment_id", payload.InstallmentID),
			slog.Float64("amount", payload.Amount),
			slog.Int64("recorded_by", payload.RecordedBy))
	}
	return nil
}
