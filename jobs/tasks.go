package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerOverdueRefresh recomputes cached installment statuses.
	TaskLedgerOverdueRefresh = "ledger:refresh_overdue"
	// TaskReceiptIssued notifies the payer after a payment is recorded.
	TaskReceiptIssued = "receipt:issued"
)

// OverdueRefreshPayload optionally pins the cutoff date for the refresh.
// An empty AsOf means "now" at execution time, which is what the nightly
// cron wants.
type OverdueRefreshPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// ReceiptIssuedPayload carries the receipt details for delivery.
type ReceiptIssuedPayload struct {
	ReceiptNumber string  `json:"receipt_number"`
	InstallmentID int64   `json:"installment_id"`
	Amount        float64 `json:"amount"`
	RecordedBy    int64   `json:"recorded_by"`
}

// NewOverdueRefreshTask constructs an Asynq task.
func NewOverdueRefreshTask(payload OverdueRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerOverdueRefresh, data), nil
}

// NewReceiptIssuedTask constructs an Asynq task.
func NewReceiptIssuedTask(payload ReceiptIssuedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptIssued, data), nil
}
