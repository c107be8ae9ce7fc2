package files

import (
	"errors"
	"time"
)

// File statuses.
const (
	FileActive    = "active"
	FileCompleted = "completed"
	FileCancelled = "cancelled"
)

// Package errors.
var (
	// ErrNotFound indicates the property file does not exist.
	ErrNotFound = errors.New("files: file not found")
	// ErrDuplicateNumber indicates the file number is already taken.
	ErrDuplicateNumber = errors.New("files: file number already in use")
	// ErrPlanExists indicates the file already has an installment plan.
	ErrPlanExists = errors.New("files: installment plan already generated")
	// ErrInvalidPlan indicates unusable plan parameters.
	ErrInvalidPlan = errors.New("files: invalid plan parameters")
	// ErrInvalidInput marks validation failures on file writes.
	ErrInvalidInput = errors.New("files: invalid input")
)

// PropertyFile binds a client to a plot or property and carries the
// price against which the installment plan is generated.
type PropertyFile struct {
	ID          int64      `json:"id"`
	FileNumber  string     `json:"file_number"`
	ClientID    int64      `json:"client_id"`
	PlotID      *int64     `json:"plot_id,omitempty"`
	PropertyID  *int64     `json:"property_id,omitempty"`
	DealerID    *int64     `json:"dealer_id,omitempty"`
	TotalPrice  float64    `json:"total_price"`
	DownPayment float64    `json:"down_payment"`
	Status      string     `json:"status"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// PlanInput describes the installment plan to generate for a file.
type PlanInput struct {
	Installments int
	FirstDueDate time.Time
}

// PlanLine is one generated installment before persistence.
type PlanLine struct {
	Number    int
	DueDate   time.Time
	AmountDue float64
}

// ListFilters represents standard list page filters. OwnerID restricts
// results to files created by or assigned to that user.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	ClientID *int64
	OwnerID  *int64
}
