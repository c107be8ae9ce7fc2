package ledger

import (
	"errors"
	"time"
)

// InstallmentStatus enumerates installment states.
type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "pending"
	StatusPaid    InstallmentStatus = "paid"
	StatusOverdue InstallmentStatus = "overdue"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodOnline       PaymentMethod = "online"
)

// Valid reports whether the method is one of the accepted channels.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodOnline:
		return true
	}
	return false
}

// Ledger errors.
var (
	// ErrNotFound indicates the installment does not exist.
	ErrNotFound = errors.New("ledger: installment not found")
	// ErrOverpayment indicates the payment would exceed the amount due.
	ErrOverpayment = errors.New("ledger: payment exceeds amount due")
	// ErrAlreadySettled indicates the installment is fully paid.
	ErrAlreadySettled = errors.New("ledger: installment already settled")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInvalidMethod indicates an unknown payment method.
	ErrInvalidMethod = errors.New("ledger: invalid payment method")
)

// Installment is one scheduled due-amount within a property file's plan.
// AmountPaid and Status are caches of the payment ledger, recomputed on
// every mutating event; the payments table is the source of truth.
type Installment struct {
	ID         int64
	FileID     int64
	Number     int
	DueDate    time.Time
	AmountDue  float64
	AmountPaid float64
	Status     InstallmentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Payment is an immutable receipt of money applied against one
// installment. Payments are never edited or deleted.
type Payment struct {
	ID            int64
	InstallmentID int64
	ReceiptNumber string
	Amount        float64
	Method        PaymentMethod
	PaidAt        time.Time
	RecordedBy    int64
	CreatedAt     time.Time
}

// RecordPaymentInput carries the fields needed to record a payment.
type RecordPaymentInput struct {
	InstallmentID int64
	Amount        float64
	Method        PaymentMethod
	PaidAt        time.Time
	RecordedBy    int64
}

// DateRange is a half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// TotalsScope filters aggregate queries. RecordedBy zero means all users.
type TotalsScope struct {
	Range      DateRange
	RecordedBy int64
}

// CollectionTotals summarises payments inside a scope.
type CollectionTotals struct {
	TotalAmount      float64
	TransactionCount int
}
