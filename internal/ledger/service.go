package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInstallment(ctx context.Context, id int64) (*Installment, error)
	ListInstallmentsByFile(ctx context.Context, fileID int64) ([]Installment, error)
	ListPaymentsByInstallment(ctx context.Context, installmentID int64) ([]Payment, error)
	SumPayments(ctx context.Context, scope TotalsScope) (CollectionTotals, error)
	CountByStatus(ctx context.Context) (map[InstallmentStatus]int, error)
	RefreshOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// Service applies payments to installments and keeps the cached status
// consistent with the payment ledger.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordPayment applies a payment against an installment. The payment
// insert and the recomputed installment status commit atomically: a
// payment never exists without its status update, and vice versa.
// Concurrent calls against the same installment are serialized by the
// installment row lock, so two simultaneous payments can never jointly
// overshoot the amount due.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*Payment, error) {
	if input.Amount <= 0 || paisa(input.Amount) == 0 {
		return nil, ErrInvalidAmount
	}
	if !input.Method.Valid() {
		return nil, ErrInvalidMethod
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = s.now()
	}

	var payment *Payment
	var err error
	// One retry on a receipt number collision; the odds are negligible
	// but uniqueness is load-bearing for audit lookup.
	for attempt := 0; attempt < 2; attempt++ {
		payment, err = s.recordOnce(ctx, input, generateReceiptNumber())
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	return payment, err
}

func (s *Service) recordOnce(ctx context.Context, input RecordPaymentInput, receipt string) (*Payment, error) {
	var recorded Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inst, err := tx.GetInstallmentForUpdate(ctx, input.InstallmentID)
		if err != nil {
			return err
		}
		// Guards compare in integer paisa: a payment that settles the
		// installment exactly in decimal must not trip the overpayment
		// check on float residue.
		duePaisa, paidPaisa := paisa(inst.AmountDue), paisa(inst.AmountPaid)
		if inst.Status == StatusPaid || paidPaisa >= duePaisa {
			return ErrAlreadySettled
		}
		if paidPaisa+paisa(input.Amount) > duePaisa {
			return fmt.Errorf("%w: due %.2f, already paid %.2f, offered %.2f",
				ErrOverpayment, inst.AmountDue, inst.AmountPaid, input.Amount)
		}

		recorded = Payment{
			InstallmentID: inst.ID,
			ReceiptNumber: receipt,
			Amount:        input.Amount,
			Method:        input.Method,
			PaidAt:        input.PaidAt,
			RecordedBy:    input.RecordedBy,
		}
		id, err := tx.InsertPayment(ctx, recorded)
		if err != nil {
			return err
		}
		recorded.ID = id

		// The cached sum is kept to exact paisa so later reads never
		// accumulate float drift across many partial payments.
		paidSum := float64(paidPaisa+paisa(input.Amount)) / 100
		status := StatusOf(inst.AmountDue, paidSum, inst.DueDate, input.PaidAt)
		return tx.UpdateInstallmentProgress(ctx, inst.ID, paidSum, status)
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// InstallmentStatus recomputes an installment's status as of a date,
// bypassing the cached column.
func (s *Service) InstallmentStatus(ctx context.Context, installmentID int64, asOf time.Time) (InstallmentStatus, error) {
	inst, err := s.repo.GetInstallment(ctx, installmentID)
	if err != nil {
		return "", err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	return StatusOf(inst.AmountDue, inst.AmountPaid, inst.DueDate, asOf), nil
}

// GetInstallment returns an installment by ID.
func (s *Service) GetInstallment(ctx context.Context, id int64) (*Installment, error) {
	return s.repo.GetInstallment(ctx, id)
}

// ListInstallments returns a file's installments in sequence order.
func (s *Service) ListInstallments(ctx context.Context, fileID int64) ([]Installment, error) {
	return s.repo.ListInstallmentsByFile(ctx, fileID)
}

// ListPayments returns the payments applied against an installment.
func (s *Service) ListPayments(ctx context.Context, installmentID int64) ([]Payment, error) {
	return s.repo.ListPaymentsByInstallment(ctx, installmentID)
}

// AggregateTotals sums payments whose paid-at date falls inside the
// scope's range, optionally filtered by recording user. Always computed
// from the payment ledger, never from a running total.
func (s *Service) AggregateTotals(ctx context.Context, scope TotalsScope) (CollectionTotals, error) {
	if scope.Range.From.IsZero() || scope.Range.To.IsZero() || !scope.Range.From.Before(scope.Range.To) {
		return CollectionTotals{}, errors.New("ledger: invalid date range")
	}
	return s.repo.SumPayments(ctx, scope)
}

// StatusCounts returns installment counts per cached status.
func (s *Service) StatusCounts(ctx context.Context) (map[InstallmentStatus]int, error) {
	return s.repo.CountByStatus(ctx)
}

// RefreshOverdue recomputes cached statuses for unpaid installments past
// their due date. Run nightly by the worker.
func (s *Service) RefreshOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return s.repo.RefreshOverdue(ctx, asOf)
}

func generateReceiptNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RCP-" + strings.ToUpper(raw[:12])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
