package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a payment
// transaction. The installment row lock taken by
// GetInstallmentForUpdate serializes concurrent writers against the
// same installment.
type TxRepository interface {
	GetInstallmentForUpdate(ctx context.Context, id int64) (*Installment, error)
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	UpdateInstallmentProgress(ctx context.Context, id int64, amountPaid float64, status InstallmentStatus) error
}

// WithTx wraps fn in a RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetInstallment retrieves an installment by ID.
func (r *Repository) GetInstallment(ctx context.Context, id int64) (*Installment, error) {
	return scanInstallment(r.pool.QueryRow(ctx, `
		SELECT id, file_id, number, due_date, amount_due, amount_paid, status, created_at, updated_at
		FROM installments WHERE id = $1`, id))
}

// ListInstallmentsByFile returns a file's installments in sequence order.
func (r *Repository) ListInstallmentsByFile(ctx context.Context, fileID int64) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, file_id, number, due_date, amount_due, amount_paid, status, created_at, updated_at
		FROM installments WHERE file_id = $1 ORDER BY number`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var installments []Installment
	for rows.Next() {
		var inst Installment
		if err := rows.Scan(&inst.ID, &inst.FileID, &inst.Number, &inst.DueDate, &inst.AmountDue, &inst.AmountPaid, &inst.Status, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

// ListPaymentsByInstallment returns the payments applied against an
// installment in receipt order.
func (r *Repository) ListPaymentsByInstallment(ctx context.Context, installmentID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, installment_id, receipt_number, amount, method, paid_at, recorded_by, created_at
		FROM payments WHERE installment_id = $1 ORDER BY id`, installmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var pay Payment
		if err := rows.Scan(&pay.ID, &pay.InstallmentID, &pay.ReceiptNumber, &pay.Amount, &pay.Method, &pay.PaidAt, &pay.RecordedBy, &pay.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, pay)
	}
	return payments, rows.Err()
}

// GetPaymentByReceipt looks a payment up by its receipt number.
func (r *Repository) GetPaymentByReceipt(ctx context.Context, receipt string) (*Payment, error) {
	var pay Payment
	err := r.pool.QueryRow(ctx, `
		SELECT id, installment_id, receipt_number, amount, method, paid_at, recorded_by, created_at
		FROM payments WHERE receipt_number = $1`, receipt).
		Scan(&pay.ID, &pay.InstallmentID, &pay.ReceiptNumber, &pay.Amount, &pay.Method, &pay.PaidAt, &pay.RecordedBy, &pay.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pay, nil
}

// SumPayments aggregates directly over the payments ledger. Totals are
// never maintained as running counters, so they cannot drift.
func (r *Repository) SumPayments(ctx context.Context, scope TotalsScope) (CollectionTotals, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM payments WHERE paid_at >= $1 AND paid_at < $2`
	args := []any{scope.Range.From, scope.Range.To}
	if scope.RecordedBy != 0 {
		query += ` AND recorded_by = $3`
		args = append(args, scope.RecordedBy)
	}
	var totals CollectionTotals
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&totals.TotalAmount, &totals.TransactionCount); err != nil {
		return CollectionTotals{}, err
	}
	return totals, nil
}

// CountByStatus returns how many installments hold each cached status.
func (r *Repository) CountByStatus(ctx context.Context) (map[InstallmentStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM installments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[InstallmentStatus]int)
	for rows.Next() {
		var status InstallmentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// RefreshOverdue flips pending installments past their due date to
// overdue and returns the number of rows touched.
func (r *Repository) RefreshOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE installments
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'pending' AND due_date < $1::date`, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) GetInstallmentForUpdate(ctx context.Context, id int64) (*Installment, error) {
	return scanInstallment(t.tx.QueryRow(ctx, `
		SELECT id, file_id, number, due_date, amount_due, amount_paid, status, created_at, updated_at
		FROM installments WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO payments (installment_id, receipt_number, amount, method, paid_at, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		payment.InstallmentID, payment.ReceiptNumber, payment.Amount, payment.Method, payment.PaidAt, payment.RecordedBy).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateInstallmentProgress(ctx context.Context, id int64, amountPaid float64, status InstallmentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE installments SET amount_paid = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		amountPaid, status, id)
	return err
}

func scanInstallment(row pgx.Row) (*Installment, error) {
	var inst Installment
	err := row.Scan(&inst.ID, &inst.FileID, &inst.Number, &inst.DueDate, &inst.AmountDue, &inst.AmountPaid, &inst.Status, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}
