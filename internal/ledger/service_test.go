package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryLedgerRepo serializes WithTx with a mutex, mirroring the row
// lock the PostgreSQL repository takes on the installment.
type memoryLedgerRepo struct {
	mu            sync.Mutex
	installments  map[int64]*Installment
	payments      map[int64][]Payment
	nextPaymentID int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		installments: make(map[int64]*Installment),
		payments:     make(map[int64][]Payment),
	}
}

func (r *memoryLedgerRepo) addInstallment(inst Installment) {
	if inst.Status == "" {
		inst.Status = StatusPending
	}
	r.installments[inst.ID] = &inst
}

type memoryTx struct {
	repo     *memoryLedgerRepo
	inserted []Payment
	progress map[int64]struct {
		paid   float64
		status InstallmentStatus
	}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{repo: r, progress: make(map[int64]struct {
		paid   float64
		status InstallmentStatus
	})}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// Commit: staged writes become visible together or not at all.
	for _, pay := range tx.inserted {
		r.payments[pay.InstallmentID] = append(r.payments[pay.InstallmentID], pay)
	}
	for id, p := range tx.progress {
		inst := r.installments[id]
		inst.AmountPaid = p.paid
		inst.Status = p.status
	}
	return nil
}

func (t *memoryTx) GetInstallmentForUpdate(ctx context.Context, id int64) (*Installment, error) {
	inst, ok := t.repo.installments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inst
	return &copied, nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	t.repo.nextPaymentID++
	payment.ID = t.repo.nextPaymentID
	payment.CreatedAt = time.Now()
	t.inserted = append(t.inserted, payment)
	return payment.ID, nil
}

func (t *memoryTx) UpdateInstallmentProgress(ctx context.Context, id int64, amountPaid float64, status InstallmentStatus) error {
	t.progress[id] = struct {
		paid   float64
		status InstallmentStatus
	}{amountPaid, status}
	return nil
}

func (r *memoryLedgerRepo) GetInstallment(ctx context.Context, id int64) (*Installment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.installments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inst
	return &copied, nil
}

func (r *memoryLedgerRepo) ListInstallmentsByFile(ctx context.Context, fileID int64) ([]Installment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Installment
	for _, inst := range r.installments {
		if inst.FileID == fileID {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListPaymentsByInstallment(ctx context.Context, installmentID int64) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payment(nil), r.payments[installmentID]...), nil
}

func (r *memoryLedgerRepo) SumPayments(ctx context.Context, scope TotalsScope) (CollectionTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var totals CollectionTotals
	for _, payments := range r.payments {
		for _, pay := range payments {
			if pay.PaidAt.Before(scope.Range.From) || !pay.PaidAt.Before(scope.Range.To) {
				continue
			}
			if scope.RecordedBy != 0 && pay.RecordedBy != scope.RecordedBy {
				continue
			}
			totals.TotalAmount += pay.Amount
			totals.TransactionCount++
		}
	}
	return totals, nil
}

func (r *memoryLedgerRepo) CountByStatus(ctx context.Context) (map[InstallmentStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[InstallmentStatus]int)
	for _, inst := range r.installments {
		counts[inst.Status]++
	}
	return counts, nil
}

func (r *memoryLedgerRepo) RefreshOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inst := range r.installments {
		if inst.Status == StatusPending && dateOnly(asOf).After(dateOnly(inst.DueDate)) {
			inst.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func futureDue() time.Time {
	return time.Now().AddDate(0, 1, 0)
}

func TestRecordPaymentPartialThenSettled(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, FileID: 1, Number: 1, AmountDue: 10000, DueDate: futureDue()})
	svc := NewService(repo)

	first, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 6000, Method: MethodCash, RecordedBy: 4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ReceiptNumber)

	inst, err := repo.GetInstallment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 6000.0, inst.AmountPaid)
	require.Equal(t, StatusPending, inst.Status)

	second, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 4000, Method: MethodBankTransfer, RecordedBy: 4,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ReceiptNumber, second.ReceiptNumber)

	inst, err = repo.GetInstallment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 10000.0, inst.AmountPaid)
	require.Equal(t, StatusPaid, inst.Status)

	// No payment may attach to a settled installment.
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 1, Method: MethodCash, RecordedBy: 4,
	})
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestRecordPaymentSettlesFractionalAmounts(t *testing.T) {
	// 0.10 and 0.20 have no exact float64 representation; their sum
	// must still settle a 0.30 installment instead of reading as an
	// overpayment.
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, FileID: 1, Number: 1, AmountDue: 0.30, DueDate: futureDue()})
	svc := NewService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 0.10, Method: MethodCash, RecordedBy: 4,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 0.20, Method: MethodCash, RecordedBy: 4,
	})
	require.NoError(t, err, "an exact decimal settlement must not be rejected as overpayment")

	inst, err := repo.GetInstallment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inst.Status)
	require.Equal(t, 0.30, inst.AmountPaid)

	// A single extra paisa on top of the settled sum is still refused.
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 0.01, Method: MethodCash, RecordedBy: 4,
	})
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestRecordPaymentRejectsSubPaisaAmount(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 5000, DueDate: futureDue()})
	svc := NewService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 0.004, Method: MethodCash, RecordedBy: 4,
	})
	require.ErrorIs(t, err, ErrInvalidAmount, "an amount that rounds to zero paisa carries no value")
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, FileID: 1, Number: 1, AmountDue: 10000, DueDate: futureDue()})
	svc := NewService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 11000, Method: MethodCash, RecordedBy: 4,
	})
	require.ErrorIs(t, err, ErrOverpayment)

	inst, err := repo.GetInstallment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, inst.AmountPaid, "rejected payment must leave paid-sum unchanged")
	require.Empty(t, repo.payments[1], "rejected payment must not be persisted")
}

func TestRecordPaymentValidation(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 5000, DueDate: futureDue()})
	svc := NewService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{InstallmentID: 1, Amount: 0, Method: MethodCash})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{InstallmentID: 1, Amount: -50, Method: MethodCash})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{InstallmentID: 1, Amount: 100, Method: "barter"})
	require.ErrorIs(t, err, ErrInvalidMethod)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{InstallmentID: 99, Amount: 100, Method: MethodCash})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOverdueInstallmentSettlesLate(t *testing.T) {
	past := time.Now().AddDate(0, -1, 0)
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 8000, DueDate: past})
	svc := NewService(repo)

	status, err := svc.InstallmentStatus(context.Background(), 1, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, status)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InstallmentID: 1, Amount: 8000, Method: MethodCheque, RecordedBy: 4,
	})
	require.NoError(t, err)

	status, err = svc.InstallmentStatus(context.Background(), 1, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusPaid, status, "a late but settled installment still reaches paid")
}

func TestConcurrentPaymentsCannotOvershoot(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 10000, DueDate: futureDue()})
	svc := NewService(repo)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
				InstallmentID: 1, Amount: 6000, Method: MethodCash, RecordedBy: 4,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, overpaid int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrOverpayment)
			overpaid++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent payment must succeed")
	require.Equal(t, 1, overpaid, "the other must fail with an overpayment error")

	inst, err := repo.GetInstallment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 6000.0, inst.AmountPaid, "paid-sum must never overshoot")
}

func TestAggregateTotals(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 50000, DueDate: futureDue()})
	svc := NewService(repo)

	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	for _, p := range []struct {
		amount float64
		paidAt time.Time
		userID int64
	}{
		{1000, base, 4},
		{2000, base.AddDate(0, 0, 1), 4},
		{4000, base.AddDate(0, 0, 1), 7},
		{8000, base.AddDate(0, 0, 20), 4},
	} {
		_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
			InstallmentID: 1, Amount: p.amount, Method: MethodOnline, PaidAt: p.paidAt, RecordedBy: p.userID,
		})
		require.NoError(t, err)
	}

	week := DateRange{From: base, To: base.AddDate(0, 0, 7)}
	totals, err := svc.AggregateTotals(context.Background(), TotalsScope{Range: week})
	require.NoError(t, err)
	require.Equal(t, 7000.0, totals.TotalAmount)
	require.Equal(t, 3, totals.TransactionCount)

	mine, err := svc.AggregateTotals(context.Background(), TotalsScope{Range: week, RecordedBy: 4})
	require.NoError(t, err)
	require.Equal(t, 3000.0, mine.TotalAmount)
	require.Equal(t, 2, mine.TransactionCount)

	_, err = svc.AggregateTotals(context.Background(), TotalsScope{Range: DateRange{From: base, To: base}})
	require.Error(t, err)
}

func TestRefreshOverdue(t *testing.T) {
	now := time.Now()
	repo := newMemoryLedgerRepo()
	repo.addInstallment(Installment{ID: 1, AmountDue: 1000, DueDate: now.AddDate(0, 0, -5)})
	repo.addInstallment(Installment{ID: 2, AmountDue: 1000, DueDate: now.AddDate(0, 0, 5)})
	repo.addInstallment(Installment{ID: 3, AmountDue: 1000, DueDate: now.AddDate(0, 0, -5), AmountPaid: 1000, Status: StatusPaid})
	svc := NewService(repo)

	n, err := svc.RefreshOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts[StatusOverdue])
	require.Equal(t, 1, counts[StatusPending])
	require.Equal(t, 1, counts[StatusPaid])
}
