package reports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/ledger"
)

type fakeLedger struct {
	mu       sync.Mutex
	calls    int
	payments []fakePayment
	counts   map[ledger.InstallmentStatus]int
}

type fakePayment struct {
	amount     float64
	paidAt     time.Time
	recordedBy int64
}

func (f *fakeLedger) AggregateTotals(ctx context.Context, scope ledger.TotalsScope) (ledger.CollectionTotals, error) {
	if err := ctx.Err(); err != nil {
		return ledger.CollectionTotals{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	var totals ledger.CollectionTotals
	for _, p := range f.payments {
		if p.paidAt.Before(scope.Range.From) || !p.paidAt.Before(scope.Range.To) {
			continue
		}
		if scope.RecordedBy != 0 && p.recordedBy != scope.RecordedBy {
			continue
		}
		totals.TotalAmount += p.amount
		totals.TransactionCount++
	}
	return totals, nil
}

func (f *fakeLedger) StatusCounts(ctx context.Context) (map[ledger.InstallmentStatus]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.counts, nil
}

func fixedNow() time.Time {
	// A Wednesday.
	return time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
}

func newTestService(led *fakeLedger) *Service {
	svc := NewService(led)
	svc.now = fixedNow
	return svc
}

func TestCollectionsToday(t *testing.T) {
	led := &fakeLedger{payments: []fakePayment{
		{amount: 5000, paidAt: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC), recordedBy: 1},
		{amount: 3000, paidAt: time.Date(2026, 8, 26, 18, 0, 0, 0, time.UTC), recordedBy: 2},
		{amount: 9000, paidAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), recordedBy: 1},
	}}
	svc := newTestService(led)

	summary, err := svc.CollectionsToday(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "today", summary.Period)
	require.Equal(t, 8000.0, summary.TotalAmount)
	require.Equal(t, 2, summary.TransactionCount)
	require.Contains(t, summary.TotalDisplay, "PKR")
}

func TestCollectionsThisWeekStartsMonday(t *testing.T) {
	led := &fakeLedger{payments: []fakePayment{
		// Monday of the fixed week.
		{amount: 100, paidAt: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		// Sunday before.
		{amount: 200, paidAt: time.Date(2026, 8, 23, 23, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(led)

	summary, err := svc.CollectionsThisWeek(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "2026-08-24", summary.From)
	require.Equal(t, 100.0, summary.TotalAmount)
	require.Equal(t, 1, summary.TransactionCount)
}

func TestMyCollectionsFiltersByRecorder(t *testing.T) {
	led := &fakeLedger{payments: []fakePayment{
		{amount: 5000, paidAt: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC), recordedBy: 1},
		{amount: 3000, paidAt: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC), recordedBy: 2},
	}}
	svc := newTestService(led)

	summary, err := svc.CollectionsToday(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 3000.0, summary.TotalAmount)
	require.Equal(t, 1, summary.TransactionCount)
}

func TestCollectSurvivesCancelledCaller(t *testing.T) {
	// The aggregate query a caller happens to start is shared with
	// whoever coalesces onto it, so that caller's cancellation must not
	// propagate into the query.
	led := &fakeLedger{payments: []fakePayment{
		{amount: 5000, paidAt: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC), recordedBy: 1},
	}}
	svc := newTestService(led)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.CollectionsToday(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 5000.0, summary.TotalAmount)

	_, err = svc.Recovery(ctx)
	require.NoError(t, err)
}

func TestRecoveryCounts(t *testing.T) {
	led := &fakeLedger{counts: map[ledger.InstallmentStatus]int{
		ledger.StatusPending: 12,
		ledger.StatusPaid:    30,
		ledger.StatusOverdue: 4,
	}}
	svc := newTestService(led)

	status, err := svc.Recovery(context.Background())
	require.NoError(t, err)
	require.Equal(t, RecoveryStatus{Pending: 12, Paid: 30, Overdue: 4}, status)
}
