package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/estatedesk/estatedesk/internal/ledger"
)

// CollectionSummary reports payment totals inside a period.
type CollectionSummary struct {
	Period           string  `json:"period"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	TotalAmount      float64 `json:"total_amount"`
	TotalDisplay     string  `json:"total_display"`
	TransactionCount int     `json:"transaction_count"`
}

// RecoveryStatus reports the installment book broken down by state.
type RecoveryStatus struct {
	Pending int `json:"pending"`
	Paid    int `json:"paid"`
	Overdue int `json:"overdue"`
}

// LedgerPort is the slice of the payment ledger the reports need.
type LedgerPort interface {
	AggregateTotals(ctx context.Context, scope ledger.TotalsScope) (ledger.CollectionTotals, error)
	StatusCounts(ctx context.Context) (map[ledger.InstallmentStatus]int, error)
}

// Service computes reporting aggregates. Identical in-flight requests
// are collapsed through singleflight so a dashboard full of widgets
// does not fan out into duplicate aggregate queries.
type Service struct {
	ledger  LedgerPort
	now     func() time.Time
	group   singleflight.Group
	printer *message.Printer
}

// NewService builds Service instance.
func NewService(ledgerPort LedgerPort) *Service {
	return &Service{
		ledger:  ledgerPort,
		now:     time.Now,
		printer: message.NewPrinter(language.English),
	}
}

// CollectionsToday sums payments recorded today.
func (s *Service) CollectionsToday(ctx context.Context, recordedBy int64) (CollectionSummary, error) {
	from := dateOnly(s.now())
	return s.collect(ctx, "today", from, from.AddDate(0, 0, 1), recordedBy)
}

// CollectionsThisWeek sums payments recorded since Monday.
func (s *Service) CollectionsThisWeek(ctx context.Context, recordedBy int64) (CollectionSummary, error) {
	today := dateOnly(s.now())
	offset := (int(today.Weekday()) + 6) % 7
	from := today.AddDate(0, 0, -offset)
	return s.collect(ctx, "week", from, from.AddDate(0, 0, 7), recordedBy)
}

// CollectionsThisMonth sums payments recorded this calendar month.
func (s *Service) CollectionsThisMonth(ctx context.Context, recordedBy int64) (CollectionSummary, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.collect(ctx, "month", from, from.AddDate(0, 1, 0), recordedBy)
}

// CollectionsBetween sums payments recorded in [from, to).
func (s *Service) CollectionsBetween(ctx context.Context, from, to time.Time, recordedBy int64) (CollectionSummary, error) {
	return s.collect(ctx, "custom", from, to, recordedBy)
}

func (s *Service) collect(ctx context.Context, period string, from, to time.Time, recordedBy int64) (CollectionSummary, error) {
	key := fmt.Sprintf("collect:%s:%d:%d:%d", period, from.Unix(), to.Unix(), recordedBy)
	// The closure outlives the caller that happened to start it, so it
	// must not run on that caller's context: cancelling the first
	// request would fail every coalesced one with it.
	ctx = context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		totals, err := s.ledger.AggregateTotals(ctx, ledger.TotalsScope{
			Range:      ledger.DateRange{From: from, To: to},
			RecordedBy: recordedBy,
		})
		if err != nil {
			return CollectionSummary{}, err
		}
		return CollectionSummary{
			Period:           period,
			From:             from.Format("2006-01-02"),
			To:               to.Format("2006-01-02"),
			TotalAmount:      totals.TotalAmount,
			TotalDisplay:     s.printer.Sprintf("PKR %.2f", totals.TotalAmount),
			TransactionCount: totals.TransactionCount,
		}, nil
	})
	if err != nil {
		return CollectionSummary{}, err
	}
	return v.(CollectionSummary), nil
}

// Recovery reports pending, paid and overdue installment counts.
func (s *Service) Recovery(ctx context.Context) (RecoveryStatus, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("recovery", func() (any, error) {
		counts, err := s.ledger.StatusCounts(ctx)
		if err != nil {
			return RecoveryStatus{}, err
		}
		return RecoveryStatus{
			Pending: counts[ledger.StatusPending],
			Paid:    counts[ledger.StatusPaid],
			Overdue: counts[ledger.StatusOverdue],
		}, nil
	})
	if err != nil {
		return RecoveryStatus{}, err
	}
	return v.(RecoveryStatus), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
