package ledger

import (
	"math"
	"time"
)

// paisa converts a rupee amount to integer paisa. All money comparisons
// in this package go through it: rupee values arrive as float64, and
// binary floats cannot represent most decimal fractions exactly, so
// comparing them raw misjudges sums like 0.10+0.20 against 0.30.
func paisa(v float64) int64 {
	return int64(math.Round(v * 100))
}

// StatusOf derives an installment's status from its payment progress and
// due date. This function is the single source of truth: the stored
// status column is a cache of this computation and must be recomputed on
// every payment event, never hand-edited.
//
// Once fully paid the status stays paid regardless of the due date; an
// overdue installment that is eventually settled still reaches paid.
func StatusOf(amountDue, paidSum float64, dueDate, asOf time.Time) InstallmentStatus {
	if paisa(paidSum) >= paisa(amountDue) {
		return StatusPaid
	}
	if dateOnly(asOf).After(dateOnly(dueDate)) {
		return StatusOverdue
	}
	return StatusPending
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
