package queue

import (
	"time"

	"visitq/queue-service/internal/models"
)

// NextTicketNumber derives the next day-scoped ticket number from the
// committed records: one past the highest ticket created at or after
// dayStart, or 1 when the day has no records yet. There is no independent
// counter, so an aborted allocation never leaves a gap and day rollover
// needs no reset.
//
// The upper bound of the day scope is implicit: committed records never
// carry a future creation time. Clock skew between two in-flight
// registrations must not hide a committed row from the maximum, which is
// why the scope is bounded only from below.
//
// Callers must serialize the read-max-then-insert window; two unserialized
// concurrent allocations would both observe the same maximum.
func NextTicketNumber(records []models.Visitor, dayStart time.Time) int {
	max := 0
	for _, visitor := range records {
		if visitor.CreatedAt.Before(dayStart) {
			continue
		}
		if visitor.TicketNumber > max {
			max = visitor.TicketNumber
		}
	}
	return max + 1
}
