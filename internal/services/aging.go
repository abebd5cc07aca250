package services

import (
	"time"

	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/pkg/money"
)

// AgingBucket classifies how long a pending collection has been outstanding.
type AgingBucket string

const (
	AgingOnTime  AgingBucket = "on_time"
	AgingDueSoon AgingBucket = "due_soon"
	AgingOverdue AgingBucket = "overdue"
)

const (
	dueSoonThresholdDays = 10
	overdueThresholdDays = 14
)

// AgeDays returns the whole days a collection has been outstanding at `now`.
// The reference date is the creation date, falling back to the collection date
// when creation is unknown; both truncated to the start of day.
func AgeDays(c *models.Collection, now time.Time) int {
	ref := c.CreatedAt
	if ref.IsZero() {
		if c.CollectedAt == nil {
			return 0
		}
		ref = *c.CollectedAt
	}
	return money.DaysBetween(ref, now)
}

// ClassifyAging buckets a collection by age. Completed collections are always
// on time (aging only applies while money is outstanding). Pure: callers must
// re-evaluate on every render rather than caching the bucket on the record.
func ClassifyAging(c *models.Collection, now time.Time) AgingBucket {
	if c.IsComplete() {
		return AgingOnTime
	}

	days := AgeDays(c, now)
	switch {
	case days > overdueThresholdDays:
		return AgingOverdue
	case days >= dueSoonThresholdDays:
		return AgingDueSoon
	default:
		return AgingOnTime
	}
}
