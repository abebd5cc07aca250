package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/pkg/money"
)

// Pure filter and aggregation helpers over an in-memory collection set.
// Filters always receive the full set so that totals stay accurate regardless
// of the view the caller is building.

// FilterByStatus keeps collections whose normalized status matches.
func FilterByStatus(collections []models.Collection, status string) []models.Collection {
	status = models.NormalizeCollectionStatus(status)
	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		if models.NormalizeCollectionStatus(c.Status) == status {
			out = append(out, c)
		}
	}
	return out
}

// FilterByKind keeps collections of the given kind.
func FilterByKind(collections []models.Collection, kind string) []models.Collection {
	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FilterByDateRange keeps collections whose effective date falls inside
// [from, to]. The end date is inclusive: one day is added before comparison.
func FilterByDateRange(collections []models.Collection, from, to time.Time) []models.Collection {
	start := money.StartOfDay(from)
	end := money.StartOfDay(to).AddDate(0, 0, 1)

	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		eff := c.EffectiveDate()
		if eff == nil {
			continue
		}
		if !eff.Before(start) && eff.Before(end) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByAgingBucket keeps pending collections in the given bucket.
// Filtering on due-soon includes overdue as well: anything due soon or worse.
func FilterByAgingBucket(collections []models.Collection, bucket AgingBucket, now time.Time) []models.Collection {
	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		if !c.IsPending() {
			continue
		}
		got := ClassifyAging(&c, now)
		if got == bucket || (bucket == AgingDueSoon && got == AgingOverdue) {
			out = append(out, c)
		}
	}
	return out
}

// FilterBySearchTerm keeps collections matching a case-insensitive substring
// search across order id, customer name and phone, notes, collector, and the
// amount rendered as a string.
func FilterBySearchTerm(collections []models.Collection, term string) []models.Collection {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return collections
	}

	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		haystack := []string{
			c.OrderID,
			c.Customer.Name,
			c.Customer.Phone,
			c.Notes,
			fmt.Sprintf("%.2f", c.Amount),
			money.Format(c.Amount),
		}
		if c.CompletedBy != nil {
			haystack = append(haystack, *c.CompletedBy)
		}
		for _, h := range haystack {
			if h != "" && strings.Contains(strings.ToLower(h), term) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SortByEffectiveDate returns a copy sorted descending by collection date,
// falling back to creation date. Collections without any date sort last.
func SortByEffectiveDate(collections []models.Collection) []models.Collection {
	out := make([]models.Collection, len(collections))
	copy(out, collections)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].EffectiveDate(), out[j].EffectiveDate()
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

// UnknownDayKey is the bucket for collections lacking any date.
const UnknownDayKey = "unknown"

// DayGroup is one calendar-day bucket of collections. Subtotals only count
// pending members; completed members appear in the list but not the money.
type DayGroup struct {
	Day                string              `json:"day"`
	Collections        []models.Collection `json:"collections"`
	Count              int                 `json:"count"`
	PendingTotal       float64             `json:"pending_total"`
	PendingCreditTotal float64             `json:"pending_credit_total"`
	PendingCreditCount int                 `json:"pending_credit_count"`
	PendingChequeTotal float64             `json:"pending_cheque_total"`
	PendingChequeCount int                 `json:"pending_cheque_count"`
}

// GroupByDay buckets collections by the local calendar date of their effective
// date, newest day first, with the unknown bucket sorted last.
func GroupByDay(collections []models.Collection) []DayGroup {
	buckets := make(map[string]*DayGroup)
	for _, c := range collections {
		key := UnknownDayKey
		if eff := c.EffectiveDate(); eff != nil {
			key = money.DayKey(*eff)
		}
		g, ok := buckets[key]
		if !ok {
			g = &DayGroup{Day: key}
			buckets[key] = g
		}
		g.Collections = append(g.Collections, c)
		g.Count++
		if c.IsPending() {
			g.PendingTotal = money.Round(g.PendingTotal + c.Amount)
			switch c.Kind {
			case models.CollectionKindCredit:
				g.PendingCreditTotal = money.Round(g.PendingCreditTotal + c.Amount)
				g.PendingCreditCount++
			case models.CollectionKindCheque:
				g.PendingChequeTotal = money.Round(g.PendingChequeTotal + c.Amount)
				g.PendingChequeCount++
			}
		}
	}

	groups := make([]DayGroup, 0, len(buckets))
	for _, g := range buckets {
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Day, groups[j].Day
		switch {
		case a == UnknownDayKey:
			return false
		case b == UnknownDayKey:
			return true
		default:
			return a > b
		}
	})
	return groups
}

// Totals summarizes the entire collection set. It must always be computed over
// the unfiltered set so active view filters never change the totals.
type Totals struct {
	TotalPending  float64 `json:"total_pending"`
	TotalComplete float64 `json:"total_complete"`
	PendingCredit float64 `json:"pending_credit"`
	PendingCheque float64 `json:"pending_cheque"`
	OverdueAmount float64 `json:"overdue_amount"`
	OverdueCount  int     `json:"overdue_count"`
	DueSoonAmount float64 `json:"due_soon_amount"`
	DueSoonCount  int     `json:"due_soon_count"`
}

// ComputeTotals aggregates pending/complete amounts, the pending split by
// kind, and the overdue and due-soon exposure as of `now`.
func ComputeTotals(collections []models.Collection, now time.Time) Totals {
	var t Totals
	for _, c := range collections {
		if c.IsComplete() {
			t.TotalComplete = money.Round(t.TotalComplete + c.Amount)
			continue
		}
		t.TotalPending = money.Round(t.TotalPending + c.Amount)
		switch c.Kind {
		case models.CollectionKindCredit:
			t.PendingCredit = money.Round(t.PendingCredit + c.Amount)
		case models.CollectionKindCheque:
			t.PendingCheque = money.Round(t.PendingCheque + c.Amount)
		}
		switch ClassifyAging(&c, now) {
		case AgingOverdue:
			t.OverdueAmount = money.Round(t.OverdueAmount + c.Amount)
			t.OverdueCount++
		case AgingDueSoon:
			t.DueSoonAmount = money.Round(t.DueSoonAmount + c.Amount)
			t.DueSoonCount++
		}
	}
	return t
}
