/*
aggregate.go - Fleet-wide dashboard folds

PURPOSE:
  Pure folds over explicit snapshots of the Machine, Transaction and
  Expense collections. No shared state, no incremental updates: every
  read recomputes in full, which is O(machines + transactions + expenses)
  and fine at small-fleet scale. Callers own when to re-fetch and re-fold.

CACHED-FIELD MODEL:
  TotalRevenue sums Machine.Revenue, NOT transaction amounts. This keeps
  the dashboard consistent with the cached field the ledger maintains;
  Inspect() reports when the two worlds visibly disagree (orphans,
  negative figures) without ever blocking the computation.

DEGENERATE CASES:
  Every percentage-of-total figure is defined as zero when the total is
  zero - never NaN, never a division error.

SEE ALSO:
  - split.go: Per-machine operator/partner share math
  - errors.go: ConsistencyWarning
*/
package vending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY - Fleet totals
// =============================================================================

type Summary struct {
	TotalRevenue       decimal.Decimal // sum of cached machine revenue
	OperatorIncome     decimal.Decimal // sum of per-machine operator shares
	PartnerIncome      decimal.Decimal // TotalRevenue - OperatorIncome
	TotalExpenses      decimal.Decimal
	NetProfit          decimal.Decimal // OperatorIncome - TotalExpenses
	GSTOwed            decimal.Decimal // GST on OperatorIncome
	ActiveMachineCount int
}

// Summarize folds machines and expenses into the dashboard totals.
// Order of the input slices is irrelevant.
func Summarize(machines []Machine, expenses []Expense) Summary {
	totalRevenue := decimal.Zero
	operatorIncome := decimal.Zero
	active := 0

	for _, m := range machines {
		totalRevenue = totalRevenue.Add(m.Revenue)
		operatorIncome = operatorIncome.Add(OperatorShare(m.Revenue, m.Split))
		if m.Status == MachineActive {
			active++
		}
	}

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	return Summary{
		TotalRevenue:       totalRevenue,
		OperatorIncome:     operatorIncome,
		PartnerIncome:      totalRevenue.Sub(operatorIncome),
		TotalExpenses:      totalExpenses,
		NetProfit:          operatorIncome.Sub(totalExpenses),
		GSTOwed:            GST(operatorIncome),
		ActiveMachineCount: active,
	}
}

// =============================================================================
// PERCENTAGE BREAKDOWNS
// =============================================================================

// ExpensesByCategory sums expense amounts per category. Machine scope and
// recurrence are irrelevant to the fleet-wide breakdown.
func ExpensesByCategory(expenses []Expense) map[string]decimal.Decimal {
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}
	return byCategory
}

// PercentOfTotal returns part / total * 100, or zero when total is zero.
// Used for both category-of-expenses and machine-of-fleet breakdowns.
func PercentOfTotal(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// MachineShare returns the machine's percent of total fleet revenue.
func MachineShare(m Machine, totalRevenue decimal.Decimal) decimal.Decimal {
	return PercentOfTotal(m.Revenue, totalRevenue)
}

// =============================================================================
// DAILY SALES HISTOGRAM - Last 30 calendar days
// =============================================================================

// DayBucket is one bar of the daily sales histogram.
type DayBucket struct {
	Day       time.Time       // calendar day, UTC midnight
	Total     decimal.Decimal // sale amounts created on this day
	HeightPct decimal.Decimal // Total / max day-total * 100, 0 when window empty
}

// DailySales buckets sale transactions by CreatedAt calendar day over the
// 30 days ending at today, oldest day first. Bucketing uses CreatedAt,
// not the user-editable Date, so backfilled sales land on the day they
// were recorded. Bar heights are normalized against the busiest day in
// the window.
func DailySales(transactions []Transaction, today time.Time) []DayBucket {
	dayOf := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	end := dayOf(today)
	start := end.AddDate(0, 0, -29)

	totals := make(map[time.Time]decimal.Decimal, 30)
	for _, tx := range transactions {
		if tx.Type != TxSale {
			continue
		}
		day := dayOf(tx.CreatedAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		totals[day] = totals[day].Add(tx.Amount)
	}

	max := decimal.Zero
	for _, total := range totals {
		if total.GreaterThan(max) {
			max = total
		}
	}

	buckets := make([]DayBucket, 0, 30)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		total := totals[day]
		buckets = append(buckets, DayBucket{
			Day:       day,
			Total:     total,
			HeightPct: PercentOfTotal(total, max),
		})
	}
	return buckets
}

// =============================================================================
// CONSISTENCY INSPECTION - Warnings, never errors
// =============================================================================

// Inspect scans a snapshot for visible ledger drift: transactions whose
// machine no longer exists and machines with negative cached revenue.
// Findings are informational; folds proceed regardless.
func Inspect(machines []Machine, transactions []Transaction) []ConsistencyWarning {
	known := make(map[MachineID]bool, len(machines))
	var warnings []ConsistencyWarning

	for _, m := range machines {
		known[m.ID] = true
		if m.Revenue.IsNegative() {
			warnings = append(warnings, ConsistencyWarning{
				Kind:      WarnNegativeRevenue,
				MachineID: m.ID,
				Detail:    fmt.Sprintf("machine %s (%s) has negative cached revenue %s", m.ID, m.Code, m.Revenue),
			})
		}
	}

	for _, tx := range transactions {
		if !known[tx.MachineID] {
			warnings = append(warnings, ConsistencyWarning{
				Kind:          WarnUnknownMachine,
				MachineID:     tx.MachineID,
				TransactionID: tx.ID,
				Detail:        fmt.Sprintf("transaction %s references unknown machine %s", tx.ID, tx.MachineID),
			})
		}
	}

	return warnings
}
