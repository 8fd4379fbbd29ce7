package query

import (
	"sort"
	"time"

	"farmstead/internal/core"
)

// FinancialSummary aggregates income and expenses over a transaction set.
type FinancialSummary struct {
	TotalIncome      core.Money `json:"totalIncome"`
	TotalExpenses    core.Money `json:"totalExpenses"`
	NetProfit        core.Money `json:"netProfit"`
	TransactionCount int        `json:"transactionCount"`
}

// TaskStatistics counts tasks by status plus the overdue bucket.
type TaskStatistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// SortTasks orders a copy of tasks for presentation: overdue tasks first
// regardless of due date, then ascending by due date within each bucket.
// The sort is stable, so equal keys keep their input order.
func SortTasks(tasks []core.Task, now time.Time) []core.Task {
	out := make([]core.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].IsOverdue(now), out[j].IsOverdue(now)
		if oi != oj {
			return oi
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// SortTransactions orders a copy newest-first; ties keep input order.
func SortTransactions(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date.Time)
	})
	return out
}

// TodaysTasks returns the tasks due on the same calendar day as now,
// excluding completed ones.
func TodaysTasks(tasks []core.Task, now time.Time) []core.Task {
	out := make([]core.Task, 0)
	for _, t := range tasks {
		if t.Status == core.TaskCompleted {
			continue
		}
		if core.DateOf(t.DueDate).SameDay(now) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize computes totals over all given transactions.
func Summarize(txs []core.Transaction) FinancialSummary {
	var s FinancialSummary
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			s.TotalExpenses.Cents += tx.Amount.Cents
		}
	}
	s.NetProfit.Cents = s.TotalIncome.Cents - s.TotalExpenses.Cents
	s.TransactionCount = len(txs)
	return s
}

// SummarizeMonth computes totals restricted to the calendar month of ref,
// inclusive on both ends.
func SummarizeMonth(txs []core.Transaction, ref time.Time) FinancialSummary {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var inMonth []core.Transaction
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		d := tx.Date.Time
		if !d.Before(start) && !d.After(end) {
			inMonth = append(inMonth, tx)
		}
	}
	return Summarize(inMonth)
}

// CountTasks tallies tasks by status and overdue-ness at the given time.
func CountTasks(tasks []core.Task, now time.Time) TaskStatistics {
	stats := TaskStatistics{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case core.TaskPending:
			stats.Pending++
		case core.TaskInProgress:
			stats.InProgress++
		case core.TaskCompleted:
			stats.Completed++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

// ActiveCropCount counts crops on the given farm with Active status.
func ActiveCropCount(crops []core.Crop, farmID int64) int {
	n := 0
	for _, c := range crops {
		if c.FarmID == farmID && c.Status == core.CropActive {
			n++
		}
	}
	return n
}
