// Package forecast derives the days-until-broke figure and the 7-day net
// cash flow series from a transaction list. All functions are pure.
package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/models"
)

const (
	// HistoryWindow is how many of the most recent transactions feed the burn rate.
	// It counts transactions, not days.
	HistoryWindow = 7

	// SeriesDays is the number of buckets in the weekly series.
	SeriesDays = 7
)

var (
	historyDivisor = decimal.NewFromInt(HistoryWindow)
	maxDays        = decimal.NewFromInt(math.MaxInt64)
	minDays        = decimal.NewFromInt(math.MinInt64)
)

// DaysUntilBroke projects how many days the balance lasts at the average
// daily spend of the last HistoryWindow transactions. transactions must be
// ordered most recent first. Negative results are returned unclamped.
func DaysUntilBroke(transactions []models.Transaction, balance decimal.Decimal) models.DaysUntilBroke {
	if len(transactions) < HistoryWindow {
		return models.InsufficientData()
	}

	totalExpense := decimal.Zero
	for _, tx := range transactions[:HistoryWindow] {
		if tx.Type == models.TxExpense {
			totalExpense = totalExpense.Add(tx.Amount)
		}
	}

	// avg = total/7, so avg <= 0 iff total <= 0
	if totalExpense.Sign() <= 0 {
		return models.Infinite()
	}

	// floor(balance / (total/7)) == floor(7*balance / total), kept exact
	numerator := balance.Mul(historyDivisor)
	q, r := numerator.QuoRem(totalExpense, 0)
	if !r.IsZero() && numerator.Sign() < 0 {
		q = q.Sub(decimal.NewFromInt(1))
	}
	// saturate instead of wrapping past int64
	switch {
	case q.GreaterThan(maxDays):
		return models.FiniteDays(math.MaxInt64)
	case q.LessThan(minDays):
		return models.FiniteDays(math.MinInt64)
	}
	return models.FiniteDays(q.IntPart())
}

// WeeklySeries buckets transactions by elapsed whole days before reference.
// Bucket 6 holds daysAgo 0, bucket 0 holds daysAgo 6. Transactions with no
// timestamp, older than a week, or in the future are skipped. Labels are the
// calendar weekdays ending on reference in loc and are not aligned with the
// elapsed-time buckets.
func WeeklySeries(transactions []models.Transaction, reference time.Time, loc *time.Location) models.WeeklySeries {
	var series models.WeeklySeries
	for i := range series.Amounts {
		series.Amounts[i] = decimal.Zero
	}
	series.Labels = common.DayLabels(reference, loc)

	for _, tx := range transactions {
		daysAgo, ok := common.DaysAgo(reference, tx.CreatedAt)
		if !ok || daysAgo < 0 || daysAgo >= SeriesDays {
			continue
		}
		idx := SeriesDays - 1 - daysAgo
		series.Amounts[idx] = series.Amounts[idx].Add(tx.SignedAmount())
	}

	return series
}

// Compute returns both dashboard figures for a transaction list.
func Compute(transactions []models.Transaction, balance decimal.Decimal, reference time.Time, loc *time.Location) models.ForecastResult {
	return models.ForecastResult{
		DaysUntilBroke: DaysUntilBroke(transactions, balance),
		Weekly:         WeeklySeries(transactions, reference, loc),
	}
}
