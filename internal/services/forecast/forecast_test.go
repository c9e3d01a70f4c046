package forecast

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/wmtb/internal/models"
)

// Monday 19 Oct 2026, 12:00 UTC
var reference = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func tx(id string, typ models.TransactionType, amount int64, createdAt time.Time) models.Transaction {
	return models.Transaction{
		ID:        id,
		Type:      typ,
		Amount:    decimal.NewFromInt(amount),
		Category:  "food",
		CreatedAt: createdAt,
	}
}

func repeat(n int, typ models.TransactionType, amount int64) []models.Transaction {
	out := make([]models.Transaction, n)
	for i := range out {
		out[i] = tx(fmt.Sprintf("t%d", i), typ, amount, reference.Add(-time.Duration(i)*24*time.Hour))
	}
	return out
}

func amounts(s models.WeeklySeries) []string {
	out := make([]string, len(s.Amounts))
	for i, a := range s.Amounts {
		out[i] = a.String()
	}
	return out
}

func TestDaysUntilBroke_InsufficientHistory(t *testing.T) {
	for n := 0; n < HistoryWindow; n++ {
		for _, balance := range []int64{-500, 0, 21000} {
			got := DaysUntilBroke(repeat(n, models.TxExpense, 7000), decimal.NewFromInt(balance))
			assert.Equal(t, models.ForecastInsufficientData, got.Kind, "n=%d balance=%d", n, balance)
		}
	}
}

func TestDaysUntilBroke_NoExpensesIsInfinite(t *testing.T) {
	got := DaysUntilBroke(repeat(7, models.TxIncome, 50000), decimal.NewFromInt(1000))
	assert.Equal(t, models.Infinite(), got)

	got = DaysUntilBroke(repeat(7, models.TxExpense, 0), decimal.NewFromInt(1000))
	assert.Equal(t, models.Infinite(), got)
	assert.Equal(t, "∞", got.String())
}

func TestDaysUntilBroke_SevenEqualExpenses(t *testing.T) {
	got := DaysUntilBroke(repeat(7, models.TxExpense, 7000), decimal.NewFromInt(21000))
	require.True(t, got.IsFinite())
	assert.Equal(t, int64(3), got.Days)
}

func TestDaysUntilBroke_FloorIsExact(t *testing.T) {
	txs := repeat(7, models.TxIncome, 100)
	txs[2] = tx("e", models.TxExpense, 3, reference)

	// 10 / (3/7) = 23.33...
	got := DaysUntilBroke(txs, decimal.NewFromInt(10))
	assert.Equal(t, models.FiniteDays(23), got)

	// 3 / (3/7) = 7 exactly, no rounding drift
	got = DaysUntilBroke(txs, decimal.NewFromInt(3))
	assert.Equal(t, models.FiniteDays(7), got)
}

func TestDaysUntilBroke_DecimalBalance(t *testing.T) {
	got := DaysUntilBroke(repeat(7, models.TxExpense, 1000), decimal.RequireFromString("2999.99"))
	assert.Equal(t, models.FiniteDays(2), got)
}

func TestDaysUntilBroke_NegativeBalanceNotClamped(t *testing.T) {
	got := DaysUntilBroke(repeat(7, models.TxExpense, 7000), decimal.NewFromInt(-1000))
	assert.Equal(t, models.FiniteDays(-1), got)

	got = DaysUntilBroke(repeat(7, models.TxExpense, 7000), decimal.NewFromInt(-21000))
	assert.Equal(t, models.FiniteDays(-3), got)
}

func TestDaysUntilBroke_SaturatesBeyondInt64(t *testing.T) {
	huge := decimal.RequireFromString("10000000000000000000")

	got := DaysUntilBroke(repeat(7, models.TxExpense, 1), huge)
	assert.Equal(t, models.FiniteDays(math.MaxInt64), got)

	got = DaysUntilBroke(repeat(7, models.TxExpense, 1), huge.Neg())
	assert.Equal(t, models.FiniteDays(math.MinInt64), got)
}

func TestDaysUntilBroke_OnlyMostRecentSevenCount(t *testing.T) {
	txs := repeat(7, models.TxExpense, 7000)
	txs = append(txs, tx("old", models.TxExpense, 1_000_000, reference.Add(-30*24*time.Hour)))

	got := DaysUntilBroke(txs, decimal.NewFromInt(21000))
	assert.Equal(t, models.FiniteDays(3), got)
}

func TestDaysUntilBroke_IgnoresIncomeAndTransfers(t *testing.T) {
	txs := repeat(7, models.TxExpense, 1000)
	txs[0] = tx("in", models.TxIncome, 90000, reference)
	txs[1] = tx("mv", models.TxTransfer, 90000, reference)

	// total expense 5000, avg 5000/7
	got := DaysUntilBroke(txs, decimal.NewFromInt(10000))
	assert.Equal(t, models.FiniteDays(14), got)
}

func TestWeeklySeries_EmptyList(t *testing.T) {
	series := WeeklySeries(nil, reference, time.UTC)
	assert.Equal(t, []string{"0", "0", "0", "0", "0", "0", "0"}, amounts(series))
	assert.Equal(t, models.InsufficientData(), DaysUntilBroke(nil, decimal.Zero))
}

func TestWeeklySeries_BucketPlacement(t *testing.T) {
	txs := []models.Transaction{
		tx("today", models.TxExpense, 100, reference.Add(-time.Hour)),
		tx("six", models.TxIncome, 600, reference.Add(-6*24*time.Hour-time.Hour)),
		tx("three", models.TxExpense, 300, reference.Add(-3*24*time.Hour)),
	}

	series := WeeklySeries(txs, reference, time.UTC)
	assert.Equal(t, []string{"600", "0", "0", "-300", "0", "0", "-100"}, amounts(series))
}

func TestWeeklySeries_SameBucketNets(t *testing.T) {
	txs := []models.Transaction{
		tx("a", models.TxIncome, 50000, reference.Add(-2*time.Hour)),
		tx("b", models.TxExpense, 15000, reference.Add(-23*time.Hour)),
		tx("c", models.TxExpense, 5000, reference.Add(-25*time.Hour)),
	}

	series := WeeklySeries(txs, reference, time.UTC)
	assert.Equal(t, "35000", series.Amounts[6].String())
	assert.Equal(t, "-5000", series.Amounts[5].String())
}

func TestWeeklySeries_ExcludesOutOfRange(t *testing.T) {
	txs := []models.Transaction{
		tx("week-old", models.TxExpense, 100, reference.Add(-7*24*time.Hour)),
		tx("future", models.TxExpense, 200, reference.Add(time.Hour)),
		tx("no-time", models.TxExpense, 300, time.Time{}),
		tx("transfer", models.TxTransfer, 400, reference),
	}

	series := WeeklySeries(txs, reference, time.UTC)
	assert.Equal(t, []string{"0", "0", "0", "0", "0", "0", "0"}, amounts(series))
}

func TestWeeklySeries_LabelsEndToday(t *testing.T) {
	series := WeeklySeries(nil, reference, time.UTC)
	assert.Equal(t, [7]string{"Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "Mon"}, series.Labels)
}

func TestWeeklySeries_LabelsFollowLocation(t *testing.T) {
	// 23:30 UTC Monday is already Tuesday in UTC+3
	late := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	eat := time.FixedZone("EAT", 3*60*60)

	series := WeeklySeries(nil, late, eat)
	assert.Equal(t, "Tue", series.Labels[6])
	assert.Equal(t, "Wed", series.Labels[0])
}

func TestCompute(t *testing.T) {
	txs := repeat(7, models.TxExpense, 7000)

	result := Compute(txs, decimal.NewFromInt(21000), reference, time.UTC)
	assert.Equal(t, models.FiniteDays(3), result.DaysUntilBroke)
	assert.Equal(t, []string{"-7000", "-7000", "-7000", "-7000", "-7000", "-7000", "-7000"}, amounts(result.Weekly))
}
