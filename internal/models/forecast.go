package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ForecastKind distinguishes a numeric forecast from its sentinels.
type ForecastKind string

const (
	ForecastFinite           ForecastKind = "finite"
	ForecastInsufficientData ForecastKind = "insufficient-data"
	ForecastInfinite         ForecastKind = "infinite"
)

// DaysUntilBroke is either a day count or one of the two sentinels.
// Days is only meaningful when Kind is ForecastFinite and may be negative.
type DaysUntilBroke struct {
	Kind ForecastKind
	Days int64
}

// FiniteDays returns a finite forecast of n days.
func FiniteDays(n int64) DaysUntilBroke {
	return DaysUntilBroke{Kind: ForecastFinite, Days: n}
}

// InsufficientData is returned when there is too little history to forecast.
func InsufficientData() DaysUntilBroke {
	return DaysUntilBroke{Kind: ForecastInsufficientData}
}

// Infinite is returned when there is no burn rate.
func Infinite() DaysUntilBroke {
	return DaysUntilBroke{Kind: ForecastInfinite}
}

// IsFinite reports whether Days carries a value.
func (d DaysUntilBroke) IsFinite() bool {
	return d.Kind == ForecastFinite
}

// String renders the forecast for display.
func (d DaysUntilBroke) String() string {
	switch d.Kind {
	case ForecastFinite:
		return strconv.FormatInt(d.Days, 10)
	case ForecastInfinite:
		return "∞"
	default:
		return "Not enough data"
	}
}

// MarshalJSON encodes finite forecasts as a number and sentinels as strings.
func (d DaysUntilBroke) MarshalJSON() ([]byte, error) {
	if d.Kind == ForecastFinite {
		return []byte(strconv.FormatInt(d.Days, 10)), nil
	}
	if d.Kind == "" {
		return json.Marshal(string(ForecastInsufficientData))
	}
	return json.Marshal(string(d.Kind))
}

// UnmarshalJSON accepts either a number or one of the sentinel strings.
func (d *DaysUntilBroke) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = FiniteDays(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("days_until_broke: %w", err)
	}
	switch ForecastKind(s) {
	case ForecastInsufficientData, ForecastInfinite:
		*d = DaysUntilBroke{Kind: ForecastKind(s)}
		return nil
	}
	return fmt.Errorf("days_until_broke: unknown sentinel %q", s)
}

// WeeklySeries is the 7-day net cash flow, oldest bucket first.
// Labels are calendar-day names and are derived independently of the
// elapsed-time bucketing of Amounts.
type WeeklySeries struct {
	Labels  [7]string          `json:"labels"`
	Amounts [7]decimal.Decimal `json:"amounts"`
}

// ForecastResult bundles the derived dashboard figures.
type ForecastResult struct {
	DaysUntilBroke DaysUntilBroke `json:"days_until_broke"`
	Weekly         WeeklySeries   `json:"weekly"`
}
