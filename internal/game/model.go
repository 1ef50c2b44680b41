package game

import (
	"errors"
	"math"
	"time"
)

// The game runs on a fixed 30-day month. Catalog incomes are denominated
// per minute, account passive income per month; both conversion constants
// derive from the same day count so accrual and purchase math stay in the
// same unit system.
const (
	DaysPerMonth    = 30
	SecondsPerMonth = DaysPerMonth * 24 * 60 * 60
	MinutesPerMonth = DaysPerMonth * 24 * 60
)

// AccrualSafetyMargin is how stale an account's last credit must be
// before the clock visits it again. At least one full tick old.
const AccrualSafetyMargin = time.Minute

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrInvestmentInactive = errors.New("investment is not active")
	ErrInsufficientFunds  = errors.New("not enough coins")
	ErrConcurrentUpdate   = errors.New("account changed concurrently")
)

// Growth curve families for catalog entries.
const (
	CurveLinear           = "linear"
	CurveParabolic        = "parabolic"
	CurveExponential      = "exponential"
	CurveInverseParabolic = "inverse_parabolic"
)

// Categories mirror the catalog taxonomy the client renders.
var Categories = []string{"finances", "technology", "business", "realestate"}

// ElapsedSeconds is the whole number of seconds between two instants,
// floored. Zero or negative means nothing to credit.
func ElapsedSeconds(from, to time.Time) int64 {
	return int64(to.Sub(from) / time.Second)
}

// AccruedIncome converts a monthly income rate into the amount earned
// over elapsed whole seconds.
func AccruedIncome(monthlyIncome float64, elapsedSeconds int64) float64 {
	if monthlyIncome <= 0 || elapsedSeconds <= 0 {
		return 0
	}
	return monthlyIncome * (float64(elapsedSeconds) / float64(SecondsPerMonth))
}

// MonthlyFromPerMinute scales a per-minute income figure to the monthly
// unit accounts carry.
func MonthlyFromPerMinute(perMinute float64) float64 {
	return perMinute * MinutesPerMonth
}

func roundCoins(v float64) float64 {
	return math.Round(v)
}
