package game

import "time"

// Account is one player's persistent game state. Version is the
// optimistic-concurrency token: every mutation is a conditional write
// that checks and increments it.
type Account struct {
	TelegramID    string                `json:"telegram_id"`
	FirstName     string                `json:"first_name,omitempty"`
	Username      string                `json:"username,omitempty"`
	Balance       float64               `json:"balance"`
	PassiveIncome float64               `json:"passive_income"` // per month
	Level         int                   `json:"level"`
	Investments   []PurchasedInvestment `json:"investments"`
	LastAccrualAt time.Time             `json:"last_accrual_at"`
	Version       int64                 `json:"-"`
	Blocked       bool                  `json:"blocked,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// PurchasedInvestment records one catalog entry a player owns. At most
// one entry per investment id; Income caches the per-minute value at the
// current level.
type PurchasedInvestment struct {
	InvestmentID string    `json:"investment_id"`
	Category     string    `json:"category"`
	Level        int       `json:"level"`
	Income       float64   `json:"income"` // per minute, at Level
	PurchasedAt  time.Time `json:"purchased_at"`
}

// Investment is an admin-managed catalog entry. BaseIncome is per
// minute; BaseLevel is the catalog floor level below which the cost
// formula does not discount.
type Investment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Curve        string    `json:"curve"`
	BaseIncome   float64   `json:"base_income"`
	BaseCost     float64   `json:"base_cost"`
	BaseLevel    int       `json:"base_level"`
	Multiplier   float64   `json:"multiplier"`
	BonusPercent float64   `json:"bonus_percent"`
	Active       bool      `json:"active"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// IncomeResult is what an on-demand income collection returns.
type IncomeResult struct {
	Added   float64 `json:"added"`
	Balance float64 `json:"balance"`
}

// PurchaseResult is returned after a successful upgrade. NextCost is a
// convenience for the client UI: the price of the level after this one.
type PurchaseResult struct {
	Balance       float64 `json:"balance"`
	PassiveIncome float64 `json:"passive_income"`
	Level         int     `json:"level"`
	Income        float64 `json:"income"` // per minute at the new level
	NextCost      float64 `json:"next_cost"`
}

// CatalogItem is a catalog entry decorated with the viewer's purchase
// state and the cost of their next upgrade.
type CatalogItem struct {
	Investment
	OwnedLevel  int     `json:"owned_level"`
	UpgradeCost float64 `json:"upgrade_cost"`
}

// TickStats summarizes one accrual scan.
type TickStats struct {
	Scanned    int     `json:"scanned"`
	Credited   int     `json:"credited"`
	Skipped    int     `json:"skipped"`
	Failed     int     `json:"failed"`
	TotalAdded float64 `json:"total_added"`
}
