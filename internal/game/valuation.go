package game

import "math"

// IncomeAt computes an investment's per-minute income at an upgrade
// level. Pure and total: any non-negative level and player level yields
// a finite value, and an unrecognized curve falls back to the flat base
// income.
func IncomeAt(inv Investment, level, playerLevel int) float64 {
	base := inv.BaseIncome
	mult := inv.Multiplier
	if playerLevel < 0 {
		playerLevel = 0
	}
	switch inv.Curve {
	case CurveLinear:
		return base * math.Pow(mult, float64(level))
	case CurveParabolic:
		bonus := base * inv.BonusPercent * float64(playerLevel)
		return base*math.Pow(mult, float64(level)) + bonus
	case CurveExponential:
		return base * math.Pow(mult, float64(level*playerLevel))
	case CurveInverseParabolic:
		decay := 1 / (1 + float64(playerLevel)/10)
		return base * math.Pow(mult, float64(level)) * decay
	default:
		return base
	}
}

// CostAt computes the price of buying the upgrade at the given level.
// Below the catalog floor level the base cost applies unmodified; above
// it the cost scales by the multiplier per level and rounds to whole
// coins.
func CostAt(inv Investment, level int) float64 {
	diff := level - inv.BaseLevel
	if diff <= 0 {
		return inv.BaseCost
	}
	return roundCoins(inv.BaseCost * math.Pow(inv.Multiplier, float64(diff)))
}
