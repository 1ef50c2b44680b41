package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements the game's account operations over the store
// repositories. All mutations funnel through the repository's
// conditional update, so a clock tick and a purchase racing on the same
// account cannot clobber each other.
type Service struct {
	accounts AccountRepository
	catalog  CatalogRepository
	log      *slog.Logger
	now      func() time.Time
}

// Option tweaks service construction.
type Option func(*Service)

// WithNow overrides the service clock. Tests pin time with it.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(accounts AccountRepository, catalog CatalogRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		accounts: accounts,
		catalog:  catalog,
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureAccount lazily creates the player's account on first contact.
// Existing accounts only get their profile fields refreshed.
func (s *Service) EnsureAccount(ctx context.Context, telegramID, firstName, username string) (*Account, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, fmt.Errorf("telegram id is required")
	}
	now := s.now().UTC()
	acct, err := s.accounts.Upsert(ctx, &Account{
		TelegramID:    telegramID,
		FirstName:     strings.TrimSpace(firstName),
		Username:      strings.TrimSpace(username),
		Level:         1,
		Investments:   []PurchasedInvestment{},
		LastAccrualAt: now,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure account %s: %w", telegramID, err)
	}
	return acct, nil
}

func (s *Service) GetAccount(ctx context.Context, telegramID string) (*Account, error) {
	acct, err := s.accounts.Get(ctx, telegramID)
	if err == ErrNotFound {
		return nil, ErrAccountNotFound
	}
	return acct, err
}

// CollectIncome credits the passive income earned since the account's
// last accrual. The exact same formula backs the background clock and
// this on-demand path. A lost race surfaces as ErrConcurrentUpdate; the
// caller resubmits and the elapsed-time math absorbs the delay.
func (s *Service) CollectIncome(ctx context.Context, telegramID string) (IncomeResult, error) {
	acct, err := s.GetAccount(ctx, telegramID)
	if err != nil {
		return IncomeResult{}, err
	}
	now := s.now().UTC()
	added, updated, err := s.creditElapsed(ctx, acct, now)
	if err != nil {
		return IncomeResult{}, err
	}
	if updated == nil {
		return IncomeResult{Added: 0, Balance: acct.Balance}, nil
	}
	return IncomeResult{Added: added, Balance: updated.Balance}, nil
}

// creditElapsed applies one accrual step to an already-read account.
// Returns (0, nil, nil) when there is nothing to credit.
func (s *Service) creditElapsed(ctx context.Context, acct *Account, now time.Time) (float64, *Account, error) {
	elapsed := ElapsedSeconds(acct.LastAccrualAt, now)
	added := AccruedIncome(acct.PassiveIncome, elapsed)
	if added <= 0 {
		return 0, nil, nil
	}

	next := *acct
	next.Investments = acct.Investments
	next.Balance += added
	next.LastAccrualAt = now

	updated, err := s.accounts.UpdateConditional(ctx, &next, acct.Version)
	switch err {
	case nil:
		return added, updated, nil
	case ErrVersionConflict:
		return 0, nil, ErrConcurrentUpdate
	case ErrNotFound:
		return 0, nil, ErrAccountNotFound
	default:
		return 0, nil, fmt.Errorf("credit account %s: %w", acct.TelegramID, err)
	}
}

// PurchaseInvestment upgrades one catalog investment by exactly one
// level: funds check at the current level's cost, incremental passive
// income update from the income delta, and a single conditional write.
func (s *Service) PurchaseInvestment(ctx context.Context, telegramID, investmentID string) (PurchaseResult, error) {
	var out PurchaseResult

	acct, err := s.GetAccount(ctx, telegramID)
	if err != nil {
		return out, err
	}
	inv, err := s.catalog.Get(ctx, investmentID)
	if err == ErrNotFound {
		return out, ErrInvestmentNotFound
	}
	if err != nil {
		return out, fmt.Errorf("load investment %s: %w", investmentID, err)
	}
	if !inv.Active {
		return out, ErrInvestmentInactive
	}

	// Unpurchased investments start at level 0, below the catalog floor,
	// so the first buy always costs the base price.
	currentLevel := 0
	ownedIdx := -1
	for i, p := range acct.Investments {
		if p.InvestmentID == inv.ID {
			currentLevel = p.Level
			ownedIdx = i
			break
		}
	}

	costNow := CostAt(*inv, currentLevel)
	if acct.Balance < costNow {
		out.Balance = acct.Balance
		return out, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, costNow, acct.Balance)
	}

	newLevel := currentLevel + 1
	prevIncome := IncomeAt(*inv, currentLevel, acct.Level)
	newIncome := IncomeAt(*inv, newLevel, acct.Level)
	deltaMonthly := MonthlyFromPerMinute(newIncome - prevIncome)

	now := s.now().UTC()
	next := *acct
	next.Investments = make([]PurchasedInvestment, len(acct.Investments))
	copy(next.Investments, acct.Investments)
	next.Balance = acct.Balance - costNow
	next.PassiveIncome = acct.PassiveIncome + deltaMonthly

	entry := PurchasedInvestment{
		InvestmentID: inv.ID,
		Category:     inv.Category,
		Level:        newLevel,
		Income:       newIncome,
		PurchasedAt:  now,
	}
	if ownedIdx >= 0 {
		next.Investments[ownedIdx] = entry
	} else {
		next.Investments = append(next.Investments, entry)
	}

	updated, err := s.accounts.UpdateConditional(ctx, &next, acct.Version)
	switch err {
	case nil:
	case ErrVersionConflict:
		return out, ErrConcurrentUpdate
	case ErrNotFound:
		return out, ErrAccountNotFound
	default:
		return out, fmt.Errorf("apply purchase for %s: %w", telegramID, err)
	}

	s.log.Info("investment purchased",
		"account", telegramID,
		"investment", inv.ID,
		"level", newLevel,
		"cost", costNow,
		"income_delta_month", deltaMonthly,
		"balance", updated.Balance)

	return PurchaseResult{
		Balance:       updated.Balance,
		PassiveIncome: updated.PassiveIncome,
		Level:         newLevel,
		Income:        newIncome,
		NextCost:      CostAt(*inv, newLevel+1),
	}, nil
}

// Catalog lists active investments decorated with the viewer's owned
// level and the cost of their next upgrade. An unknown viewer sees the
// base catalog.
func (s *Service) Catalog(ctx context.Context, telegramID, category string) ([]CatalogItem, error) {
	entries, err := s.catalog.ListActive(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	owned := map[string]int{}
	if telegramID != "" {
		acct, err := s.GetAccount(ctx, telegramID)
		if err == nil {
			for _, p := range acct.Investments {
				owned[p.InvestmentID] = p.Level
			}
		} else if err != ErrAccountNotFound {
			return nil, err
		}
	}

	out := make([]CatalogItem, 0, len(entries))
	for _, inv := range entries {
		level := owned[inv.ID]
		out = append(out, CatalogItem{
			Investment:  *inv,
			OwnedLevel:  level,
			UpgradeCost: CostAt(*inv, level),
		})
	}
	return out, nil
}

// SeedCatalog inserts a starter catalog when the store is empty.
func (s *Service) SeedCatalog(ctx context.Context) error {
	existing, err := s.catalog.ListActive(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed := []Investment{
		{Name: "Savings Account", Category: "finances", Curve: CurveLinear, BaseIncome: 0.5, BaseCost: 100, BaseLevel: 1, Multiplier: 1.2},
		{Name: "Index Fund", Category: "finances", Curve: CurveParabolic, BaseIncome: 1.2, BaseCost: 450, BaseLevel: 1, Multiplier: 1.25, BonusPercent: 0.05},
		{Name: "Server Farm", Category: "technology", Curve: CurveExponential, BaseIncome: 0.8, BaseCost: 900, BaseLevel: 1, Multiplier: 1.08},
		{Name: "App Studio", Category: "technology", Curve: CurveLinear, BaseIncome: 2.0, BaseCost: 1500, BaseLevel: 1, Multiplier: 1.3},
		{Name: "Coffee Chain", Category: "business", Curve: CurveLinear, BaseIncome: 3.5, BaseCost: 2600, BaseLevel: 1, Multiplier: 1.35},
		{Name: "Logistics Co", Category: "business", Curve: CurveInverseParabolic, BaseIncome: 5.0, BaseCost: 4000, BaseLevel: 1, Multiplier: 1.4},
		{Name: "City Apartment", Category: "realestate", Curve: CurveLinear, BaseIncome: 6.0, BaseCost: 7500, BaseLevel: 1, Multiplier: 1.45},
		{Name: "Office Tower", Category: "realestate", Curve: CurveParabolic, BaseIncome: 11.0, BaseCost: 16000, BaseLevel: 1, Multiplier: 1.5, BonusPercent: 0.08},
	}
	for i := range seed {
		seed[i].ID = uuid.NewString()
		seed[i].Active = true
		seed[i].SortOrder = i
		if err := s.catalog.Put(ctx, &seed[i]); err != nil {
			return fmt.Errorf("seed catalog entry %q: %w", seed[i].Name, err)
		}
	}
	s.log.Info("catalog seeded", "entries", len(seed))
	return nil
}
