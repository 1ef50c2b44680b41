package main

import (
	"fmt"

	"github.com/fatih/color"

	"magnate/internal/game"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printAccount(acct game.Account) {
	accent.Printf("account %s", acct.TelegramID)
	if acct.Username != "" {
		accent.Printf(" (@%s)", acct.Username)
	}
	fmt.Println()
	neutral.Printf("  balance         %.2f\n", acct.Balance)
	neutral.Printf("  passive/month   %.2f\n", acct.PassiveIncome)
	neutral.Printf("  level           %d\n", acct.Level)
	neutral.Printf("  last accrual    %s\n", acct.LastAccrualAt.Format("2006-01-02 15:04:05"))
	if len(acct.Investments) == 0 {
		neutral.Println("  investments     none")
		return
	}
	neutral.Println("  investments:")
	for _, p := range acct.Investments {
		neutral.Printf("    %-36s lvl %-3d income/min %.4f\n", p.InvestmentID, p.Level, p.Income)
	}
}

func printCatalog(items []game.CatalogItem) {
	if len(items) == 0 {
		neutral.Println("catalog is empty")
		return
	}
	for _, it := range items {
		accent.Printf("%s  [%s/%s]\n", it.Name, it.Category, it.Curve)
		neutral.Printf("  id %s\n", it.ID)
		neutral.Printf("  base income/min %.4f  multiplier %.2f  owned lvl %d  upgrade cost %.0f\n",
			it.BaseIncome, it.Multiplier, it.OwnedLevel, it.UpgradeCost)
	}
}
