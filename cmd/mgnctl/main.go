package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "magnate/internal/cli"
	"magnate/internal/config"
	"magnate/internal/notify"
)

func main() {
	cfg := config.LoadCLI()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "mgnctl",
		Short:        "Magnate ops CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newAccountCmd(&apiBase),
		newCollectCmd(&apiBase),
		newBuyCmd(&apiBase),
		newCatalogCmd(&apiBase),
		newNotifyCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newAccountCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "account <telegram-id>",
		Short: "Show one player's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			acct, err := newClient(apiBase).Account(ctx, args[0])
			if err != nil {
				return err
			}
			printAccount(acct)
			return nil
		},
	}
}

func newCollectCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "collect <telegram-id>",
		Short: "Collect the account's elapsed passive income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).CollectIncome(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("added %.4f, balance %.2f", out.Added, out.Balance))
			return nil
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <telegram-id> <investment-id>",
		Short: "Buy or upgrade an investment for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Purchase(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("level %d, income/min %.4f, balance %.2f, next cost %.0f",
				out.Level, out.Income, out.Balance, out.NextCost))
			return nil
		},
	}
}

func newCatalogCmd(apiBase *string) *cobra.Command {
	var accountID, category string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List active catalog investments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			items, err := newClient(apiBase).Catalog(ctx, accountID, category)
			if err != nil {
				return err
			}
			printCatalog(items)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "decorate with this account's levels")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}

func newNotifyCmd(apiBase *string) *cobra.Command {
	var minLevel int
	var minIncome float64
	var important bool
	cmd := &cobra.Command{
		Use:   "notify <message>",
		Short: "Broadcast a notification to matching players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			rep, err := newClient(apiBase).Notify(ctx, notify.Notification{
				Message:   args[0],
				MinLevel:  minLevel,
				MinIncome: minIncome,
				Important: important,
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("targets %d, delivered %d, failed %d, pushed %d",
				rep.Targets, rep.Delivered, rep.Failed, rep.Pushed))
			return nil
		},
	}
	cmd.Flags().IntVar(&minLevel, "min-level", 0, "only players at or above this level")
	cmd.Flags().Float64Var(&minIncome, "min-income", 0, "only players with at least this monthly income")
	cmd.Flags().BoolVar(&important, "important", false, "mark as important")
	return cmd
}
