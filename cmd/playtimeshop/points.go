package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/playtimeshop/internal/config"
	"github.com/fadedpez/playtimeshop/internal/logging"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/spf13/cobra"
)

func newPointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points PLAYER_ID",
		Short: "Show a player's stored balance",
		Long: `Show the balance stored for a player. Playtime since the last accrual
is not added: it is credited by the running server when the player next
checks their points or disconnects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.NewLogger(cfg.LogLevel)

			repo, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			ledger, err := repo.GetLedger(cmd.Context(), args[0])
			if errors.Is(err, ledgerRepo.ErrLedgerNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "Player %s has no points yet\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Player %s has %d points (last accrual %s)\n",
				ledger.PlayerID, ledger.Balance, ledger.LastAccrualTime.Format(time.RFC3339))
			return nil
		},
	}
}
