package main

import (
	"context"
	"fmt"

	"github.com/fadedpez/playtimeshop/internal/config"
	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/pkg/grant"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "playtimeshop",
		Short: "Playtime rewards shop",
		Long: `Players earn points for time spent online and spend them on in-game
items and stat upgrades. Configuration is read from the environment and
an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newPointsCmd())

	return root
}

// openRepository builds the ledger store selected by STORAGE_TYPE
func openRepository(ctx context.Context, cfg *config.Config, logger *logging.Logger) (ledgerRepo.Repository, error) {
	switch cfg.StorageType {
	case config.StorageSQLite:
		logger.Info("[MAIN] Using SQLite ledger store at %s", cfg.SQLitePath)
		return ledgerRepo.NewSQLiteRepository(ctx, cfg.SQLitePath, logger)
	case config.StorageMemory:
		logger.Warn("[MAIN] Using in-memory ledger store (points will be lost on restart)")
		return ledgerRepo.NewMemoryRepository(), nil
	case config.StorageFile:
		logger.Info("[MAIN] Using file ledger store in %s", cfg.DataDir)
		return ledgerRepo.NewFileRepository(cfg.DataDir, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// newGranter connects to the game host, or simulates one when no URL is set
func newGranter(cfg *config.Config, logger *logging.Logger) grant.Granter {
	if cfg.GameHostURL == "" {
		logger.Warn("[MAIN] GAME_HOST_URL not set, rewards go to an in-memory host")
		return grant.NewMemoryHost()
	}
	logger.Info("[MAIN] Granting rewards through %s", cfg.GameHostURL)
	return grant.NewHTTPGranter(cfg.GameHostURL, nil)
}
