package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mbks/GhostfolioSidekick/src/config"
	"github.com/mbks/GhostfolioSidekick/src/ghostfolio"
	"github.com/mbks/GhostfolioSidekick/src/logger"
	"github.com/mbks/GhostfolioSidekick/src/parsers"
	"github.com/mbks/GhostfolioSidekick/src/parsers/generic"
	"github.com/mbks/GhostfolioSidekick/src/parsers/nexo"
	"github.com/mbks/GhostfolioSidekick/src/parsers/trading212"
	"github.com/mbks/GhostfolioSidekick/src/store"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("GhostfolioSidekick starting...")

	logger.L.Info("Initializing holdings store...", "path", config.Cfg.DatabasePath)
	holdingsStore, err := store.New(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to initialize holdings store", "error", err)
		os.Exit(1)
	}
	defer holdingsStore.Close()

	// Registered in fixed priority order; the first parser claiming a file
	// wins, so the generic catch-all format goes last.
	registry := parsers.NewRegistry(
		trading212.NewParser(),
		nexo.NewParser(),
		generic.NewParser(),
	)

	imported, skipped := importFolder(registry, holdingsStore, config.Cfg.WatchFolder, config.Cfg.DefaultAccountName)
	logger.L.Info("Import finished", "imported", imported, "skipped", skipped)

	syncSummary(holdingsStore)
}

// importFolder dispatches every file in the watch folder through the
// registry. Files no parser claims are skipped, not failed, so the folder
// may mix formats and unrelated files.
func importFolder(registry *parsers.Registry, sink *store.Store, folder, accountName string) (imported, skipped int) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		logger.L.Error("Failed to read watch folder", "folder", folder, "error", err)
		os.Exit(1)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(folder, entry.Name())

		matched, err := registry.ParseFile(path, sink, accountName)
		if err != nil {
			// A malformed file fails alone; files already imported stand.
			logger.L.Error("Failed to parse file", "file", path, "error", err)
			continue
		}
		if !matched {
			logger.L.Info("No parser recognized file, skipping", "file", path)
			skipped++
			continue
		}
		logger.L.Info("Imported file", "file", path)
		imported++
	}
	return imported, skipped
}

// syncSummary reports how the stored activities compare with the remote
// ledger; the actual reconciliation diff runs as a separate step.
func syncSummary(holdingsStore *store.Store) {
	if config.Cfg.GhostfolioAccessToken == "" {
		logger.L.Warn("GHOSTFOLIO_ACCESS_TOKEN not set, skipping remote summary")
		return
	}

	ctx := context.Background()
	rest := ghostfolio.NewRestCall(ghostfolio.NewMemoryCache(), config.Cfg.GhostfolioURL, config.Cfg.GhostfolioAccessToken)
	client := ghostfolio.NewClient(rest)

	account, err := client.GetAccountByName(ctx, config.Cfg.DefaultAccountName)
	if err != nil {
		logger.L.Error("Failed to look up account", "account", config.Cfg.DefaultAccountName, "error", err)
		return
	}
	if account == nil {
		logger.L.Warn("Account not found on remote", "account", config.Cfg.DefaultAccountName)
		return
	}

	activities, err := client.GetAllActivities(ctx)
	if err != nil {
		logger.L.Error("Failed to fetch remote activities", "error", err)
		return
	}

	synced := make(map[string]bool, len(activities))
	for _, activity := range activities {
		if id := activity.ExternalID(); id != "" {
			synced[id] = true
		}
	}

	stored, err := holdingsStore.Activities(account.Name)
	if err != nil {
		logger.L.Error("Failed to read stored activities", "error", err)
		return
	}

	var pending int
	for _, activity := range stored {
		if !synced[activity.ExternalID] {
			pending++
		}
	}
	logger.L.Info("Sync summary",
		"account", account.Name,
		"stored", len(stored),
		"remote", len(activities),
		"pendingSync", pending)
}
