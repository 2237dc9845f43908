// The sync subcommand: one full pipeline run.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalgu/notion-hugo-flow/internal/build"
	"github.com/adalgu/notion-hugo-flow/internal/hugo"
	"github.com/adalgu/notion-hugo-flow/internal/ledger"
	"github.com/adalgu/notion-hugo-flow/internal/notion"
	"github.com/adalgu/notion-hugo-flow/internal/resolver"
	"github.com/adalgu/notion-hugo-flow/internal/syncer"
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

var (
	syncFull             bool
	syncDryRun           bool
	syncPropagateDeletes bool
	syncDatabase         string
	syncYes              bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync from the Notion database to the content directory",
	Long: `Sync fetches the database listing, maps each edited page to front
matter and markdown, and writes only the documents whose rendered output
changed. A dry run computes and reports the plan without touching files,
the ledger, or the remote store beyond reads.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "resync every record regardless of edit timestamps")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute and report the plan without writing anything")
	syncCmd.Flags().BoolVar(&syncPropagateDeletes, "propagate-deletes", false, "delete local documents whose records vanished remotely")
	syncCmd.Flags().StringVar(&syncDatabase, "database", "", "database ID (overrides config)")
	syncCmd.Flags().BoolVar(&syncYes, "yes", false, "confirm container creation when the reference is a plain page")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := buildSyncConfig(loadedConfig)
	if err != nil {
		return err
	}
	if syncDatabase != "" {
		cfg.ContainerRef = syncDatabase
	}
	if syncFull {
		cfg.Mode = types.ModeFull
	}
	cfg.DryRun = syncDryRun
	if cmd.Flags().Changed("propagate-deletes") {
		cfg.PropagateDeletes = syncPropagateDeletes
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	token, err := notionToken()
	if err != nil {
		return err
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}

	client := notion.New(token,
		notion.WithRateLimit(cfg.RequestsPerSecond),
		notion.WithLogger(appLogger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve the reference before taking the lock or opening the ledger;
	// an unusable reference should fail fast.
	res, err := resolver.New(client, cfg.Rules, resolver.Options{
		AutoRepair:       !cfg.DryRun,
		ConfirmCreate:    syncYes,
		FallbackParentID: loadedConfig.GetString(cfgKeyFallbackParent),
		LargeThreshold:   cfg.LargeContainerThreshold,
	}, appLogger).Resolve(ctx, cfg.ContainerRef)
	if err != nil {
		return err
	}
	if res.Recommendation != "" {
		appLogger.Printf("resolver: %s", res.Recommendation)
		if res.ContainerID == "" {
			// A page reference without creation confirmed cannot be synced.
			return fmt.Errorf("cannot sync %s: %s", cfg.ContainerRef, res.Recommendation)
		}
	}
	cfg.ContainerRef = res.ContainerID

	lock, err := syncer.AcquireLock(dataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := ledger.Open(filepath.Join(dataDir, "ledger.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	writer := hugo.NewWriter(cfg.ContentDir, cfg.Extension, cfg.FilenameFormat, cfg.DateLayout)

	hook := build.NopHook()
	if command := loadedConfig.GetStringSlice(cfgKeyBuildCommand); len(command) > 0 {
		hook = build.ExecHook(command, os.Stderr)
	}

	engine := syncer.New(cfg, client, store, writer,
		syncer.WithBuildHook(hook),
		syncer.WithLogger(appLogger),
	)

	result, err := engine.Sync(ctx)
	if result != nil {
		if perr := printResult(result); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("sync aborted: %s", result.AbortReason)
	}
	return nil
}

// printResult writes the run summary as text or JSON per the --json flag.
func printResult(r *types.RunResult) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	mode := r.Mode
	if r.DryRun {
		mode += " (dry run)"
	}
	fmt.Printf("run %s [%s]: %d created, %d updated, %d deleted, %d unchanged, %d skipped, %d errored\n",
		r.RunID, mode, r.Created, r.Updated, r.Deleted, r.Unchanged, r.Skipped, r.Errored)
	fmt.Printf("remote calls: %d, duration: %s\n", r.RemoteCalls, r.Duration.Round(time.Millisecond))
	for _, e := range r.Errors {
		fmt.Printf("  error [%s] %s: %s\n", e.Op, e.RecordID, e.Message)
	}
	return nil
}
