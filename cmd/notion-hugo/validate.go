// The validate subcommand: resolve the configured reference and report.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalgu/notion-hugo-flow/internal/notion"
	"github.com/adalgu/notion-hugo-flow/internal/resolver"
)

var (
	validateRepair   bool
	validateDatabase string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured database reference and its schema",
	Long: `Validate checks the reference without running a sync: is it a
database the integration can read, does the schema carry every field the
mapping requires, and is the database small enough for a full fetch.
With --repair, missing required fields are created additively; existing
fields are never modified.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateRepair, "repair", false, "create missing required schema fields")
	validateCmd.Flags().StringVar(&validateDatabase, "database", "", "database ID (overrides config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := buildSyncConfig(loadedConfig)
	if err != nil {
		return err
	}
	if validateDatabase != "" {
		cfg.ContainerRef = validateDatabase
	}
	if cfg.ContainerRef == "" {
		return fmt.Errorf("no database configured: set %q in config.yaml or pass --database", cfgKeyDatabase)
	}

	token, err := notionToken()
	if err != nil {
		return err
	}
	client := notion.New(token,
		notion.WithRateLimit(cfg.RequestsPerSecond),
		notion.WithLogger(appLogger),
	)

	res, rerr := resolver.New(client, cfg.Rules, resolver.Options{
		AutoRepair:       validateRepair,
		FallbackParentID: loadedConfig.GetString(cfgKeyFallbackParent),
		LargeThreshold:   cfg.LargeContainerThreshold,
	}, appLogger).Resolve(cmd.Context(), cfg.ContainerRef)

	if err := printResolution(res); err != nil {
		return err
	}
	return rerr
}

// printResolution writes the resolver report as text or JSON.
func printResolution(res *resolver.Resolution) error {
	if res == nil {
		return nil
	}
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("state: %s\n", res.State)
	if res.ContainerID != "" {
		fmt.Printf("database: %s", res.ContainerID)
		if res.Title != "" {
			fmt.Printf(" (%s)", res.Title)
		}
		fmt.Println()
	}
	if len(res.CreatedFields) > 0 {
		fmt.Printf("created fields: %s\n", strings.Join(res.CreatedFields, ", "))
	}
	if res.EstimatedCount > 0 {
		fmt.Printf("estimated records: %d\n", res.EstimatedCount)
	}
	if res.Recommendation != "" {
		fmt.Printf("recommendation: %s\n", res.Recommendation)
	}
	return nil
}
