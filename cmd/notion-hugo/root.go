// Root command for the notion-hugo CLI.
package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/adalgu/notion-hugo-flow/internal/paths"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// Values loaded by PersistentPreRunE so all subcommands can use them.
var (
	configDataDir string
	appLogger     *log.Logger
)

var rootCmd = &cobra.Command{
	Use:     "notion-hugo",
	Short:   "Sync a Notion database into a Hugo content directory",
	Long: `notion-hugo mirrors pages of a Notion database into Hugo content
files. Runs are one-way and incremental: only pages edited since the last
run are refetched, and only pages whose rendered output actually changed
are rewritten.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version needs no configuration.
		if cmd.Name() == "version" {
			return nil
		}

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		configDataDir = cfg.GetString(cfgKeyDataDir)

		appLogger = newLogger(cfg.GetString(cfgKeyLogFile))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.notion-hugo)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.notion-hugo-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(validateCmd)
}

// newLogger builds the shared logger. With a log file configured the sink
// is a size-rotated file; otherwise stderr.
func newLogger(logFile string) *log.Logger {
	var sink io.Writer = os.Stderr
	if logFile != "" {
		sink = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return log.New(sink, "[notion-hugo] ", log.LstdFlags)
}

// resolveDataDir returns the data directory path following the precedence:
// --data-dir flag > config data_dir > NOTION_HUGO_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > NOTION_HUGO_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
