// Config loading for the notion-hugo CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyDatabase          = "database"
	cfgKeyMode              = "mode"
	cfgKeyPropagateDeletes  = "propagate_deletes"
	cfgKeyConcurrency       = "concurrency"
	cfgKeyPageSize          = "page_size"
	cfgKeyRequestsPerSecond = "requests_per_second"
	cfgKeyContentDir        = "content_dir"
	cfgKeyExtension         = "extension"
	cfgKeyFilenameFormat    = "filename_format"
	cfgKeyDateLayout        = "date_layout"
	cfgKeyLargeThreshold    = "large_container_threshold"
	cfgKeyMappings          = "mappings"
	cfgKeyFallbackParent    = "fallback_parent"
	cfgKeyDataDir           = "data_dir"
	cfgKeyLogFile           = "log_file"
	cfgKeyBuildCommand      = "build_command"

	// envToken is the only place the integration token is read from. It
	// never appears in config.yaml or in any output.
	envToken = "NOTION_TOKEN"
)

// errMissingToken reports an absent integration token.
var errMissingToken = errors.New("NOTION_TOKEN environment variable is not set")

// loadedConfig is the viper instance populated by PersistentPreRunE.
var loadedConfig *viper.Viper

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# notion-hugo configuration
# The integration token is read from the NOTION_TOKEN environment variable
# and must never be written to this file.

# Notion database (or page) ID to sync from.
# database:

# Sync behavior.
mode: incremental
propagate_deletes: false
concurrency: 4
page_size: 100
requests_per_second: 2.5

# Local output.
content_dir: content/posts
extension: .md
filename_format: uuid   # uuid | title | date-title
date_layout: "2006-01-02"

# Page a replacement database is created under when the configured one
# cannot be repaired (optional; creation still requires --yes).
# fallback_parent:

# Data directory for the sync ledger and run lock (optional; overridable
# by --data-dir).
# data_dir:

# Rotated log file (optional; stderr when unset).
# log_file:

# Command run after a successful sync; {dir} expands to content_dir.
# build_command: ["hugo", "--contentDir", "{dir}"]

# Extra front matter mappings, overlaid on the built-in rules by target.
# mappings:
#   - target: series
#     sources: [series]
#     transform: set-join
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	defaults := types.DefaultSyncConfig()
	v.SetDefault(cfgKeyMode, defaults.Mode)
	v.SetDefault(cfgKeyConcurrency, defaults.Concurrency)
	v.SetDefault(cfgKeyPageSize, defaults.PageSize)
	v.SetDefault(cfgKeyRequestsPerSecond, defaults.RequestsPerSecond)
	v.SetDefault(cfgKeyContentDir, defaults.ContentDir)
	v.SetDefault(cfgKeyExtension, defaults.Extension)
	v.SetDefault(cfgKeyFilenameFormat, defaults.FilenameFormat)
	v.SetDefault(cfgKeyDateLayout, defaults.DateLayout)
	v.SetDefault(cfgKeyLargeThreshold, defaults.LargeContainerThreshold)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config.yaml is not an error.
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// buildSyncConfig assembles the run config from defaults, config.yaml, and
// flags, in that precedence order. The result is validated by the engine.
func buildSyncConfig(v *viper.Viper) (types.SyncConfig, error) {
	cfg := types.DefaultSyncConfig()
	cfg.ContainerRef = v.GetString(cfgKeyDatabase)
	cfg.Mode = v.GetString(cfgKeyMode)
	cfg.PropagateDeletes = v.GetBool(cfgKeyPropagateDeletes)
	cfg.Concurrency = v.GetInt(cfgKeyConcurrency)
	cfg.PageSize = v.GetInt(cfgKeyPageSize)
	cfg.RequestsPerSecond = v.GetFloat64(cfgKeyRequestsPerSecond)
	cfg.ContentDir = v.GetString(cfgKeyContentDir)
	cfg.Extension = v.GetString(cfgKeyExtension)
	cfg.FilenameFormat = v.GetString(cfgKeyFilenameFormat)
	cfg.DateLayout = v.GetString(cfgKeyDateLayout)
	cfg.LargeContainerThreshold = v.GetInt(cfgKeyLargeThreshold)

	user, err := decodeMappings(v.Get(cfgKeyMappings))
	if err != nil {
		return cfg, err
	}
	cfg.Rules = types.MergeRules(types.DefaultRules(), user)

	return cfg, nil
}

// decodeMappings converts the raw mappings list from config.yaml into
// rules. Unknown keys are ignored; malformed entries are rejected here so
// the error names the entry rather than failing deep inside a run.
func decodeMappings(raw any) ([]types.MappingRule, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config key %q: expected a list of mappings", cfgKeyMappings)
	}

	rules := make([]types.MappingRule, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config key %q: entry %d is not a mapping", cfgKeyMappings, i)
		}
		var rule types.MappingRule
		if s, ok := entry["target"].(string); ok {
			rule.TargetKey = s
		}
		if s, ok := entry["transform"].(string); ok {
			rule.Transform = s
		}
		if b, ok := entry["required"].(bool); ok {
			rule.Required = b
		}
		if s, ok := entry["default"].(string); ok {
			rule.Default = s
		}
		if srcs, ok := entry["sources"].([]any); ok {
			for _, s := range srcs {
				if str, ok := s.(string); ok {
					rule.SourceKeys = append(rule.SourceKeys, str)
				}
			}
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("config key %q entry %d: %w", cfgKeyMappings, i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// notionToken reads the integration token from the environment.
func notionToken() (string, error) {
	token := os.Getenv(envToken)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
