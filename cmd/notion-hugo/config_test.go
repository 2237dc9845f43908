package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

func TestLoadConfigSeedsDefaultFile(t *testing.T) {
	dir := t.TempDir()

	v, err := loadConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: incremental")
	assert.NotContains(t, string(data), "token", "config must never carry credentials")

	assert.Equal(t, types.ModeIncremental, v.GetString(cfgKeyMode))
	assert.Equal(t, 4, v.GetInt(cfgKeyConcurrency))
}

func TestLoadConfigExistingFileNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileExt)
	require.NoError(t, os.WriteFile(path, []byte("database: db-custom\nconcurrency: 8\n"), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "db-custom", v.GetString(cfgKeyDatabase))
	assert.Equal(t, 8, v.GetInt(cfgKeyConcurrency))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "database: db-custom\nconcurrency: 8\n", string(data))
}

func TestBuildSyncConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(`database: db-1
mode: full
propagate_deletes: true
filename_format: date-title
mappings:
  - target: series
    sources: [series]
    transform: set-join
  - target: draft
    sources: [hidden]
`), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)

	cfg, err := buildSyncConfig(v)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "db-1", cfg.ContainerRef)
	assert.Equal(t, types.ModeFull, cfg.Mode)
	assert.True(t, cfg.PropagateDeletes)
	assert.Equal(t, types.FilenameDateTitle, cfg.FilenameFormat)

	byTarget := map[string]types.MappingRule{}
	for _, r := range cfg.Rules {
		byTarget[r.TargetKey] = r
	}
	assert.Equal(t, []string{"series"}, byTarget["series"].SourceKeys, "user rule appended")
	assert.Equal(t, []string{"hidden"}, byTarget["draft"].SourceKeys, "user rule replaces built-in")
	assert.Equal(t, []string{"title", "Name"}, byTarget["title"].SourceKeys, "built-in rule preserved")
}

func TestDecodeMappingsRejectsMalformed(t *testing.T) {
	_, err := decodeMappings([]any{
		map[string]any{"target": "series"}, // no sources
	})
	require.ErrorIs(t, err, types.ErrRuleSourcesEmpty)

	_, err = decodeMappings("not a list")
	require.Error(t, err)

	rules, err := decodeMappings(nil)
	require.NoError(t, err)
	assert.Nil(t, rules)
}
