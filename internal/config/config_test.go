package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/filter"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

const sampleYAML = `
version: "1"
host:
  base_dir: ./static
  url_prefix: /assets
build:
  filter_timeout: 5s
  manifest: ./static/manifest.json
filters:
  upper:
    - command: tr a-z A-Z
      mode: "--"
bundles:
  vendor:
    contents: [vendor/*.css]
    build: false
  css:
    contents:
      - bundle: vendor
      - css/a.css
    output: gen/site.%s.css
    filters: [upper, cssmin]
    cache_file: .cache/css.json
    debug: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadAppliesDefaultsAndResolvesPaths(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "static"), cfg.BaseDir())
	assert.Equal(t, filepath.Join(dir, "static", "manifest.json"), cfg.ManifestPath())
	assert.Empty(t, cfg.MetricsTextfile())
	assert.Equal(t, 5*time.Second, cfg.Build.FilterTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "assetbuilder.bundles", cfg.Events.Subject)
	assert.False(t, cfg.Events.Enabled())

	css := cfg.Bundles["css"]
	require.Len(t, css.Contents, 2)
	assert.Equal(t, ContentConfig{Bundle: "vendor"}, css.Contents[0])
	assert.Equal(t, ContentConfig{Path: "css/a.css"}, css.Contents[1])
	require.NotNil(t, css.Debug)
	assert.True(t, *css.Debug)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, aerrors.CategoryConfig, aerrors.GetCategory(err))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "bundles:\n  css:\n    contents: [a.css]\n    outptu: x.css\n"))
	require.Error(t, err)
	assert.Equal(t, aerrors.CategoryConfig, aerrors.GetCategory(err))
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ASSET_PREFIX", "/cdn")
	cfg, err := Load(writeConfig(t, "host:\n  url_prefix: ${ASSET_PREFIX}\nbundles:\n  css:\n    contents: [a.css]\n"))
	require.NoError(t, err)
	assert.Equal(t, "/cdn", cfg.Host.URLPrefix)
}

func TestValidationProblems(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"no bundles", "version: \"1\"\n", "bundles"},
		{"empty contents", "bundles:\n  css:\n    contents: []\n", "bundles.css.contents"},
		{"unknown nested", "bundles:\n  css:\n    contents: [{bundle: nope}]\n", "bundles.css.contents[0]"},
		{"two placeholders", "bundles:\n  css:\n    contents: [a.css]\n    output: a.%s.%s.css\n", "bundles.css.output"},
		{"unknown filter", "bundles:\n  css:\n    contents: [a.css]\n    filters: [sass]\n", "bundles.css.filters"},
		{"bad mode", "filters:\n  x:\n    - {command: cat, mode: zz}\nbundles:\n  css:\n    contents: [a.css]\n", "filters.x[0]"},
		{"shadowed filter", "filters:\n  less:\n    - {command: cat}\nbundles:\n  css:\n    contents: [a.css]\n", "filters.less"},
		{"bad log level", "logging: {level: loud}\nbundles:\n  css:\n    contents: [a.css]\n", "logging.level"},
		{"cycle", "bundles:\n  a:\n    contents: [{bundle: b}]\n  b:\n    contents: [{bundle: a}]\n", "bundles.a.contents"},
		{"self cycle", "bundles:\n  a:\n    contents: [{bundle: a}]\n", "bundles.a.contents"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), t.TempDir())
			require.Error(t, err)
			ae, ok := aerrors.As(err)
			require.True(t, ok)
			assert.Equal(t, aerrors.CategoryValidation, ae.Category)
			assert.Equal(t, tc.field, ae.Context["field"])
		})
	}
}

func TestContentMappingNeedsBundleKey(t *testing.T) {
	_, err := Parse([]byte("bundles:\n  css:\n    contents: [{file: a.css}]\n"), t.TempDir())
	require.Error(t, err)
}

func TestBuildBundles(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	bundles, err := cfg.BuildBundles()
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	css := bundles["css"]
	vendor := bundles["vendor"]
	assert.Equal(t, "css", css.Name())
	assert.Equal(t, "gen/site.%s.css", css.Output())
	assert.Equal(t, ".cache/css.json", css.CacheFile())
	assert.False(t, vendor.BuildEnabled())

	contents := css.Contents()
	require.Len(t, contents, 2)
	assert.Equal(t, bundle.KindNested, contents[0].Kind())
	assert.Same(t, vendor, contents[0].Bundle())
	assert.Equal(t, bundle.KindFile, contents[1].Kind())
	assert.Equal(t, bundle.KindGlob, vendor.Contents()[0].Kind())

	chains := css.Filters()
	require.Len(t, chains, 2)
	assert.Equal(t, filter.Chain{{Command: "tr a-z A-Z", Mode: filter.ModeStream}}, chains[0])
	assert.Equal(t, filter.CSSMin, chains[1])
}

func TestNewRegistryUsesHostDefaults(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	reg, err := cfg.NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"css", "vendor"}, reg.Names())

	opts, err := reg.Options("css")
	require.NoError(t, err)
	assert.Equal(t, "/assets", opts.URLPrefix)
	assert.Equal(t, cfg.BaseDir(), opts.BaseDir)
	assert.True(t, opts.Debug)
}

func TestInitWritesLoadableExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Example().Bundles["css"].Filters, cfg.Bundles["css"].Filters)
	assert.Equal(t, ContentConfig{Bundle: "vendor"}, cfg.Bundles["css"].Contents[0])
	assert.Equal(t, time.Minute, cfg.Build.FilterTimeout)

	err = Init(path, false)
	require.Error(t, err)
	assert.NoError(t, Init(path, true))
}

func TestEventRetryPolicy(t *testing.T) {
	cfg, err := Parse([]byte(`
events:
  nats_url: nats://localhost:4222
  retry_backoff: exponential
  retry_initial: 100ms
  retry_max: 1s
  max_retries: 0
bundles:
  css:
    contents: [a.css]
`), t.TempDir())
	require.NoError(t, err)
	p := cfg.Events.RetryPolicy()
	assert.Equal(t, retry.ModeExponential, p.Mode)
	assert.Equal(t, 100*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
	assert.Equal(t, 0, p.MaxRetries)

	assert.Equal(t, retry.DefaultPolicy(), EventsConfig{}.RetryPolicy())

	_, err = Parse([]byte("events:\n  retry_backoff: sometimes\nbundles:\n  css:\n    contents: [a.css]\n"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.retry_backoff")
}

func TestLogLevelParsing(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("nonsense"))
	_, err := ParseLogLevel("nonsense")
	assert.Error(t, err)

	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ASSETBUILDER_TEST_A=from-env\nASSETBUILDER_TEST_B=from-env\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("ASSETBUILDER_TEST_A=from-local\n"), 0o644))
	t.Setenv("ASSETBUILDER_TEST_A", "")
	t.Setenv("ASSETBUILDER_TEST_B", "")
	require.NoError(t, os.Unsetenv("ASSETBUILDER_TEST_A"))
	require.NoError(t, os.Unsetenv("ASSETBUILDER_TEST_B"))

	loaded, err := LoadEnv(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "from-local", os.Getenv("ASSETBUILDER_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("ASSETBUILDER_TEST_B"))
}
