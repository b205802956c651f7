package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// Example returns the configuration written by Init.
func Example() *Config {
	no := false
	return &Config{
		Version: "1",
		Host: HostConfig{
			BaseDir:   "./static",
			URLPrefix: "/static",
		},
		Build: BuildConfig{
			FilterTimeout: 60 * time.Second,
			Manifest:      "./static/manifest.json",
			History:       "./.cache/history.db",
		},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
		Watch:   WatchConfig{Debounce: 500 * time.Millisecond},
		Filters: map[string][]StepConfig{
			"autoprefix": {{Command: "postcss --use autoprefixer", Mode: "--"}},
		},
		Bundles: map[string]BundleConfig{
			"vendor": {
				Contents: []ContentConfig{{Path: "vendor/*.css"}},
				Build:    &no,
			},
			"css": {
				Contents:  []ContentConfig{{Bundle: "vendor"}, {Path: "css/reset.css"}, {Path: "css/**/*.less"}},
				Output:    "gen/site.%s.min.css",
				Filters:   []string{"less", "autoprefix", "cssmin"},
				CacheFile: ".cache/css.json",
			},
			"js": {
				Contents:  []ContentConfig{{Path: "js/*.js"}},
				Output:    "gen/site.%s.min.js",
				Filters:   []string{"uglifyjs"},
				CacheFile: ".cache/js.json",
			},
		},
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return aerrors.ValidationFailed("path", fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := workspace.WriteFileAtomic(configPath, data, 0o644); err != nil {
		return aerrors.OutputWrite(configPath, err)
	}
	return nil
}
