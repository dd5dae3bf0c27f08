// Package config loads mediaguard settings from defaults, an optional
// .mediaguard.yaml file, MEDIAGUARD_* environment variables and command
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ankit-chaubey/media-metadata-guard/core/classify"
	"github.com/ankit-chaubey/media-metadata-guard/internal/logging"
)

// Config is the resolved settings tree.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Assert AssertConfig `mapstructure:"assert"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AssertConfig struct {
	Jobs             int    `mapstructure:"jobs"`
	MaxMetadataBytes int64  `mapstructure:"max_metadata_bytes"`
	ReportFile       string `mapstructure:"report_file"`
}

// Defaults returns the built-in value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":                 "info",
		"log.format":                "text",
		"assert.jobs":               runtime.NumCPU(),
		"assert.max_metadata_bytes": classify.DefaultMaxMetadataBytes,
		"assert.report_file":        "",
	}
}

// flagKeys maps command flags to the keys they override.
var flagKeys = map[string]string{
	"log-level":          "log.level",
	"log-format":         "log.format",
	"jobs":               "assert.jobs",
	"max-metadata-bytes": "assert.max_metadata_bytes",
	"report-file":        "assert.report_file",
}

// Load resolves the configuration for cmd. When file is empty the
// .mediaguard.yaml in $HOME or the working directory is used if present;
// a missing default file is not an error, a missing explicit one is.
func Load(cmd *cobra.Command, file string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".mediaguard")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("MEDIAGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects values no command can run with.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Assert.Jobs < 1 {
		return fmt.Errorf("assert.jobs must be at least 1, got %d", c.Assert.Jobs)
	}
	if c.Assert.MaxMetadataBytes < 1 {
		return fmt.Errorf("assert.max_metadata_bytes must be positive, got %d", c.Assert.MaxMetadataBytes)
	}
	return nil
}
