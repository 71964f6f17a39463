// Package config resolves bdx's store directory and per-run indexing
// options with the precedence spec §6 requires: an explicit flag,
// then the BDX_INDEX_DIR environment variable, then an optional
// .bdx.yaml in the working directory or home directory, then a
// built-in default.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	envIndexDir    = "BDX_INDEX_DIR"
	configFileName = ".bdx"
	defaultDirName = ".bdx-index"
)

// Config is the resolved set of indexing options any bdx subcommand
// may need (spec §4.4's per-option flags plus the store location).
type Config struct {
	IndexDir         string
	NumProcesses     int
	IndexRelocations bool
	MinSymbolSize    uint64
	UseDWARFDump     bool
}

// Load resolves Config from (in precedence order) flagIndexDir, the
// BDX_INDEX_DIR environment variable, an optional .bdx.yaml, and
// built-in defaults. flagIndexDir may be empty if --store-dir wasn't
// passed.
func Load(flagIndexDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetDefault("index_dir", defaultIndexDir())
	v.SetDefault("num_processes", 4)
	v.SetDefault("index_relocations", true)
	v.SetDefault("min_symbol_size", 0)
	v.SetDefault("use_dwarfdump", false)

	v.SetEnvPrefix("BDX")
	v.BindEnv("index_dir", envIndexDir)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		IndexDir:         v.GetString("index_dir"),
		NumProcesses:     v.GetInt("num_processes"),
		IndexRelocations: v.GetBool("index_relocations"),
		MinSymbolSize:    uint64(v.GetInt64("min_symbol_size")),
		UseDWARFDump:     v.GetBool("use_dwarfdump"),
	}
	if flagIndexDir != "" {
		cfg.IndexDir = flagIndexDir
	}
	return cfg, nil
}

func defaultIndexDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, defaultDirName)
	}
	return defaultDirName
}

// ApplyOptions overrides cfg's indexing flags from a -o/--opt
// key=value map (spec §6), leaving any key not present untouched.
func (c *Config) ApplyOptions(opts map[string]string) error {
	for k, v := range opts {
		switch k {
		case "num_processes":
			n, err := parseIntOption(k, v)
			if err != nil {
				return err
			}
			c.NumProcesses = n
		case "index_relocations":
			b, err := parseBoolOption(k, v)
			if err != nil {
				return err
			}
			c.IndexRelocations = b
		case "min_symbol_size":
			n, err := parseIntOption(k, v)
			if err != nil {
				return err
			}
			c.MinSymbolSize = uint64(n)
		case "use_dwarfdump":
			b, err := parseBoolOption(k, v)
			if err != nil {
				return err
			}
			c.UseDWARFDump = b
		}
	}
	return nil
}
