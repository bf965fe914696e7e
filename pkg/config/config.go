// The file cache uses flags and a single optional config file for configuration.
// A config file is a JSON object whose keys are flag names, e.g. {"cache_dir": "/var/cache/app", "shard_depth": 2}.
// Nested objects only group related flags; their names are ignored: {"storage": {"shard_depth": 2}} is the same as the
// previous example. Flags given on the command line win over the config file.

package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

var configFile = flag.String("config_file", "", "Path to a JSON configuration file keyed by flag names.")

// InitFlags parses the command line and then applies the config file given by --config_file.
// It should be called after defining all flags and before using them.
func InitFlags() error {
	flag.Parse()

	if *configFile == "" {
		slog.Debug("Config file not specified. Skipping config initialization.")
		return nil
	}
	configBytes, err := os.ReadFile(*configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := ApplyConfig(configBytes, commandLineFlags()); err != nil {
		return fmt.Errorf("failed to apply config file %s: %w", *configFile, err)
	}
	slog.Debug("Applied config file.", "path", *configFile)
	return nil
}

// commandLineFlags returns the names of the flags set on the command line.
func commandLineFlags() map[ /*flagName*/ string]struct{} {
	setFlags := make(map[string]struct{})
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })
	return setFlags
}
