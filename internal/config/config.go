// Package config loads the layered configuration shared by the CLI and
// GUI front ends: built-in defaults, then an optional TOML file, then
// command-line flags, each layer overriding the previous (§4.16).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the set of values front ends may override. The parser package
// itself never reads this type; it exists purely for the CLI and GUI.
type Config struct {
	SymbolServerHost string `toml:"symbol_server_host"`
	Verbose          bool   `toml:"verbose"`
	Color            string `toml:"color"` // "auto", "always", "never"
}

// Default returns the built-in defaults, the base of the layering chain.
func Default() Config {
	return Config{
		SymbolServerHost: "msdl.microsoft.com",
		Verbose:          false,
		Color:            "auto",
	}
}

// defaultConfigFile is the file front ends look for in the working
// directory when -config is not given.
const defaultConfigFile = ".pecoffrc.toml"

// Load builds the layered configuration: defaults, then the TOML file at
// path (or defaultConfigFile if path is empty and that file exists), then
// returns it for flags to override. A malformed config file is returned as
// an error (the CLI exits on it; the GUI falls back to Default); the library never reads files other than the image
// itself, so no error originating here ever reaches package pe.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigFile
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}

	return cfg, nil
}
