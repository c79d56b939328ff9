// Package config holds the server configuration, loaded from a yaml
// file when one is given and falling back to defaults otherwise.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config ...
type Config struct {
	Listen      string `yaml:"listen"`
	TempDir     string `yaml:"tempdir"`
	MaxUploadMB int64  `yaml:"maxUploadMB"`
	DefaultEPSG int    `yaml:"defaultEPSG"`
	CounterFile string `yaml:"counterFile"`
}

// Default ...
func Default() Config {
	return Config{
		Listen:      ":8000",
		TempDir:     os.TempDir(),
		MaxUploadMB: 64,
		DefaultEPSG: 4326,
		CounterFile: "./apilog",
	}
}

// Load reads a yaml config over the defaults. A missing path is not an
// error, the defaults simply stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("[Load] in pkg [config] encountered: %v", err)
	}
	return cfg, nil
}
