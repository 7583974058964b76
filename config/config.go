// Package config loads the optional YAML configuration file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds everything the binaries read at startup. Flags override
// individual fields.
type Config struct {
	// DatabasePath is the reference database blob.
	DatabasePath string `yaml:"database"`
	// Port is the HTTP listen port in server mode.
	Port int `yaml:"port"`
	// TopN is the default candidate list size.
	TopN int `yaml:"top_n"`
	// AuthSecret, when set, requires a bearer token signed with it
	// (HS256) on every /api request.
	AuthSecret string `yaml:"auth_secret"`
	// WatchDatabase reloads the blob when it changes on disk.
	WatchDatabase bool `yaml:"watch_database"`
}

func Default() Config {
	return Config{
		DatabasePath: "kanjimatch.kdb",
		Port:         8787,
		TopN:         5,
	}
}

// Load reads path over the defaults. A missing file is not an error; a
// present but unreadable one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}
