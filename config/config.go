// Package config loads the application configuration from an optional
// yaml file, falling back to defaults.
package config

import (
	"io/ioutil"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"
)

// App holds the runtime configuration. Difficulty and the block subsidy
// are compile-time constants, not configuration.
type App struct {
	DBPath      string `yaml:"db_path"`
	WalletsPath string `yaml:"wallets_path"`
	ListenAddr  string `yaml:"listen_addr"`
}

func Default() App {
	return App{
		DBPath:      "blockchain",
		WalletsPath: "wallets",
		ListenAddr:  ":8855",
	}
}

// Load reads the yaml file at path over the defaults. An empty path means
// defaults only; a path that cannot be read is an error, since the user
// asked for that file explicitly.
func Load(path string) (App, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	err = yaml.Unmarshal(raw, &cfg)
	return cfg, errors.Wrapf(err, "parsing config %s", path)
}
