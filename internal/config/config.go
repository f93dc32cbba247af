/*
Copyright 2024 The Chronos Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the chronos configuration: an optional YAML file,
// overlaid with environment variables, merged with defaults and validated.
package config

import (
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Oabraham1/chronos/pkg/util"
)

const (
	lockDirEnvVar       = "CHRONOS_LOCK_DIR"
	monitorPeriodEnvVar = "CHRONOS_MONITOR_PERIOD"
	logLevelEnvVar      = "CHRONOS_LOG_LEVEL"
	serverAddrEnvVar    = "CHRONOS_SERVER_ADDR"
)

// Duration is a time.Duration that unmarshals from a YAML string like "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// StaticDevice declares one device for the static enumerator.
type StaticDevice struct {
	Name        string `yaml:"name" validate:"required"`
	Vendor      string `yaml:"vendor"`
	Version     string `yaml:"version"`
	TotalMemory uint64 `yaml:"totalMemory" validate:"gt=0"`
}

// ServerConfig configures the optional HTTP status surface.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Config is the chronos runtime configuration.
type Config struct {
	// LockDir is the shared lock directory. Empty selects the platform
	// temp directory joined with chronos_locks.
	LockDir string `yaml:"lockDir"`

	// MonitorPeriod is the gap between expiration sweeps.
	MonitorPeriod Duration `yaml:"monitorPeriod" validate:"min=100000000"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info error"`

	// Enumerator selects the device backend: auto, nvml, sysfs or static.
	Enumerator string `yaml:"enumerator" validate:"oneof=auto nvml sysfs static"`

	// StaticDevices backs the static enumerator.
	StaticDevices []StaticDevice `yaml:"staticDevices" validate:"dive"`

	Server ServerConfig `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MonitorPeriod: Duration(time.Second),
		LogLevel:      "info",
		Enumerator:    "auto",
		Server: ServerConfig{
			Addr: "127.0.0.1:9395",
		},
	}
}

// Load reads path (optional), overlays environment variables and validates
// the result. A missing file at the default path is not an error; an
// explicit path that cannot be read is.
func Load(path string, pathExplicit bool) (Config, error) {
	cfg := Config{}

	// A .env next to the binary is a convenience for local deployments.
	_ = godotenv.Load()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, errors.Wrapf(err, "parsing config file %s", path)
			}
		case os.IsNotExist(err) && !pathExplicit:
			// Fall through to defaults.
		default:
			return Config{}, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, errors.Wrap(err, "merging config defaults")
	}

	cfg.LockDir = util.ResolveOsEnvString(lockDirEnvVar, cfg.LockDir)
	cfg.LogLevel = util.ResolveOsEnvString(logLevelEnvVar, cfg.LogLevel)
	cfg.Server.Addr = util.ResolveOsEnvString(serverAddrEnvVar, cfg.Server.Addr)

	if period, err := util.ResolveOsEnvDuration(monitorPeriodEnvVar); err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", monitorPeriodEnvVar)
	} else if period != nil {
		cfg.MonitorPeriod = Duration(*period)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "validating config")
	}

	return cfg, nil
}

// Period returns the monitor period as a time.Duration.
func (c Config) Period() time.Duration {
	return time.Duration(c.MonitorPeriod)
}
