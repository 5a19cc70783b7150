// Package config loads kasir settings from file, environment and flags.
package config

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/intent"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KASIR_LOG_LEVEL
const EnvPrefix = "KASIR"

// Config keys
const (
	KeyDataDir         = "data_dir"
	KeyDatabase        = "database"
	KeyUser            = "user"
	KeyIntentThreshold = "intent.threshold"
	KeyGateTTL         = "gate.ttl"
	KeyEngineSerialize = "engine.serialize"
	KeyBackupDir       = "backup.dir"
	KeyCacheDir        = "cache.dir"
	KeyCatalogDir      = "catalog.dir"
	KeyLogLevel        = "log.level"
	KeyLogJSON         = "log.json"
)

// Config is the resolved runtime configuration
type Config struct {
	DataDir         string
	Database        string
	User            string
	IntentThreshold float64
	GateTTL         time.Duration
	Serialize       action.SerializeMode
	BackupDir       string
	CacheDir        string
	CatalogDir      string
	LogLevel        string
	LogJSON         bool
	// File is the config file that was read, empty when none was found
	File string
}

// DefaultDataDir returns $HOME/.kasir
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kasir"), nil
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault(KeyDataDir, dataDir)
	v.SetDefault(KeyUser, "owner")
	v.SetDefault(KeyIntentThreshold, intent.DefaultThreshold)
	v.SetDefault(KeyGateTTL, action.DefaultPendingTTL)
	v.SetDefault(KeyEngineSerialize, string(action.SerializeNone))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogJSON, false)
}

// Load reads configFile, or config.yaml from the data directory and the
// working directory when configFile is empty. A missing file is fine.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	SetDefaults(v, dataDir)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper resolves a Config from values already present in v. Paths
// left empty are derived from data_dir.
func FromViper(v *viper.Viper) (*Config, error) {
	serialize, err := action.ParseSerializeMode(v.GetString(KeyEngineSerialize))
	if err != nil {
		return nil, err
	}

	threshold := v.GetFloat64(KeyIntentThreshold)
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("%s must be in (0, 1], got %v", KeyIntentThreshold, threshold)
	}

	dataDir := v.GetString(KeyDataDir)
	cfg := &Config{
		DataDir:         dataDir,
		Database:        orDefault(v.GetString(KeyDatabase), filepath.Join(dataDir, "kasir.db")),
		User:            v.GetString(KeyUser),
		IntentThreshold: threshold,
		GateTTL:         v.GetDuration(KeyGateTTL),
		Serialize:       serialize,
		BackupDir:       orDefault(v.GetString(KeyBackupDir), filepath.Join(dataDir, "backups")),
		CacheDir:        orDefault(v.GetString(KeyCacheDir), filepath.Join(dataDir, "cache")),
		CatalogDir:      orDefault(v.GetString(KeyCatalogDir), filepath.Join(dataDir, "catalog")),
		LogLevel:        v.GetString(KeyLogLevel),
		LogJSON:         v.GetBool(KeyLogJSON),
		File:            v.ConfigFileUsed(),
	}
	return cfg, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
