package conf

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
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

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration tree, populated by InitConfig
// from defaults, an optional config file, and environment variables
// prefixed with AppConfig.EnvPrefix (env always wins).
type Config struct {
	Server     ServerConfig
	Tile       TileConfig
	Store      StoreConfig
	Metastore  MetastoreConfig
	Search     SearchConfig
	Regression RegressionConfig
	Cache      CacheConfig
}

// ServerConfig controls the HTTP listener and request lifecycle.
type ServerConfig struct {
	HTTPPort             int
	AdminPort            int
	Debug                bool
	RequestTimeoutSeconds int
	DisableUi            bool
}

// TileConfig fixes the tile geometry every component must agree on.
type TileConfig struct {
	Size   int
	Buffer int
}

// StoreConfig configures the Bigtable-backed Tile Store Adapter.
type StoreConfig struct {
	Project     string
	Instance    string
	SaltModulus int
}

// MetastoreConfig selects between a constant table mapping and one watched
// live from an etcd path.
type MetastoreConfig struct {
	Mode          string // "static" or "watched"
	EtcdEndpoints []string
	WatchPath     string
	StaticTiles   string
	StaticPoints  string
}

// SearchConfig configures the Elasticsearch-backed Search Backend Adapter.
// Addresses may be left empty to disable ad-hoc search entirely.
type SearchConfig struct {
	Addresses []string
	Index     string
}

// RegressionConfig fixes the minimum number of distinct years the
// Regression Engine requires before it will fit a trend line.
type RegressionConfig struct {
	MinYears int
}

// CacheConfig sizes and guards the in-process tile response cache.
type CacheConfig struct {
	MaxEntries         int
	MaxMemoryMB        int
	Enabled            bool
	DisableApi         bool
	ApiKey             string
	BrowserCacheMaxAge int
}

// Configuration holds the process-wide, already-populated config tree.
// InitConfig must run before any package reads it.
var Configuration Config

// InitConfig loads defaults, then an optional TOML config file at path (if
// non-empty), then environment overrides, into Configuration. debug forces
// ServerConfig.Debug regardless of what the file/env specify.
func InitConfig(path string, debug bool) {
	v := viper.New()

	v.SetDefault("Server.HTTPPort", 9000)
	v.SetDefault("Server.AdminPort", 9001)
	v.SetDefault("Server.Debug", false)
	v.SetDefault("Server.RequestTimeoutSeconds", 10)
	v.SetDefault("Server.DisableUi", false)

	v.SetDefault("Tile.Size", 4096)
	v.SetDefault("Tile.Buffer", 64)

	v.SetDefault("Store.Project", "")
	v.SetDefault("Store.Instance", "")
	v.SetDefault("Store.SaltModulus", 16)

	v.SetDefault("Metastore.Mode", "static")
	v.SetDefault("Metastore.EtcdEndpoints", []string{})
	v.SetDefault("Metastore.WatchPath", "/occurrence-tileserver/tables")
	v.SetDefault("Metastore.StaticTiles", "occurrence_tiles_v1")
	v.SetDefault("Metastore.StaticPoints", "occurrence_points_v1")

	v.SetDefault("Search.Addresses", []string{})
	v.SetDefault("Search.Index", "occurrence")

	v.SetDefault("Regression.MinYears", 3)

	v.SetDefault("Cache.MaxEntries", 4096)
	v.SetDefault("Cache.MaxMemoryMB", 256)
	v.SetDefault("Cache.Enabled", true)
	v.SetDefault("Cache.DisableApi", false)
	v.SetDefault("Cache.ApiKey", "")
	v.SetDefault("Cache.BrowserCacheMaxAge", 300)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Warnf("could not read config file %s: %v", path, err)
		}
	}

	v.SetEnvPrefix(AppConfig.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to parse configuration: %v", err)
	}
	if debug {
		cfg.Server.Debug = true
	}

	Configuration = cfg
}

// bindEnv forces viper to recognize every env var name even when the key is
// absent from a config file, matching the teacher's env-var-first posture.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"Server.HTTPPort", "Server.AdminPort", "Server.Debug", "Server.RequestTimeoutSeconds", "Server.DisableUi",
		"Tile.Size", "Tile.Buffer",
		"Store.Project", "Store.Instance", "Store.SaltModulus",
		"Metastore.Mode", "Metastore.EtcdEndpoints", "Metastore.WatchPath", "Metastore.StaticTiles", "Metastore.StaticPoints",
		"Search.Addresses", "Search.Index",
		"Regression.MinYears",
		"Cache.MaxEntries", "Cache.MaxMemoryMB", "Cache.Enabled", "Cache.DisableApi", "Cache.ApiKey", "Cache.BrowserCacheMaxAge",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// DumpConfig logs the active configuration at startup, for operational
// visibility.
func DumpConfig() {
	log.Infof("Server: port=%d adminPort=%d debug=%v timeoutSeconds=%d",
		Configuration.Server.HTTPPort, Configuration.Server.AdminPort, Configuration.Server.Debug, Configuration.Server.RequestTimeoutSeconds)
	log.Infof("Tile: size=%d buffer=%d", Configuration.Tile.Size, Configuration.Tile.Buffer)
	log.Infof("Store: project=%s instance=%s saltModulus=%d", Configuration.Store.Project, Configuration.Store.Instance, Configuration.Store.SaltModulus)
	log.Infof("Metastore: mode=%s watchPath=%s", Configuration.Metastore.Mode, Configuration.Metastore.WatchPath)
	log.Infof("Search: index=%s addresses=%v", Configuration.Search.Index, Configuration.Search.Addresses)
	log.Infof("Regression: minYears=%d", Configuration.Regression.MinYears)
	log.Infof("Cache: maxEntries=%d", Configuration.Cache.MaxEntries)
}
