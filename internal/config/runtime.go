package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StoreFS     = "fs"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

type Runtime struct {
	Store         string `toml:"store"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDB       string `toml:"mongo_db"`
	SQLitePath    string `toml:"sqlite_path"`
	TraceFile     string `toml:"trace_file"`
	CacheMaxItems int    `toml:"cache_max_items"`
	ObsBuffer     int    `toml:"obs_buffer"`
	LogLevel      string `toml:"log_level"`
}

func Default() Runtime {
	return Runtime{
		Store:         StoreFS,
		Dir:           "./policies",
		RedisPrefix:   "policy:",
		MongoDB:       "policies",
		SQLitePath:    "./policies.db",
		CacheMaxItems: 1024,
		ObsBuffer:     4096,
		LogLevel:      "info",
	}
}

// Load reads the runtime configuration from the environment only.
func Load() Runtime {
	return FromEnv(Default())
}

// LoadFile layers a TOML file over the defaults and the environment over
// both. An empty path behaves like Load.
func LoadFile(path string) (Runtime, error) {
	rt := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &rt); err != nil {
			return Runtime{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	rt = FromEnv(rt)
	if err := rt.Validate(); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}

// FromEnv overrides base with any POLICY_* variables that are set.
func FromEnv(base Runtime) Runtime {
	return Runtime{
		Store:         strings.ToLower(getenv("POLICY_STORE", base.Store)),
		Dir:           getenv("POLICY_DIR", base.Dir),
		RedisAddr:     getenv("POLICY_REDIS_ADDR", base.RedisAddr),
		RedisPrefix:   getenv("POLICY_REDIS_PREFIX", base.RedisPrefix),
		MongoURI:      getenv("POLICY_MONGO_URI", base.MongoURI),
		MongoDB:       getenv("POLICY_MONGO_DB", base.MongoDB),
		SQLitePath:    getenv("POLICY_SQLITE_PATH", base.SQLitePath),
		TraceFile:     getenv("POLICY_TRACE_FILE", base.TraceFile),
		CacheMaxItems: getenvInt("POLICY_CACHE_MAX_ITEMS", base.CacheMaxItems, 0),
		ObsBuffer:     getenvInt("POLICY_OBS_BUFFER", base.ObsBuffer, 1),
		LogLevel:      getenv("POLICY_LOG_LEVEL", base.LogLevel),
	}
}

func (r Runtime) Validate() error {
	switch r.Store {
	case StoreFS:
		if r.Dir == "" {
			return fmt.Errorf("config: dir is required for the fs store")
		}
	case StoreRedis:
		if r.RedisAddr == "" {
			return fmt.Errorf("config: redis_addr is required for the redis store")
		}
	case StoreMongo:
		if r.MongoURI == "" {
			return fmt.Errorf("config: mongo_uri is required for the mongo store")
		}
	case StoreSQLite:
		if r.SQLitePath == "" {
			return fmt.Errorf("config: sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", r.Store)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}
