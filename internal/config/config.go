// Package config loads terminal configuration.
//
// Values come from three layers, later ones winning: the defaults in the
// embedded CUE schema, an optional CUE or JSON file, and EASYPOS_*
// environment variables (a .env file is read first when present). The
// schema validates the merged result.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"

	"github.com/azairamail/EASYAiPOS/internal/logging"
)

//go:embed schema.cue
var schemaCUE string

type Config struct {
	Account   string         `json:"account"`
	Store     StoreConfig    `json:"store"`
	LocalPath string         `json:"local_path"`
	Sync      SyncConfig     `json:"sync"`
	HTTP      HTTPConfig     `json:"http"`
	Log       logging.Config `json:"log"`
	Backup    BackupConfig   `json:"backup"`
}

type StoreConfig struct {
	Driver     string         `json:"driver"`
	SQLitePath string         `json:"sqlite_path"`
	Redis      RedisConfig    `json:"redis"`
	Postgres   PostgresConfig `json:"postgres"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type PostgresConfig struct {
	DSN          string   `json:"dsn"`
	PollInterval Duration `json:"poll_interval"`
}

type SyncConfig struct {
	Debounce     Duration `json:"debounce"`
	FollowRemote bool     `json:"follow_remote"`
}

type HTTPConfig struct {
	Addr      string `json:"addr"`
	JWTSecret string `json:"jwt_secret"`
	// Rate is a limiter rate in "<limit>-<period>" form, e.g. "20-S".
	Rate string `json:"rate"`
}

type BackupConfig struct {
	Dir      string `json:"dir"`
	S3Bucket string `json:"s3_bucket"`
	S3Prefix string `json:"s3_prefix"`
	S3Region string `json:"s3_region"`
}

// Duration decodes from a Go duration string such as "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type envVar struct {
	name string
	path string
	kind string
}

// envVars maps environment variables onto schema paths.
var envVars = []envVar{
	{"EASYPOS_ACCOUNT", "account", "string"},
	{"EASYPOS_STORE_DRIVER", "store.driver", "string"},
	{"EASYPOS_SQLITE_PATH", "store.sqlite_path", "string"},
	{"EASYPOS_REDIS_ADDR", "store.redis.addr", "string"},
	{"EASYPOS_REDIS_PASSWORD", "store.redis.password", "string"},
	{"EASYPOS_REDIS_DB", "store.redis.db", "int"},
	{"EASYPOS_POSTGRES_DSN", "store.postgres.dsn", "string"},
	{"EASYPOS_POSTGRES_POLL", "store.postgres.poll_interval", "string"},
	{"EASYPOS_LOCAL_PATH", "local_path", "string"},
	{"EASYPOS_SYNC_DEBOUNCE", "sync.debounce", "string"},
	{"EASYPOS_FOLLOW_REMOTE", "sync.follow_remote", "bool"},
	{"EASYPOS_HTTP_ADDR", "http.addr", "string"},
	{"EASYPOS_JWT_SECRET", "http.jwt_secret", "string"},
	{"EASYPOS_RATE", "http.rate", "string"},
	{"EASYPOS_LOG_LEVEL", "log.level", "string"},
	{"EASYPOS_LOG_FORMAT", "log.format", "string"},
	{"EASYPOS_LOG_FILE", "log.file", "string"},
	{"EASYPOS_BACKUP_DIR", "backup.dir", "string"},
	{"EASYPOS_S3_BUCKET", "backup.s3_bucket", "string"},
	{"EASYPOS_S3_PREFIX", "backup.s3_prefix", "string"},
	{"EASYPOS_S3_REGION", "backup.s3_region", "string"},
}

// Load reads the optional .env files, then path (when not empty), then the
// environment.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return Config{}, err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		file := ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		v = v.Unify(file)
	}

	for _, e := range envVars {
		raw, ok := os.LookupEnv(e.name)
		if !ok || raw == "" {
			continue
		}
		val, err := envValue(e, raw)
		if err != nil {
			return Config{}, err
		}
		v = v.FillPath(cue.ParsePath(e.path), val)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return Config{}, fmt.Errorf("encode config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Default is the configuration with no file and no environment.
func Default() Config {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	data, err := v.MarshalJSON()
	if err != nil {
		panic(fmt.Sprintf("config schema defaults: %v", err))
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config schema defaults: %v", err))
	}
	return cfg
}

func envValue(e envVar, raw string) (any, error) {
	switch e.kind {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		return b, nil
	}
	return raw, nil
}

// loadDotEnv loads the given files, or ".env" when none are named. Missing
// files are skipped; existing variables are never overwritten.
func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
