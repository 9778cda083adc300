package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CLINICBOARD_"

// DirName is the data directory created under the user's home.
const DirName = ".clinicboard"

// DefaultBaseDir returns ~/.clinicboard.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Config holds application configuration.
type Config struct {
	// ExcerptMaxChars is the rune budget of listing excerpts
	ExcerptMaxChars int `json:"excerpt_max_chars"`

	// NoticeMaxBytes is the maximum size of stored notice content JSON
	NoticeMaxBytes int `json:"notice_max_bytes"`

	// TitleMaxChars is the maximum title length in runes
	TitleMaxChars int `json:"title_max_chars"`

	// RenderMaxDepth caps tree rendering depth; deeper subtrees are flattened to text
	RenderMaxDepth int `json:"render_max_depth"`

	// ListenAddr is the address the web server binds to
	ListenAddr string `json:"listen_addr"`

	// PurgeAfterDays hard-deletes notices soft-deleted longer ago than this.
	// 0 disables the scheduled purge.
	PurgeAfterDays int `json:"purge_after_days,omitempty"`

	// PurgeSchedule is a cron spec (robfig/cron syntax, e.g. "@daily" or "0 4 * * *")
	PurgeSchedule string `json:"purge_schedule,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error)
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "text" or "json"
	LogFormat string `json:"log_format,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ExcerptMaxChars: 150,
		NoticeMaxBytes:  512 * 1024,
		TitleMaxChars:   200,
		RenderMaxDepth:  64,
		ListenAddr:      "127.0.0.1:8080",
		PurgeSchedule:   "@daily",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load loads configuration from baseDir/config.json, then applies overrides
// from baseDir/.env and the process environment (process wins).
// Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clinicboard.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	dotenv, err := readDotenv(filepath.Join(baseDir, ".env"))
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readDotenv reads KEY=VALUE pairs without touching the process environment.
func readDotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

// ApplyEnv overrides cfg from CLINICBOARD_* variables found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"EXCERPT_MAX_CHARS": &cfg.ExcerptMaxChars,
		"NOTICE_MAX_BYTES":  &cfg.NoticeMaxBytes,
		"TITLE_MAX_CHARS":   &cfg.TitleMaxChars,
		"RENDER_MAX_DEPTH":  &cfg.RenderMaxDepth,
		"PURGE_AFTER_DAYS":  &cfg.PurgeAfterDays,
		"DB_MAX_OPEN_CONNS": &cfg.DBMaxOpenConns,
		"DB_MAX_IDLE_CONNS": &cfg.DBMaxIdleConns,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%s%s: expected a non-negative integer, got %q", EnvPrefix, name, v)
		}
		*dst = n
	}

	strs := map[string]*string{
		"LISTEN_ADDR":    &cfg.ListenAddr,
		"PURGE_SCHEDULE": &cfg.PurgeSchedule,
		"LOG_LEVEL":      &cfg.LogLevel,
		"LOG_FORMAT":     &cfg.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "ALLOW_UNSAFE_PATHS"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sALLOW_UNSAFE_PATHS: %w", EnvPrefix, err)
		}
		cfg.AllowUnsafePaths = b
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_PATHS"); ok {
		cfg.AllowedPaths = mergeStringSlice(cfg.AllowedPaths, strings.Split(v, ","))
	}
	if v, ok := lookup(EnvPrefix + "DISABLED_TOOLS"); ok {
		cfg.DisabledTools = mergeStringSlice(cfg.DisabledTools, strings.Split(v, ","))
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		ExcerptMaxChars: pickInt(overlay.ExcerptMaxChars, base.ExcerptMaxChars),
		NoticeMaxBytes:  pickInt(overlay.NoticeMaxBytes, base.NoticeMaxBytes),
		TitleMaxChars:   pickInt(overlay.TitleMaxChars, base.TitleMaxChars),
		RenderMaxDepth:  pickInt(overlay.RenderMaxDepth, base.RenderMaxDepth),
		PurgeAfterDays:  pickInt(overlay.PurgeAfterDays, base.PurgeAfterDays),
		DBMaxOpenConns:  pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:  pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),

		ListenAddr:    pickString(overlay.ListenAddr, base.ListenAddr),
		PurgeSchedule: pickString(overlay.PurgeSchedule, base.PurgeSchedule),
		LogLevel:      pickString(overlay.LogLevel, base.LogLevel),
		LogFormat:     pickString(overlay.LogFormat, base.LogFormat),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
