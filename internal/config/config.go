package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Journal backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	// JournalBackend selects where finalized records are persisted: file, sqlite or redis.
	JournalBackend string `json:"journal_backend,omitempty"`

	// JournalDir is the directory used by the file backend.
	// Relative paths are resolved against the base directory (~/.intake).
	JournalDir string `json:"journal_dir,omitempty"`

	// PerRecordPersonas lists personas whose records are written one file per record
	// instead of being appended to a single JSON array.
	PerRecordPersonas []string `json:"per_record_personas,omitempty"`

	// Redis connection for the redis backend.
	RedisAddr      string `json:"redis_addr,omitempty"`
	RedisPassword  string `json:"redis_password,omitempty"`
	RedisDB        int    `json:"redis_db,omitempty"`
	RedisKeyPrefix string `json:"redis_key_prefix,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// ShopName brands the coffee persona.
	ShopName string `json:"shop_name,omitempty"`

	// CompanyName brands the sales persona and its FAQ answers.
	CompanyName string `json:"company_name,omitempty"`

	// ConceptsFile points at tutor content (.json, .yaml or .yml).
	// Empty means the built-in concept set.
	ConceptsFile string `json:"concepts_file,omitempty"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// SessionIdleMinutes is how long a conversation may sit idle before it is swept.
	SessionIdleMinutes int `json:"session_idle_minutes,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely
	// (e.g. "adventure" drops every adventure_* tool).
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		JournalBackend:     BackendFile,
		JournalDir:         "journal",
		PerRecordPersonas:  []string{"order"},
		RedisKeyPrefix:     "intake:",
		ShopName:           "Brew Haven",
		CompanyName:        "ExampleCorp",
		LogLevel:           "info",
		SessionIdleMinutes: 60,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.intake.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.intake) and repo (.intake) directories.
// Repo config is found by walking upward from startDir to find the nearest .intake/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .intake/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".intake", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ResolveJournalDir returns the absolute journal directory for baseDir.
func (c *Config) ResolveJournalDir(baseDir string) string {
	dir := c.JournalDir
	if dir == "" {
		dir = "journal"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

// IsPerRecord reports whether persona records are written one file per record.
func (c *Config) IsPerRecord(persona string) bool {
	for _, p := range c.PerRecordPersonas {
		if strings.EqualFold(p, persona) {
			return true
		}
	}
	return false
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
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
	return &Config{
		JournalBackend:     pickString(base.JournalBackend, overlay.JournalBackend),
		JournalDir:         pickString(base.JournalDir, overlay.JournalDir),
		RedisAddr:          pickString(base.RedisAddr, overlay.RedisAddr),
		RedisPassword:      pickString(base.RedisPassword, overlay.RedisPassword),
		RedisDB:            pickInt(base.RedisDB, overlay.RedisDB),
		RedisKeyPrefix:     pickString(base.RedisKeyPrefix, overlay.RedisKeyPrefix),
		DBMaxOpenConns:     pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:     pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		ShopName:           pickString(base.ShopName, overlay.ShopName),
		CompanyName:        pickString(base.CompanyName, overlay.CompanyName),
		ConceptsFile:       pickString(base.ConceptsFile, overlay.ConceptsFile),
		LogLevel:           pickString(base.LogLevel, overlay.LogLevel),
		SessionIdleMinutes: pickInt(base.SessionIdleMinutes, overlay.SessionIdleMinutes),
		PerRecordPersonas:  mergeStringSlice(base.PerRecordPersonas, overlay.PerRecordPersonas),
		DisabledTools:      mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:      mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.JournalBackend {
	case BackendFile, BackendSQLite:
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("journal_backend redis requires redis_addr")
		}
	default:
		return errors.New("journal_backend must be one of: file, sqlite, redis")
	}
	if c.SessionIdleMinutes < 0 {
		return errors.New("session_idle_minutes must be non-negative")
	}
	return nil
}

func pickString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
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
