// Package config loads the JSON configuration shared by the authpage
// binaries. $VAR and ${VAR} references are expanded from the environment
// before parsing.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/retry"
)

// Provider kinds
const (
	ProviderLocal = "local"
	ProviderHTTP  = "http"
)

// Store kinds
const (
	StoreMemory    = "memory"
	StoreFS        = "fs"
	StoreDatastore = "datastore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreS3        = "s3"
)

type Config struct {
	AppID            string          `json:"app_id"`
	InitialAuthToken string          `json:"initial_auth_token"`
	Provider         *ProviderConfig `json:"provider"`
	Profiles         StoreConfig     `json:"profiles"`
	Accounts         StoreConfig     `json:"accounts"`
	Retry            RetryConfig     `json:"retry"`
	HTTP             HTTPConfig      `json:"http"`
	LogLevel         string          `json:"log_level"`
}

// ProviderConfig selects the identity provider. A nil *ProviderConfig
// means the provider configuration is missing.
type ProviderConfig struct {
	Kind      string `json:"kind"`
	Endpoint  string `json:"endpoint"`
	Secret    string `json:"secret"`
	TimeoutMs int    `json:"timeout_ms"`
}

// StoreConfig selects a store backend. Only the fields of the chosen kind are read.
type StoreConfig struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`       // fs, sqlite
	ProjectID string `json:"project_id"` // datastore
	Namespace string `json:"namespace"`  // datastore
	DSN       string `json:"dsn"`        // postgres
	Bucket    string `json:"bucket"`     // s3
	Region    string `json:"region"`     // s3
	Endpoint  string `json:"endpoint"`   // s3, e.g. a MinIO base URL
	AccessKey string `json:"access_key"` // s3
	SecretKey string `json:"secret_key"` // s3
}

type RetryConfig struct {
	MaxAttempts int `json:"max_attempts"`
	BaseDelayMs int `json:"base_delay_ms"`
	JitterMaxMs int `json:"jitter_max_ms"`
}

type HTTPConfig struct {
	Address   string `json:"address"`
	TokenTTLs int    `json:"token_ttl_seconds"`

	// Credential attempts allowed per client and email
	LoginPerMinute int `json:"login_per_minute"`
	LoginBurst     int `json:"login_burst"`
}

// Default returns the configuration used for fields a file leaves out
func Default() *Config {
	policy := retry.DefaultPolicy()
	return &Config{
		AppID:    ap.DefaultAppID,
		Profiles: StoreConfig{Kind: StoreMemory},
		Accounts: StoreConfig{Kind: StoreMemory},
		Retry: RetryConfig{
			MaxAttempts: policy.MaxAttempts,
			BaseDelayMs: int(policy.BaseDelay / time.Millisecond),
			JitterMaxMs: int(policy.JitterMax / time.Millisecond),
		},
		HTTP: HTTPConfig{
			Address:        "127.0.0.1:8081",
			TokenTTLs:      3600,
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
		LogLevel: "info",
	}
}

// Load reads, expands and validates the config file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for config bytes already in memory
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := json.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppID == "" {
		c.AppID = ap.DefaultAppID
	}
	if c.Profiles.Kind == "" {
		c.Profiles.Kind = StoreMemory
	}
	if c.Accounts.Kind == "" {
		c.Accounts.Kind = StoreMemory
	}
	if c.Provider != nil && c.Provider.Kind == "" {
		c.Provider.Kind = ProviderLocal
	}
	if c.HTTP.TokenTTLs == 0 {
		c.HTTP.TokenTTLs = Default().HTTP.TokenTTLs
	}
}

// Validate checks every section. A missing provider is not an error.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.HTTP),
		validation.Field(&c.Retry),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Provider != nil {
		if err := c.Provider.Validate(); err != nil {
			return fmt.Errorf("config: provider: %w", err)
		}
	}
	if err := c.Profiles.Validate(); err != nil {
		return fmt.Errorf("config: profiles: %w", err)
	}
	if err := c.Accounts.Validate(); err != nil {
		return fmt.Errorf("config: accounts: %w", err)
	}
	if c.Accounts.Kind == StoreS3 {
		return errors.New("config: accounts: s3 only stores profiles")
	}
	return nil
}

func (p ProviderConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Kind, validation.Required, validation.In(ProviderLocal, ProviderHTTP)),
		validation.Field(&p.Endpoint, validation.By(requiredWhen(p.Kind == ProviderHTTP))),
		validation.Field(&p.TimeoutMs, validation.Min(0)),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.Required,
			validation.In(StoreMemory, StoreFS, StoreDatastore, StorePostgres, StoreSQLite, StoreS3)),
		validation.Field(&s.Path, validation.By(requiredWhen(s.Kind == StoreFS || s.Kind == StoreSQLite))),
		validation.Field(&s.ProjectID, validation.By(requiredWhen(s.Kind == StoreDatastore))),
		validation.Field(&s.DSN, validation.By(requiredWhen(s.Kind == StorePostgres))),
		validation.Field(&s.Bucket, validation.By(requiredWhen(s.Kind == StoreS3))),
		validation.Field(&s.Region, validation.By(requiredWhen(s.Kind == StoreS3))),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Min(1)),
		validation.Field(&r.BaseDelayMs, validation.Min(0)),
		validation.Field(&r.JitterMaxMs, validation.Min(0)),
	)
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Address, validation.Required),
		validation.Field(&h.TokenTTLs, validation.Min(1)),
		validation.Field(&h.LoginPerMinute, validation.Min(0)),
		validation.Field(&h.LoginBurst, validation.Min(0)),
	)
}

func requiredWhen(cond bool) validation.RuleFunc {
	return func(value any) error {
		if !cond {
			return nil
		}
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return errors.New("cannot be blank")
		}
		return nil
	}
}

// RetryPolicy converts the retry section
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		JitterMax:   time.Duration(c.Retry.JitterMaxMs) * time.Millisecond,
	}
}

// TokenTTL is the lifetime of id tokens issued by identityd
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.HTTP.TokenTTLs) * time.Second
}

// Timeout is the HTTP provider's per-request timeout, zero for the default
func (p *ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Level maps log_level onto a slog level, info when unset
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
