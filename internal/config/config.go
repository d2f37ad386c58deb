// Package config provides Viper-based configuration loading for the map seeder.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// StoreConfig selects the document store implementation.
type StoreConfig struct {
	// Driver is one of "postgres", "firestore", or "memory".
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// FirestoreConfig holds Firestore document store settings.
type FirestoreConfig struct {
	ProjectID           string `mapstructure:"project_id"`
	CredentialsFile     string `mapstructure:"credentials_file"`
	MapsCollection      string `mapstructure:"maps_collection"`
	CampaignsCollection string `mapstructure:"campaigns_collection"`
}

// BlobConfig holds generated image storage settings.
type BlobConfig struct {
	// Driver is one of "gcs" or "filesystem".
	Driver string `mapstructure:"driver"`
	// Bucket is the GCS bucket name (gcs driver).
	Bucket string `mapstructure:"bucket"`
	// CredentialsFile is an optional service account key for the gcs driver.
	CredentialsFile string `mapstructure:"credentials_file"`
	// Dir is the root directory for the filesystem driver.
	Dir string `mapstructure:"dir"`
	// PublicBaseURL prefixes object paths to form public URLs (filesystem driver).
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// LLMConfig holds text/vision completion settings.
type LLMConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// InputPricePerMTok and OutputPricePerMTok are USD per million tokens.
	InputPricePerMTok  float64 `mapstructure:"input_price_per_mtok"`
	OutputPricePerMTok float64 `mapstructure:"output_price_per_mtok"`
}

// ImageConfig holds image generation settings.
type ImageConfig struct {
	// Enabled turns the image-generation path on. When false every combat
	// map uses the text-to-grid backend.
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	AspectRatio string `mapstructure:"aspect_ratio"`
	// CostPerImage is the USD price of one generated image.
	CostPerImage float64 `mapstructure:"cost_per_image"`
	// MaxAttempts bounds image requests per map.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// GenerationConfig holds grid generation settings.
type GenerationConfig struct {
	// MaxAttempts bounds text and vision completion attempts per map.
	MaxAttempts int `mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	// Encoding is the tile encoding requested from backends: "legacy" or "extended".
	Encoding string `mapstructure:"encoding"`
}

// ScriptingConfig holds Lua prompt hook settings.
type ScriptingConfig struct {
	// PromptScript is an optional Lua file defining image_prompt and layout_prompt.
	PromptScript string `mapstructure:"prompt_script"`
	// InstructionLimit bounds opcodes per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Firestore  FirestoreConfig  `mapstructure:"firestore"`
	Blob       BlobConfig       `mapstructure:"blob"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Image      ImageConfig      `mapstructure:"image"`
	Generation GenerationConfig `mapstructure:"generation"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBlob(c.Blob); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLLM(c.LLM); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateImage(c.Image); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGeneration(c.Generation); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateStore(c Config) error {
	switch c.Store.Driver {
	case "postgres":
		return validateDatabase(c.Database)
	case "firestore":
		var errs []string
		if c.Firestore.ProjectID == "" {
			errs = append(errs, "firestore.project_id must not be empty")
		}
		if c.Firestore.MapsCollection == "" {
			errs = append(errs, "firestore.maps_collection must not be empty")
		}
		if c.Firestore.CampaignsCollection == "" {
			errs = append(errs, "firestore.campaigns_collection must not be empty")
		}
		if len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
		return nil
	case "memory":
		return nil
	default:
		return fmt.Errorf("store.driver must be one of [postgres, firestore, memory], got %q", c.Store.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBlob(b BlobConfig) error {
	switch b.Driver {
	case "gcs":
		if b.Bucket == "" {
			return errors.New("blob.bucket must not be empty for the gcs driver")
		}
	case "filesystem":
		var errs []string
		if b.Dir == "" {
			errs = append(errs, "blob.dir must not be empty for the filesystem driver")
		}
		if b.PublicBaseURL == "" {
			errs = append(errs, "blob.public_base_url must not be empty for the filesystem driver")
		}
		if len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
	default:
		return fmt.Errorf("blob.driver must be one of [gcs, filesystem], got %q", b.Driver)
	}
	return nil
}

func validateLLM(l LLMConfig) error {
	var errs []string
	if l.Model == "" {
		errs = append(errs, "llm.model must not be empty")
	}
	if l.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be >= 1, got %d", l.MaxTokens))
	}
	if l.Timeout < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}
	if l.InputPricePerMTok < 0 || l.OutputPricePerMTok < 0 {
		errs = append(errs, "llm prices must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateImage(i ImageConfig) error {
	var errs []string
	if i.Enabled && i.Model == "" {
		errs = append(errs, "image.model must not be empty when image generation is enabled")
	}
	if i.CostPerImage < 0 {
		errs = append(errs, "image.cost_per_image must not be negative")
	}
	if i.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("image.max_attempts must be >= 1, got %d", i.MaxAttempts))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGeneration(g GenerationConfig) error {
	var errs []string
	if g.MaxAttempts < 1 || g.MaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("generation.max_attempts must be 1-10, got %d", g.MaxAttempts))
	}
	if g.InitialBackoff < 0 {
		errs = append(errs, "generation.initial_backoff must not be negative")
	}
	validEncodings := map[string]bool{"legacy": true, "extended": true}
	if !validEncodings[g.Encoding] {
		errs = append(errs, fmt.Sprintf("generation.encoding must be one of [legacy, extended], got %q", g.Encoding))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MAPSEED_ prefix
	v.SetEnvPrefix("MAPSEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindProviderEnv(v)

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// bindProviderEnv lets the provider SDKs' conventional variables supply API keys.
func bindProviderEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.api_key", "MAPSEED_LLM_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("image.api_key", "MAPSEED_IMAGE_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
}

// SetDefaults applies default values to v.
func SetDefaults(v *viper.Viper) {
	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mapseed")
	v.SetDefault("database.password", "mapseed")
	v.SetDefault("database.name", "mapseed")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("firestore.maps_collection", "maps")
	v.SetDefault("firestore.campaigns_collection", "campaigns")

	v.SetDefault("blob.driver", "filesystem")
	v.SetDefault("blob.dir", "data/blobs")
	v.SetDefault("blob.public_base_url", "http://localhost:8080/blobs")

	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.timeout", "3m")
	v.SetDefault("llm.input_price_per_mtok", 3.0)
	v.SetDefault("llm.output_price_per_mtok", 15.0)

	v.SetDefault("image.enabled", true)
	v.SetDefault("image.model", "imagen-4.0-generate-001")
	v.SetDefault("image.aspect_ratio", "1:1")
	v.SetDefault("image.cost_per_image", 0.04)
	v.SetDefault("image.max_attempts", 1)

	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.initial_backoff", "2s")
	v.SetDefault("generation.encoding", "extended")

	v.SetDefault("scripting.instruction_limit", 0)
}
