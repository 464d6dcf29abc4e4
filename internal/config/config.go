package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory    = "memory"
	BackendPebble    = "pebble"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
)

type Config struct {
	Addr      string `mapstructure:"RETAIL_ADDR"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	DocstoreBackend    string `mapstructure:"DOCSTORE_BACKEND"`
	ObjectstoreBackend string `mapstructure:"OBJECTSTORE_BACKEND"`
	PebbleDir          string `mapstructure:"PEBBLE_DIR"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`

	FirebaseProjectID  string `mapstructure:"FIREBASE_PROJECT_ID"`
	StorageBucket      string `mapstructure:"STORAGE_BUCKET"`
	FirebaseServiceKey string `mapstructure:"FIREBASE_SERVICE_KEY"`
	CredentialsFile    string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`

	PublicBaseURL string        `mapstructure:"PUBLIC_BASE_URL"`
	ViewPrefix    string        `mapstructure:"VIEW_PREFIX"`
	UploadTimeout time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
}

var defaults = map[string]any{
	"RETAIL_ADDR":                    ":8080",
	"JWT_SECRET":                     "",
	"LOG_LEVEL":                      "info",
	"LOG_PRETTY":                     false,
	"DOCSTORE_BACKEND":               BackendMemory,
	"OBJECTSTORE_BACKEND":            BackendMemory,
	"PEBBLE_DIR":                     "./data",
	"DATABASE_URL":                   "",
	"FIREBASE_PROJECT_ID":            "",
	"STORAGE_BUCKET":                 "",
	"FIREBASE_SERVICE_KEY":           "",
	"GOOGLE_APPLICATION_CREDENTIALS": "",
	"PUBLIC_BASE_URL":                "http://localhost:8080/files",
	"VIEW_PREFIX":                    "modeproduct",
	"UPLOAD_TIMEOUT":                 "30s",
	"TOKEN_TTL":                      "72h",
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper applies defaults and environment overrides to v.
func FromViper(v *viper.Viper) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DocstoreBackend = strings.ToLower(strings.TrimSpace(cfg.DocstoreBackend))
	cfg.ObjectstoreBackend = strings.ToLower(strings.TrimSpace(cfg.ObjectstoreBackend))
	cfg.ViewPrefix = strings.Trim(cfg.ViewPrefix, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	switch c.DocstoreBackend {
	case BackendMemory:
	case BackendPebble:
		if c.PebbleDir == "" {
			return fmt.Errorf("PEBBLE_DIR is required for the pebble docstore")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore docstore")
		}
	default:
		return fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.DocstoreBackend)
	}
	switch c.ObjectstoreBackend {
	case BackendMemory:
	case BackendPebble:
		if c.PebbleDir == "" {
			return fmt.Errorf("PEBBLE_DIR is required for the pebble objectstore")
		}
	case BackendGCS:
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the gcs objectstore")
		}
	default:
		return fmt.Errorf("unknown OBJECTSTORE_BACKEND %q", c.ObjectstoreBackend)
	}
	if c.ViewPrefix == "" {
		return fmt.Errorf("VIEW_PREFIX must not be empty")
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// NeedsFirebase reports whether a Firebase app has to be initialised.
func (c Config) NeedsFirebase() bool {
	return c.DocstoreBackend == BackendFirestore || c.ObjectstoreBackend == BackendGCS
}
