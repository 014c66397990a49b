package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Media backends.
const (
	MediaBackendCloudinary = "cloudinary"
	MediaBackendLocal      = "local"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Media       MediaConfig
	Persistence PersistenceConfig
	Sheets      SheetsConfig
	Journal     JournalConfig
	Log         LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig holds settings for MongoDB. An empty URI selects the
// in-memory store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// MediaConfig selects and configures the photo host.
type MediaConfig struct {
	Backend                string
	CloudinaryBaseURL      string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	LocalPath              string
	LocalPublicURL         string
	UploadTimeout          time.Duration
	MaxPhotoBytes          int64
}

// PersistenceConfig bounds writes to the document store.
type PersistenceConfig struct {
	WriteTimeout time.Duration
}

// SheetsConfig contains configuration required to mirror the activity
// journal into Google Sheets. Both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the journal export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// JournalConfig holds scheduler-related settings.
type JournalConfig struct {
	CronSchedule string
	Timezone     string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	port := getenvWithDefault("APP_PORT", "8080")

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  getDurationWithDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationWithDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "kebunku"),
		},
		Media: MediaConfig{
			Backend:                getenvWithDefault("MEDIA_BACKEND", MediaBackendLocal),
			CloudinaryBaseURL:      getenvWithDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
			CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryUploadPreset: getenvWithDefault("CLOUDINARY_UPLOAD_PRESET", "kebunku"),
			LocalPath:              getenvWithDefault("MEDIA_LOCAL_PATH", "./data/media"),
			LocalPublicURL:         getenvWithDefault("MEDIA_PUBLIC_URL", "http://localhost:"+port+"/media"),
			UploadTimeout:          getDurationWithDefault("MEDIA_UPLOAD_TIMEOUT", 60*time.Second),
			MaxPhotoBytes:          getInt64WithDefault("MEDIA_MAX_PHOTO_BYTES", 20*1024*1024),
		},
		Persistence: PersistenceConfig{
			WriteTimeout: getDurationWithDefault("PERSISTENCE_WRITE_TIMEOUT", 15*time.Second),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_JOURNAL_ID"),
		},
		Journal: JournalConfig{
			CronSchedule: getenvWithDefault("JOURNAL_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Jakarta"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	switch c.Media.Backend {
	case MediaBackendCloudinary:
		if c.Media.CloudinaryCloudName == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME must be provided")
		}
		if c.Media.CloudinaryUploadPreset == "" {
			return errors.New("CLOUDINARY_UPLOAD_PRESET must be provided")
		}
	case MediaBackendLocal:
		if c.Media.LocalPath == "" {
			return errors.New("MEDIA_LOCAL_PATH must be provided")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND %q is not supported", c.Media.Backend)
	}

	if c.Media.UploadTimeout <= 0 {
		return errors.New("MEDIA_UPLOAD_TIMEOUT must be positive")
	}

	if c.Persistence.WriteTimeout <= 0 {
		return errors.New("PERSISTENCE_WRITE_TIMEOUT must be positive")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_JOURNAL_ID must be provided together")
	}

	if c.Sheets.Enabled() {
		if c.Journal.CronSchedule == "" {
			return errors.New("JOURNAL_CRON_SCHEDULE must be provided")
		}
		if _, err := time.LoadLocation(c.Journal.Timezone); err != nil {
			return fmt.Errorf("TIMEZONE is invalid: %w", err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getInt64WithDefault(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
