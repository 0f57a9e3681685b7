package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers supported by the contact store.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Contacts ContactsConfig
	Backups  BackupsConfig
	Exports  ExportsConfig
	Client   ClientConfig
}

// StoreConfig selects where contact records live.
type StoreConfig struct {
	Driver       string
	AssetsDir    string
	ContactsFile string
	SQLitePath   string
	Watch        bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig gates the write endpoints.
type AuthConfig struct {
	Enabled           bool
	WriteAPIKey       string
	AdminUsername     string
	AdminPasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ContactsConfig tunes update endpoint semantics.
type ContactsConfig struct {
	RejectUnknownID bool
}

// BackupsConfig controls pre-write snapshots of the contact store.
type BackupsConfig struct {
	Enabled   bool
	Dir       string
	Retention time.Duration
	Workers   int
	Retries   int
}

// ExportsConfig controls contact directory exports.
type ExportsConfig struct {
	Dir             string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// ClientConfig is read by the terminal tools that talk to a running API.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
	LogFile string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))
	switch driver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		driver = StoreDriverFile
	}
	cfg.Store = StoreConfig{
		Driver:       driver,
		AssetsDir:    v.GetString("ASSETS_DIR"),
		ContactsFile: v.GetString("CONTACTS_FILE"),
		SQLitePath:   v.GetString("SQLITE_PATH"),
		Watch:        v.GetBool("WATCH_STORE"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		Enabled:           v.GetBool("AUTH_ENABLED"),
		WriteAPIKey:       v.GetString("WRITE_API_KEY"),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Contacts = ContactsConfig{
		RejectUnknownID: v.GetBool("CONTACTS_REJECT_UNKNOWN_ID"),
	}

	cfg.Backups = BackupsConfig{
		Enabled:   v.GetBool("BACKUPS_ENABLED"),
		Dir:       v.GetString("BACKUPS_DIR"),
		Retention: parseDuration(v.GetString("BACKUPS_RETENTION"), 7*24*time.Hour),
		Workers:   v.GetInt("BACKUPS_WORKERS"),
		Retries:   v.GetInt("BACKUPS_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Dir:             v.GetString("EXPORTS_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
	}

	cfg.Client = ClientConfig{
		BaseURL: strings.TrimRight(v.GetString("CONTACTS_API_URL"), "/"),
		Timeout: parseDuration(v.GetString("CLIENT_TIMEOUT"), 10*time.Second),
		APIKey:  v.GetString("CLIENT_API_KEY"),
		LogFile: v.GetString("TUI_LOG_FILE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("STORE_DRIVER", StoreDriverFile)
	v.SetDefault("ASSETS_DIR", "public/assets")
	v.SetDefault("CONTACTS_FILE", "contacts_2301001_to_2301060.json")
	v.SetDefault("SQLITE_PATH", "contacts.db")
	v.SetDefault("WATCH_STORE", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "eeeflix")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "eeeflix-contacts")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("WRITE_API_KEY", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CONTACTS_REJECT_UNKNOWN_ID", false)

	v.SetDefault("BACKUPS_ENABLED", true)
	v.SetDefault("BACKUPS_DIR", "./backups")
	v.SetDefault("BACKUPS_RETENTION", "168h")
	v.SetDefault("BACKUPS_WORKERS", 1)
	v.SetDefault("BACKUPS_RETRIES", 3)

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")

	v.SetDefault("CONTACTS_API_URL", "http://localhost:8080")
	v.SetDefault("CLIENT_TIMEOUT", "10s")
	v.SetDefault("CLIENT_API_KEY", "")
	v.SetDefault("TUI_LOG_FILE", "contactctl.log")
}

// ContactsPath joins the assets directory and the contact store file name.
func (s StoreConfig) ContactsPath() string {
	return filepath.Join(s.AssetsDir, s.ContactsFile)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
