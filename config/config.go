package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	// TokenTTLHours controls how long a login session token stays valid.
	TokenTTLHours int
	CookieName    string
	CookieSecure  bool
	// Storage selects the backend: mysql, postgres or memory.
	Storage     string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis is optional; an empty host keeps revoked tokens and OAuth state in memory.
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Blog behaviour
	PaginateBy         int
	MediaDir           string
	MaxUploadMB        int
	TemplatesDir       string
	StaticDir          string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// GitHub login is enabled only when both id and secret are present.
	GitHubClientID     string
	GitHubClientSecret string
	OAuthRedirectBase  string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: environment variables (including .env) over config/config.json; defaults fill whatever is left
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring invalid .env: %v", err)
	}
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("ignoring invalid config/config.json: %v", err)
	}
	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in config.json or environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Tests use it to skip file and env loading.
func Set(c AppConfig) {
	ApplyDefaults(&c)
	cfg = c
	loaded = true
}

// GitHubEnabled reports whether GitHub OAuth credentials are configured.
func (c AppConfig) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// RedisEnabled reports whether a Redis host is configured.
func (c AppConfig) RedisEnabled() bool {
	return c.RedisHost != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped JSON sections into out if the file is present.
// Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}
	applyJSONSections(raw, out)
	return nil
}

func applyJSONSections(raw map[string]any, out *AppConfig) {
	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if arr, ok := m[key].([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenTTLHours = getInt(app, "TokenTTLHours")
		out.CookieName = getString(app, "CookieName")
		out.CookieSecure = getBool(app, "CookieSecure")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if blog, ok := raw["blog"].(map[string]any); ok {
		out.PaginateBy = getInt(blog, "PaginateBy")
		out.MediaDir = getString(blog, "MediaDir")
		out.MaxUploadMB = getInt(blog, "MaxUploadMB")
		out.TemplatesDir = getString(blog, "TemplatesDir")
		out.StaticDir = getString(blog, "StaticDir")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.Storage = getString(dbs, "Storage")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		out.GitHubClientID = getString(oa, "GitHubClientID")
		out.GitHubClientSecret = getString(oa, "GitHubClientSecret")
		out.OAuthRedirectBase = getString(oa, "OAuthRedirectBase")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.GinMode = getString(lg, "GinMode")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}
}

// ApplyDefaults sets sane defaults for zero-value fields.
func ApplyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.CookieName == "" {
		c.CookieName = "blogicum_session"
	}
	if c.Storage == "" {
		c.Storage = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.Storage {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blogicum"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.PaginateBy == 0 {
		c.PaginateBy = 10
	}
	if c.MediaDir == "" {
		c.MediaDir = "media"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 5
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:" + c.AppPort
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("TOKEN_TTL_HOURS", ""); v != "" {
		c.TokenTTLHours = mustParseInt(v)
	}
	if v := getEnv("COOKIE_SECURE", ""); v != "" {
		c.CookieSecure = v == "true"
	}
	if v := getEnv("STORAGE", ""); v != "" {
		c.Storage = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("PAGINATE_BY", ""); v != "" {
		c.PaginateBy = mustParseInt(v)
	}
	if v := getEnv("MEDIA_DIR", ""); v != "" {
		c.MediaDir = v
	}
	if v := getEnv("MAX_UPLOAD_MB", ""); v != "" {
		c.MaxUploadMB = mustParseInt(v)
	}
	if v := getEnv("TEMPLATES_DIR", ""); v != "" {
		c.TemplatesDir = v
	}
	if v := getEnv("STATIC_DIR", ""); v != "" {
		c.StaticDir = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("GITHUB_CLIENT_ID", ""); v != "" {
		c.GitHubClientID = v
	}
	if v := getEnv("GITHUB_CLIENT_SECRET", ""); v != "" {
		c.GitHubClientSecret = v
	}
	if v := getEnv("OAUTH_REDIRECT_BASE_URL", ""); v != "" {
		c.OAuthRedirectBase = v
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
