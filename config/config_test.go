package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	ApplyDefaults(&c)
	assert.Equal(t, "8000", c.AppPort)
	assert.Equal(t, "mysql", c.Storage)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, 10, c.PaginateBy)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "http://localhost:8000", c.OAuthRedirectBase)

	pg := AppConfig{Storage: "postgres", DBPort: ""}
	ApplyDefaults(&pg)
	assert.Equal(t, "5432", pg.DBPort)

	custom := AppConfig{PaginateBy: 3, DBPort: "6000"}
	ApplyDefaults(&custom)
	assert.Equal(t, 3, custom.PaginateBy)
	assert.Equal(t, "6000", custom.DBPort)
}

func TestLoadJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AllowedOrigins": ["https://a.example", "https://b.example"]},
		"blog": {"PaginateBy": 5, "MediaDir": "/srv/media"},
		"database": {"Storage": "postgres", "DBName": "blog"},
		"log": {"Level": "debug", "Compress": true}
	}`), 0o644))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 5, c.PaginateBy)
	assert.Equal(t, "/srv/media", c.MediaDir)
	assert.Equal(t, "postgres", c.Storage)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)

	require.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "missing.json"), &c))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	assert.Error(t, loadJSONConfig(bad, &c))
}

func TestEnvOverridesJSON(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("PAGINATE_BY", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://x.example , ,https://y.example")

	c := AppConfig{Storage: "mysql", PaginateBy: 20}
	applyEnvOverrides(&c)
	ApplyDefaults(&c)
	assert.Equal(t, "postgres", c.Storage)
	assert.Equal(t, "5432", c.DBPort)
	assert.Equal(t, 7, c.PaginateBy)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, c.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	c := AppConfig{Storage: "postgres", DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "blog", DBPort: "5432"}
	assert.Equal(t, "host=db user=u password=p dbname=blog port=5432 sslmode=disable TimeZone=UTC", c.DSN())

	c.Storage = "mysql"
	c.DBPort = "3306"
	assert.Equal(t, "u:p@tcp(db:3306)/blog?charset=utf8mb4&parseTime=True&loc=UTC", c.DSN())

	c.DatabaseURI = "override"
	assert.Equal(t, "override", c.DSN())
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor(AppConfig{Storage: "sqlite"})
	assert.Error(t, err)

	d, err := dialectorFor(AppConfig{Storage: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
	assert.Equal(t, logger.Warn, toGormLogLevel("nonsense"))
}

func TestSetAppliesDefaults(t *testing.T) {
	Set(AppConfig{JWTSecret: "x"})
	got := Get()
	assert.Equal(t, "x", got.JWTSecret)
	assert.Equal(t, "blogicum_session", got.CookieName)
	assert.False(t, got.GitHubEnabled())
	assert.False(t, got.RedisEnabled())
}

func TestLoadReadsDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.WriteFile(".env", []byte("JWT_SECRET=from-dotenv\nBLOGICUM_TEST_PAGINATE=1\nPAGINATE_BY=4\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("BLOGICUM_TEST_PAGINATE")
		_ = os.Unsetenv("PAGINATE_BY")
		loaded = false
		cfg = AppConfig{}
	})
	loaded = false
	cfg = AppConfig{}

	c := Load()
	assert.NotEmpty(t, c.JWTSecret)
	assert.Equal(t, 4, c.PaginateBy)
	assert.Equal(t, "1", os.Getenv("BLOGICUM_TEST_PAGINATE"))
}
