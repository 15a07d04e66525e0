// Package config exposes the runtime configuration of the card tracker.
// Values are read from CARDTRACKER_* environment variables, .env files and
// an optional config.yaml, in that order of precedence.
package config

import (
	_ "embed"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const envPrefix = "CARDTRACKER"

var (
	loadOnce sync.Once
	loadErr  error
)

func setDefaults() {
	viper.SetDefault("debug", false)
	viper.SetDefault("log_level", string(Info))
	viper.SetDefault("log_folder", "/var/log")
	viper.SetDefault("db_folder", "/etc/cardtracker")
	viper.SetDefault("db.type", string(DatabaseTypeSQLite))
	viper.SetDefault("db.postgres.host", "localhost")
	viper.SetDefault("db.postgres.port", 5432)
	viper.SetDefault("db.postgres.database", "cardtracker")
	viper.SetDefault("db.postgres.username", "cardtracker")
	viper.SetDefault("db.postgres.ssl_mode", "disable")
	viper.SetDefault("db.postgres.time_zone", "UTC")
	viper.SetDefault("listen", "")
	viper.SetDefault("port", 5000)
	viper.SetDefault("web_dir", "")
	viper.SetDefault("cert_file", "")
	viper.SetDefault("key_file", "")
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_ttl", "168h")
	viper.SetDefault("bcrypt_cost", 12)
	viper.SetDefault("tcg.base_url", "https://api.pokemontcg.io/v2")
	viper.SetDefault("tcg.api_key", "")
	viper.SetDefault("tcg.cache_ttl", "1h")
	viper.SetDefault("tcg.timeout", "10s")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("purge_after_days", 30)
	viper.SetDefault("rate_limit", 20)
	viper.SetDefault("trusted_proxies", []string{})
}

// Load reads .env files and the optional config file. It is safe to call
// more than once; only the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		for _, envFile := range []string{".env", ".env.local"} {
			// missing files are fine
			_ = godotenv.Load(envFile)
		}

		setDefaults()

		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/cardtracker")

		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				loadErr = err
			}
		}
	})
	return loadErr
}

func init() {
	setDefaults()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := viper.GetString("log_level")
	if logLevel == "" {
		return Info
	}
	return LogLevel(strings.ToLower(logLevel))
}

func IsDebug() bool {
	return viper.GetBool("debug")
}

func GetDBFolderPath() string {
	if IsDebug() {
		return "db"
	}
	return viper.GetString("db_folder")
}

func GetDBPath() string {
	return filepath.Join(GetDBFolderPath(), GetName()+".db")
}

func GetLogFolder() string {
	return viper.GetString("log_folder")
}

// GetListen returns the IP the web server binds to; empty means all interfaces.
func GetListen() string {
	return viper.GetString("listen")
}

func GetPort() int {
	return viper.GetInt("port")
}

// GetWebDir is the directory holding the built single-page app, if any.
func GetWebDir() string {
	return viper.GetString("web_dir")
}

// GetCertFile and GetKeyFile locate the TLS key pair. When both are set the
// server speaks HTTPS and redirects plain HTTP on the same port.
func GetCertFile() string {
	return viper.GetString("cert_file")
}

func GetKeyFile() string {
	return viper.GetString("key_file")
}

func GetJWTSecret() string {
	return viper.GetString("jwt_secret")
}

// SetJWTSecret overrides the signing secret for the lifetime of the process.
func SetJWTSecret(secret string) {
	viper.Set("jwt_secret", secret)
}

func GetJWTTTL() time.Duration {
	return durationOr("jwt_ttl", 7*24*time.Hour)
}

func GetBcryptCost() int {
	cost := viper.GetInt("bcrypt_cost")
	if cost <= 0 {
		return 12
	}
	return cost
}

func GetTCGBaseURL() string {
	return strings.TrimRight(viper.GetString("tcg.base_url"), "/")
}

func GetTCGAPIKey() string {
	return viper.GetString("tcg.api_key")
}

func GetTCGCacheTTL() time.Duration {
	return durationOr("tcg.cache_ttl", time.Hour)
}

func GetTCGTimeout() time.Duration {
	return durationOr("tcg.timeout", 10*time.Second)
}

// GetRedisAddr returns the external Redis address. Empty selects the embedded server.
func GetRedisAddr() string {
	return viper.GetString("redis_addr")
}

func GetPurgeAfterDays() int {
	return viper.GetInt("purge_after_days")
}

// GetRateLimit is the number of auth requests allowed per client per minute.
func GetRateLimit() int {
	return viper.GetInt("rate_limit")
}

// GetTrustedProxies lists the proxies whose X-Forwarded-For is believed
// when resolving the client IP. Empty means the peer address is used.
func GetTrustedProxies() []string {
	var proxies []string
	for _, v := range viper.GetStringSlice("trusted_proxies") {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				proxies = append(proxies, p)
			}
		}
	}
	return proxies
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d := viper.GetDuration(key)
	if d <= 0 {
		return fallback
	}
	return d
}
