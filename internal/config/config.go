package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Log       LogConfig
	Supabase  SupabaseConfig
	Cookies   CookieConfig
	DriverJWT DriverJWTConfig
	WhatsApp  WhatsAppConfig
	Providers ProviderConfig
	Geo       GeoConfig
	Tracking  TrackingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// SupabaseConfig holds the auth provider configuration.
type SupabaseConfig struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Enabled reports whether credentials are present.
func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.Key != ""
}

// CookieConfig holds the auth cookie settings.
type CookieConfig struct {
	AccessName       string
	RefreshName      string
	Domain           string
	Path             string
	SameSite         http.SameSite
	Secure           bool
	RefreshMaxAge    int
	DefaultAccessAge int
}

// DefaultDriverJWTSecret is used when JWT_SECRET is unset. It is public and
// must be replaced outside local development.
const DefaultDriverJWTSecret = "fallback_secret_key_change_in_production"

// DriverJWTConfig holds driver token settings.
type DriverJWTConfig struct {
	Secret string
	TTL    time.Duration
}

// UsesDefaultSecret reports whether driver tokens are signed with the built-in secret.
func (c DriverJWTConfig) UsesDefaultSecret() bool {
	return c.Secret == DefaultDriverJWTSecret
}

// WhatsAppConfig holds WhatsApp Cloud API configuration.
type WhatsAppConfig struct {
	Token           string
	PhoneNumberID   string
	VerifyToken     string
	GraphURL        string
	TrackingPageURL string
	Timeout         time.Duration
}

// Enabled reports whether outbound sends are possible.
func (c WhatsAppConfig) Enabled() bool {
	return c.Token != "" && c.PhoneNumberID != ""
}

// ProviderConfig holds ride provider credentials.
type ProviderConfig struct {
	UberServerToken string
	OlaAPIKey       string
	GoogleMapsKey   string
}

// GeoConfig holds the metro lookup configuration.
type GeoConfig struct {
	OverpassURL     string
	MetroRadiusM    int
	OverpassTimeout time.Duration
}

// TrackingConfig holds the simulated tracking feed delays.
type TrackingConfig struct {
	LocationDelay time.Duration
	ArrivalDelay  time.Duration
}

// Load loads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load()

	sameSite := parseSameSite(getEnv("AUTH_COOKIE_SAMESITE", "lax"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			CORSOrigins:  getListEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "roadchal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getIntEnv("REDIS_DB", 0),
			SessionTTL: getDurationEnv("SESSION_TTL", 24*time.Hour),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "roadchal-backend"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Supabase: SupabaseConfig{
			URL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			Key:     getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
			Timeout: getDurationEnv("SUPABASE_TIMEOUT", 10*time.Second),
		},
		Cookies: CookieConfig{
			AccessName:       getEnv("AUTH_ACCESS_COOKIE_NAME", "roadchal_access_token"),
			RefreshName:      getEnv("AUTH_REFRESH_COOKIE_NAME", "roadchal_refresh_token"),
			Domain:           getEnv("AUTH_COOKIE_DOMAIN", ""),
			Path:             getEnv("AUTH_COOKIE_PATH", "/"),
			SameSite:         sameSite,
			Secure:           getBoolEnv("AUTH_COOKIE_SECURE", false) || sameSite == http.SameSiteNoneMode,
			RefreshMaxAge:    getIntEnv("AUTH_REFRESH_COOKIE_MAX_AGE", 60*60*24*30),
			DefaultAccessAge: 3600,
		},
		DriverJWT: DriverJWTConfig{
			Secret: getEnv("JWT_SECRET", DefaultDriverJWTSecret),
			TTL:    getDurationEnv("DRIVER_TOKEN_TTL", 7*24*time.Hour),
		},
		WhatsApp: WhatsAppConfig{
			Token:           getEnv("WHATSAPP_TOKEN", ""),
			PhoneNumberID:   getEnv("PHONE_NUMBER_ID", ""),
			VerifyToken:     getEnv("VERIFY_TOKEN", ""),
			GraphURL:        strings.TrimRight(getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com/v17.0"), "/"),
			TrackingPageURL: getEnv("TRACKING_PAGE_URL", "https://your-leaflet-app.com/track"),
			Timeout:         getDurationEnv("WHATSAPP_TIMEOUT", 10*time.Second),
		},
		Providers: ProviderConfig{
			UberServerToken: getEnv("UBER_SERVER_TOKEN", ""),
			OlaAPIKey:       getEnv("OLA_API_KEY", ""),
			GoogleMapsKey:   getEnv("GOOGLE_MAPS_API", ""),
		},
		Geo: GeoConfig{
			OverpassURL:     getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			MetroRadiusM:    getIntEnv("METRO_SEARCH_RADIUS_M", 5000),
			OverpassTimeout: getDurationEnv("OVERPASS_TIMEOUT", 10*time.Second),
		},
		Tracking: TrackingConfig{
			LocationDelay: getDurationEnv("TRACKING_LOCATION_DELAY", 2*time.Second),
			ArrivalDelay:  getDurationEnv("TRACKING_ARRIVAL_DELAY", 5*time.Second),
		},
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
