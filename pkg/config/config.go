package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Modos del gateway de datos.
const (
	// GatewayHTTP todo se consulta a la API HTTP del backend.
	GatewayHTTP = "http"
	// GatewayHybrid compradores, settings y numeración se leen de PostgreSQL; vista previa y
	// creación siguen por HTTP.
	GatewayHybrid = "hybrid"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Backend BackendConfig
	Session SessionConfig
	Cache   CacheConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	// GatewayMode "http" o "hybrid".
	GatewayMode string
}

// DBConfig configuración de PostgreSQL (solo en modo hybrid).
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendConfig conexión a la API del backend de documentos.
type BackendConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SessionConfig parámetros de las sesiones de creación de factura.
type SessionConfig struct {
	DebounceDelay   time.Duration
	MinNumberLength int
	IdleTTL         time.Duration
	ReapInterval    time.Duration
}

// CacheConfig cache Redis opcional de compradores y settings (vacío = sin cache).
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// Enabled indica si hay Redis configurado.
func (c CacheConfig) Enabled() bool { return c.RedisURL != "" }

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, BACKEND_URL, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "invoice-desk"),
			LogLevel:    getString(v, "LOG_LEVEL", "info"),
			GatewayMode: strings.ToLower(getString(v, "GATEWAY_MODE", GatewayHTTP)),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "invoice_desk"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "invoice-desk"),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			ShutdownTimeout: getDuration(v, "HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Backend: BackendConfig{
			BaseURL: getString(v, "BACKEND_URL", "http://localhost:8000"),
			APIKey:  getString(v, "BACKEND_API_KEY", ""),
			Timeout: getDuration(v, "BACKEND_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			DebounceDelay:   getDuration(v, "SESSION_DEBOUNCE_MS", 500*time.Millisecond),
			MinNumberLength: getInt(v, "SESSION_MIN_NUMBER_LENGTH", 3),
			IdleTTL:         getDuration(v, "SESSION_IDLE_TTL", 30*time.Minute),
			ReapInterval:    getDuration(v, "SESSION_REAP_INTERVAL", time.Minute),
		},
		Cache: CacheConfig{
			RedisURL: getString(v, "REDIS_URL", ""),
			TTL:      getDuration(v, "CACHE_TTL", time.Minute),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba los valores obligatorios y combinaciones inválidas.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio"))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("BACKEND_URL es obligatorio"))
	}
	switch c.App.GatewayMode {
	case GatewayHTTP:
	case GatewayHybrid:
		if c.DB.DatabaseURL == "" && c.DB.Host == "" {
			errs = append(errs, errors.New("GATEWAY_MODE=hybrid requiere DATABASE_URL o DB_HOST"))
		}
	default:
		errs = append(errs, fmt.Errorf("GATEWAY_MODE inválido %q (http|hybrid)", c.App.GatewayMode))
	}
	if c.Session.MinNumberLength < 1 {
		errs = append(errs, errors.New("SESSION_MIN_NUMBER_LENGTH debe ser >= 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration acepta "1500ms", "30m" o un entero. El entero se interpreta en milisegundos si la
// clave termina en _MS y en segundos en otro caso.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if strings.HasSuffix(key, "_MS") {
			return time.Duration(n) * time.Millisecond
		}
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
