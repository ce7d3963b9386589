package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

var validate = validator.New()

// ARCHITECTURAL DISCOVERY: Configuration layer serves as system-wide settings coordinator
// Clean separation between configuration management and business logic
type Config struct {
	HTTP     *HTTPConfig     `json:"http" validate:"required"`
	Database *DatabaseConfig `json:"database" validate:"required"`
	Stream   *StreamConfig   `json:"stream" validate:"required"`
	Identity *IdentityConfig `json:"identity" validate:"required"`
	Session  *SessionConfig  `json:"session" validate:"required"`
	Log      *LogConfig      `json:"log" validate:"required"`
}

// HTTPConfig controls the API listener
type HTTPConfig struct {
	Host            string        `json:"host" validate:"required"`
	Port            int           `json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `json:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `json:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
	CORSOrigin      string        `json:"cors_origin" validate:"required"`
	// RateLimit caps session mutations per user per minute
	RateLimit int `json:"rate_limit" validate:"min=1"`
	// Mode is passed to gin.SetMode
	Mode string `json:"mode" validate:"oneof=debug release test"`
}

// DatabaseConfig selects and tunes the session store.
// FUNCTIONAL DISCOVERY: SQLite is the default; Badger trades the SQL
// schema for an embedded key-value store with optimistic transactions
type DatabaseConfig struct {
	Backend      string        `json:"backend" validate:"oneof=sqlite badger"`
	Path         string        `json:"path" validate:"required_if=Backend sqlite"`
	BadgerPath   string        `json:"badger_path" validate:"required_if=Backend badger"`
	WriteTimeout time.Duration `json:"write_timeout" validate:"gt=0"`
}

// StreamConfig holds the video and chat provider credentials
type StreamConfig struct {
	APIKey       string        `json:"api_key" validate:"required"`
	APISecret    string        `json:"-" validate:"required"`
	VideoBaseURL string        `json:"video_base_url" validate:"required,url"`
	ChatBaseURL  string        `json:"chat_base_url" validate:"required,url"`
	Timeout      time.Duration `json:"timeout" validate:"gt=0"`
	// ChatTokenTTL of zero issues chat tokens without expiry
	ChatTokenTTL time.Duration `json:"chat_token_ttl" validate:"gte=0"`
}

// IdentityConfig verifies bearer tokens from the identity provider
type IdentityConfig struct {
	Secret   string `json:"-" validate:"required"`
	Issuer   string `json:"issuer"`
	Audience string `json:"audience"`
}

// SessionConfig tunes the lifecycle coordinator
type SessionConfig struct {
	ExternalTimeout time.Duration `json:"external_timeout" validate:"gt=0"`
	CallIDAttempts  int           `json:"call_id_attempts" validate:"min=1,max=10"`
}

// LogConfig selects the logrus level and formatter
type LogConfig struct {
	Level  string `json:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `json:"format" validate:"oneof=text json"`
}

// FUNCTIONAL DISCOVERY: Defaults run a single node on local SQLite.
// Credentials have no defaults and must come from a file or the environment
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigin:      "*",
			RateLimit:       30,
			Mode:            "release",
		},
		Database: &DatabaseConfig{
			Backend:      BackendSQLite,
			Path:         "./data/sessionhub.db",
			BadgerPath:   "./data/badger",
			WriteTimeout: 30 * time.Second,
		},
		Stream: &StreamConfig{
			VideoBaseURL: "https://video.stream-io-api.com/api/v2/video",
			ChatBaseURL:  "https://chat.stream-io-api.com",
			Timeout:      10 * time.Second,
			ChatTokenTTL: 24 * time.Hour,
		},
		Identity: &IdentityConfig{},
		Session: &SessionConfig{
			ExternalTimeout: 10 * time.Second,
			CallIDAttempts:  3,
		},
		Log: &LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			first := fieldErrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q (%d problems)", first.Namespace(), first.Tag(), len(fieldErrs))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// EnvConfig lists every environment override. Zero values leave the
// setting untouched.
type EnvConfig struct {
	HTTPHost            string        `env:"SESSIONHUB_HTTP_HOST"`
	HTTPPort            int           `env:"SESSIONHUB_HTTP_PORT"`
	HTTPReadTimeout     time.Duration `env:"SESSIONHUB_HTTP_READ_TIMEOUT"`
	HTTPWriteTimeout    time.Duration `env:"SESSIONHUB_HTTP_WRITE_TIMEOUT"`
	HTTPShutdownTimeout time.Duration `env:"SESSIONHUB_HTTP_SHUTDOWN_TIMEOUT"`
	HTTPCORSOrigin      string        `env:"SESSIONHUB_HTTP_CORS_ORIGIN"`
	HTTPRateLimit       int           `env:"SESSIONHUB_HTTP_RATE_LIMIT"`
	HTTPMode            string        `env:"SESSIONHUB_HTTP_MODE"`

	DatabaseBackend      string        `env:"SESSIONHUB_DATABASE_BACKEND"`
	DatabasePath         string        `env:"SESSIONHUB_DATABASE_PATH"`
	DatabaseBadgerPath   string        `env:"SESSIONHUB_DATABASE_BADGER_PATH"`
	DatabaseWriteTimeout time.Duration `env:"SESSIONHUB_DATABASE_WRITE_TIMEOUT"`

	StreamAPIKey       string        `env:"SESSIONHUB_STREAM_API_KEY"`
	StreamAPISecret    string        `env:"SESSIONHUB_STREAM_API_SECRET"`
	StreamVideoBaseURL string        `env:"SESSIONHUB_STREAM_VIDEO_BASE_URL"`
	StreamChatBaseURL  string        `env:"SESSIONHUB_STREAM_CHAT_BASE_URL"`
	StreamTimeout      time.Duration `env:"SESSIONHUB_STREAM_TIMEOUT"`
	StreamChatTokenTTL time.Duration `env:"SESSIONHUB_STREAM_CHAT_TOKEN_TTL"`

	IdentitySecret   string `env:"SESSIONHUB_IDENTITY_SECRET"`
	IdentityIssuer   string `env:"SESSIONHUB_IDENTITY_ISSUER"`
	IdentityAudience string `env:"SESSIONHUB_IDENTITY_AUDIENCE"`

	SessionExternalTimeout time.Duration `env:"SESSIONHUB_SESSION_EXTERNAL_TIMEOUT"`
	SessionCallIDAttempts  int           `env:"SESSIONHUB_SESSION_CALL_ID_ATTEMPTS"`

	LogLevel  string `env:"SESSIONHUB_LOG_LEVEL"`
	LogFormat string `env:"SESSIONHUB_LOG_FORMAT"`
}

// ApplyEnv overlays environment variables onto c
func (c *Config) ApplyEnv() error {
	var e EnvConfig
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setString(&c.HTTP.Host, e.HTTPHost)
	setInt(&c.HTTP.Port, e.HTTPPort)
	setDuration(&c.HTTP.ReadTimeout, e.HTTPReadTimeout)
	setDuration(&c.HTTP.WriteTimeout, e.HTTPWriteTimeout)
	setDuration(&c.HTTP.ShutdownTimeout, e.HTTPShutdownTimeout)
	setString(&c.HTTP.CORSOrigin, e.HTTPCORSOrigin)
	setInt(&c.HTTP.RateLimit, e.HTTPRateLimit)
	setString(&c.HTTP.Mode, e.HTTPMode)

	setString(&c.Database.Backend, e.DatabaseBackend)
	setString(&c.Database.Path, e.DatabasePath)
	setString(&c.Database.BadgerPath, e.DatabaseBadgerPath)
	setDuration(&c.Database.WriteTimeout, e.DatabaseWriteTimeout)

	setString(&c.Stream.APIKey, e.StreamAPIKey)
	setString(&c.Stream.APISecret, e.StreamAPISecret)
	setString(&c.Stream.VideoBaseURL, e.StreamVideoBaseURL)
	setString(&c.Stream.ChatBaseURL, e.StreamChatBaseURL)
	setDuration(&c.Stream.Timeout, e.StreamTimeout)
	setDuration(&c.Stream.ChatTokenTTL, e.StreamChatTokenTTL)

	setString(&c.Identity.Secret, e.IdentitySecret)
	setString(&c.Identity.Issuer, e.IdentityIssuer)
	setString(&c.Identity.Audience, e.IdentityAudience)

	setDuration(&c.Session.ExternalTimeout, e.SessionExternalTimeout)
	setInt(&c.Session.CallIDAttempts, e.SessionCallIDAttempts)

	setString(&c.Log.Level, e.LogLevel)
	setString(&c.Log.Format, e.LogFormat)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

// ConfigFile represents the JSON structure for file-based configuration
// FUNCTIONAL DISCOVERY: Separate struct for JSON parsing to handle duration strings.
// Secrets are deliberately absent; they only come from the environment
type ConfigFile struct {
	HTTP     *HTTPConfigFile     `json:"http"`
	Database *DatabaseConfigFile `json:"database"`
	Stream   *StreamConfigFile   `json:"stream"`
	Identity *IdentityConfigFile `json:"identity"`
	Session  *SessionConfigFile  `json:"session"`
	Log      *LogConfig          `json:"log"`
}

type HTTPConfigFile struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	ReadTimeout     string `json:"read_timeout"`
	WriteTimeout    string `json:"write_timeout"`
	ShutdownTimeout string `json:"shutdown_timeout"`
	CORSOrigin      string `json:"cors_origin"`
	RateLimit       int    `json:"rate_limit"`
	Mode            string `json:"mode"`
}

type DatabaseConfigFile struct {
	Backend      string `json:"backend"`
	Path         string `json:"path"`
	BadgerPath   string `json:"badger_path"`
	WriteTimeout string `json:"write_timeout"`
}

type StreamConfigFile struct {
	APIKey       string `json:"api_key"`
	VideoBaseURL string `json:"video_base_url"`
	ChatBaseURL  string `json:"chat_base_url"`
	Timeout      string `json:"timeout"`
	ChatTokenTTL string `json:"chat_token_ttl"`
}

type IdentityConfigFile struct {
	Issuer   string `json:"issuer"`
	Audience string `json:"audience"`
}

type SessionConfigFile struct {
	ExternalTimeout string `json:"external_timeout"`
	CallIDAttempts  int    `json:"call_id_attempts"`
}

// ApplyFile overlays the JSON file at path onto c. A malformed duration is an error.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file ConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	d := durationParser{}
	if f := file.HTTP; f != nil {
		setString(&c.HTTP.Host, f.Host)
		setInt(&c.HTTP.Port, f.Port)
		d.parse("http.read_timeout", f.ReadTimeout, &c.HTTP.ReadTimeout)
		d.parse("http.write_timeout", f.WriteTimeout, &c.HTTP.WriteTimeout)
		d.parse("http.shutdown_timeout", f.ShutdownTimeout, &c.HTTP.ShutdownTimeout)
		setString(&c.HTTP.CORSOrigin, f.CORSOrigin)
		setInt(&c.HTTP.RateLimit, f.RateLimit)
		setString(&c.HTTP.Mode, f.Mode)
	}
	if f := file.Database; f != nil {
		setString(&c.Database.Backend, f.Backend)
		setString(&c.Database.Path, f.Path)
		setString(&c.Database.BadgerPath, f.BadgerPath)
		d.parse("database.write_timeout", f.WriteTimeout, &c.Database.WriteTimeout)
	}
	if f := file.Stream; f != nil {
		setString(&c.Stream.APIKey, f.APIKey)
		setString(&c.Stream.VideoBaseURL, f.VideoBaseURL)
		setString(&c.Stream.ChatBaseURL, f.ChatBaseURL)
		d.parse("stream.timeout", f.Timeout, &c.Stream.Timeout)
		d.parse("stream.chat_token_ttl", f.ChatTokenTTL, &c.Stream.ChatTokenTTL)
	}
	if f := file.Identity; f != nil {
		setString(&c.Identity.Issuer, f.Issuer)
		setString(&c.Identity.Audience, f.Audience)
	}
	if f := file.Session; f != nil {
		d.parse("session.external_timeout", f.ExternalTimeout, &c.Session.ExternalTimeout)
		setInt(&c.Session.CallIDAttempts, f.CallIDAttempts)
	}
	if f := file.Log; f != nil {
		setString(&c.Log.Level, f.Level)
		setString(&c.Log.Format, f.Format)
	}

	if d.err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, d.err)
	}
	return nil
}

// durationParser keeps the first parse failure so ApplyFile reads linearly
type durationParser struct {
	err error
}

func (p *durationParser) parse(field, value string, dst *time.Duration) {
	if p.err != nil || value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
		return
	}
	*dst = parsed
}

// Load builds the runtime configuration.
// FUNCTIONAL DISCOVERY: Precedence is environment > file > defaults.
// A .env file in the working directory is loaded into the environment first when present
func Load(path string) (*Config, error) {
	config, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Resolve layers the file and environment over the defaults without
// validating the result. Offline tools use it when they only need a
// subset of the sections
func Resolve(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()
	if path != "" {
		if err := config.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}
