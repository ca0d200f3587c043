package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	AWS       AWSConfig       `yaml:"aws"`
	Upload    UploadConfig    `yaml:"upload"`
	Captcha   CaptchaConfig   `yaml:"captcha"`
	APNS      APNSConfig      `yaml:"apns"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Policy    PolicyConfig    `yaml:"policy"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// TrustForwarded honours X-Forwarded-For style headers. Enable only
	// behind a proxy that overwrites them.
	TrustForwarded bool `yaml:"trust_forwarded"`
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects where uploaded media lives
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	LocalPath string `yaml:"local_path"`
	PublicURL string `yaml:"public_url"`
}

// AWSConfig holds S3 configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// UploadConfig bounds uploaded media
type UploadConfig struct {
	MaxSize        int64 `yaml:"max_size"`
	MaxPixels      int64 `yaml:"max_pixels"`
	ThumbnailWidth int   `yaml:"thumbnail_width"`
}

// CaptchaConfig holds the login/register CAPTCHA gate settings
type CaptchaConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Secret    string  `yaml:"secret"`
	MinScore  float64 `yaml:"min_score"`
	VerifyURL string  `yaml:"verify_url"`
}

// APNSConfig holds Apple push credentials
type APNSConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// Enabled reports whether push credentials are configured
func (c *APNSConfig) Enabled() bool {
	return c.KeyFile != "" && c.KeyID != "" && c.TeamID != ""
}

// RateLimitConfig throttles login and registration per client IP
type RateLimitConfig struct {
	AuthPerMinute int `yaml:"auth_per_minute"`
	AuthBurst     int `yaml:"auth_burst"`
}

// PolicyConfig holds authorization switches
type PolicyConfig struct {
	AnniversaryOwnerOnly bool `yaml:"anniversary_owner_only"`
}

// Load reads configuration from a YAML file. A .env file next to the
// process is loaded first when present, and ${VAR} references in the YAML are
// expanded from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys absent from the file
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", MaxConns: 10},
		JWT:      JWTConfig{TTL: 7 * 24 * time.Hour},
		Log:      LogConfig{Level: "info", Format: "console"},
		CORS:     CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Storage:  StorageConfig{Driver: StorageLocal, LocalPath: "uploads", PublicURL: "/uploads"},
		Upload:   UploadConfig{MaxSize: 50 << 20, MaxPixels: 50_000_000, ThumbnailWidth: 300},
		Captcha: CaptchaConfig{
			MinScore:  0.5,
			VerifyURL: "https://www.google.com/recaptcha/api/siteverify",
		},
		RateLimit: RateLimitConfig{AuthPerMinute: 10, AuthBurst: 5},
	}
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL)
	}
	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalPath == "" {
			return errors.New("storage.local_path is required for the local driver")
		}
	case StorageS3:
		if c.AWS.S3Bucket == "" {
			return errors.New("aws.s3_bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		return errors.New("cors.allowed_origins must list at least one origin")
	}
	if c.Captcha.Enabled && c.Captcha.Secret == "" {
		return errors.New("captcha.secret is required when captcha is enabled")
	}
	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}
