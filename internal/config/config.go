package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Session  SessionConfig  `mapstructure:"session"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Projects ProjectsConfig `mapstructure:"projects"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	// CORSOrigins источники, которым разрешены запросы с cookie сессии
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File включает дублирование логов в файл с ротацией
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SessionConfig struct {
	Lifetime   time.Duration `mapstructure:"lifetime"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type UploadsConfig struct {
	Dir             string `mapstructure:"dir"`
	MaxRequestBytes int64  `mapstructure:"max_request_bytes"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
}

type ProjectsConfig struct {
	AllowDirectJoin bool `mapstructure:"allow_direct_join"`
}

// Load загружает конфигурацию из config.yaml и переопределяет значения из переменных окружения.
// Файл .env, если он есть, загружается до чтения окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults задает значения по умолчанию для необязательных ключей
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 28)

	v.SetDefault("session.lifetime", 24*time.Hour)
	v.SetDefault("session.cookie_name", "project_hub_session")

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_request_bytes", 50<<20)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("projects.allow_direct_join", true)
}

// bindEnvVariables явно связывает переменные окружения с ключами конфига
func bindEnvVariables(v *viper.Viper) {
	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	// Server
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.cors_origins", "SERVER_CORS_ORIGINS")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.file", "LOG_FILE")

	// Session
	v.BindEnv("session.lifetime", "SESSION_LIFETIME")
	v.BindEnv("session.cookie_name", "SESSION_COOKIE_NAME")
	v.BindEnv("session.secure", "SESSION_SECURE")

	// Uploads
	v.BindEnv("uploads.dir", "UPLOADS_DIR")
	v.BindEnv("uploads.max_request_bytes", "UPLOADS_MAX_REQUEST_BYTES")

	// Admin, projects
	v.BindEnv("admin.username", "ADMIN_USERNAME")
	v.BindEnv("projects.allow_direct_join", "PROJECTS_ALLOW_DIRECT_JOIN")
}

// GetDSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress возвращает адрес сервера в формате host:port
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
