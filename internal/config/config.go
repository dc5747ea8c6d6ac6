package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yukikurage/taskhub-api/internal/constants"
	"github.com/yukikurage/taskhub-api/internal/utils"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	HTTPAddr string
	GinMode  string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisHost     string
	RedisPort     string
	SessionSecret string

	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
	SnowflakeNode int64

	RequestTimeout time.Duration

	LogLevel string
	LogDev   bool
	LogFile  string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	AllowAdminDemotion bool
	AllowSelfDemotion  bool

	DefaultPageSize int
	MaxPageSize     int

	// GeneratedSecrets names the secrets that were generated for this process
	// because none were configured.
	GeneratedSecrets []string
}

// Load reads configuration from the environment, an optional .env file and an
// optional config file named by CONFIG_FILE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		HTTPAddr:           v.GetString("http_addr"),
		GinMode:            v.GetString("gin_mode"),
		DBDriver:           v.GetString("db_driver"),
		DatabaseURL:        v.GetString("database_url"),
		SQLitePath:         v.GetString("sqlite_path"),
		DBHost:             v.GetString("db_host"),
		DBPort:             v.GetString("db_port"),
		DBUser:             v.GetString("db_user"),
		DBPassword:         v.GetString("db_password"),
		DBName:             v.GetString("db_name"),
		RedisHost:          v.GetString("redis_host"),
		RedisPort:          v.GetString("redis_port"),
		SessionSecret:      v.GetString("session_secret"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTIssuer:          v.GetString("jwt_issuer"),
		TokenTTL:           v.GetDuration("token_ttl"),
		SnowflakeNode:      v.GetInt64("snowflake_node"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		LogLevel:           v.GetString("log_level"),
		LogDev:             v.GetBool("log_dev"),
		LogFile:            v.GetString("log_file"),
		AdminUsername:      v.GetString("admin_username"),
		AdminEmail:         v.GetString("admin_email"),
		AdminPassword:      v.GetString("admin_password"),
		AllowAdminDemotion: v.GetBool("allow_admin_demotion"),
		AllowSelfDemotion:  v.GetBool("allow_self_demotion"),
		DefaultPageSize:    v.GetInt("default_page_size"),
		MaxPageSize:        v.GetInt("max_page_size"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.ensureSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("sqlite_path", "taskhub.db")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "taskuser")
	v.SetDefault("db_password", "taskpassword")
	v.SetDefault("db_name", "task_management")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("jwt_issuer", "taskhub-api")
	v.SetDefault("token_ttl", 30*time.Minute)
	v.SetDefault("snowflake_node", 1)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_email", "admin@example.com")
	v.SetDefault("allow_admin_demotion", true)
	v.SetDefault("allow_self_demotion", true)
	v.SetDefault("default_page_size", constants.DefaultPageSize)
	v.SetDefault("max_page_size", constants.MaxPageSize)
}

// IsProduction reports whether the server runs in gin release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

func (c *Config) ensureSecrets() error {
	for _, s := range []struct {
		name  string
		value *string
	}{
		{"JWT_SECRET", &c.JWTSecret},
		{"SESSION_SECRET", &c.SessionSecret},
	} {
		if *s.value != "" {
			continue
		}
		if c.IsProduction() {
			return fmt.Errorf("%s is required in release mode", s.name)
		}
		secret, err := utils.GenerateSecret(32)
		if err != nil {
			return fmt.Errorf("generating %s: %w", s.name, err)
		}
		*s.value = secret
		c.GeneratedSecrets = append(c.GeneratedSecrets, s.name)
	}
	return nil
}
