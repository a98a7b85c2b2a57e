package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Email    EmailConfig    `yaml:"email"`
	Upload   UploadConfig   `yaml:"upload"`
	Redis    RedisConfig    `yaml:"redis"`
	Activity ActivityConfig `yaml:"activity"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Mode        string `yaml:"mode"` // debug, release, test
	FrontendURL string `yaml:"frontend_url"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// EmailConfig holds SMTP settings for invitation and assignment mail.
// Delivery is best-effort; an empty host disables sending entirely.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

// UploadConfig controls where attachment files are stored and the public
// path they are served from.
type UploadConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// RedisConfig enables the async mail queue when set.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ActivityConfig controls activity log retention. RetentionDays <= 0
// disables the cleanup scheduler.
type ActivityConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "4000",
			Mode:        "debug",
			FrontendURL: "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "taskboard.db",
		},
		JWT: JWTConfig{
			Secret:     "taskboard-secret-key-change-in-production",
			ExpireHour: 168, // 7 days
		},
		Email: EmailConfig{
			Port: 587,
		},
		Upload: UploadConfig{
			Dir:     "uploads",
			BaseURL: "/uploads",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Activity: ActivityConfig{
			RetentionDays: 0,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		c.Server.FrontendURL = url
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if host := os.Getenv("EMAIL_HOST"); host != "" {
		c.Email.Host = host
	}
	if port := os.Getenv("EMAIL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Email.Port = p
		}
	}
	if user := os.Getenv("EMAIL_USER"); user != "" {
		c.Email.Username = user
	}
	if pass := os.Getenv("EMAIL_PASS"); pass != "" {
		c.Email.Password = pass
	}
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		c.Email.From = from
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		c.Upload.Dir = dir
	}
	if days := os.Getenv("ACTIVITY_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			c.Activity.RetentionDays = d
		}
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = redisAddr
	}
	if redisPass := os.Getenv("REDIS_PASSWORD"); redisPass != "" {
		c.Redis.Password = redisPass
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
