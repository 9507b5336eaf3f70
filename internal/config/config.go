package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config описывает все параметры веб-приложения и бота уведомлений.
type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Session   SessionConfig   `yaml:"session"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Polling   PollingConfig   `yaml:"polling"`
	Upload    UploadConfig    `yaml:"upload"`
	Logging   LoggingConfig   `yaml:"logging"`
	RBAC      RBACConfig      `yaml:"rbac"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type HTTPConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LoginRate      float64       `yaml:"login_rate"`
	LoginBurst     int           `yaml:"login_burst"`
}

// EndpointsConfig хранит адреса удалённых функций (каталог, бронирования, чат и т.д.).
type EndpointsConfig struct {
	Tours        string `yaml:"tours"`
	Bookings     string `yaml:"bookings"`
	Chat         string `yaml:"chat"`
	Moderation   string `yaml:"moderation"`
	Auth         string `yaml:"auth"`
	Upload       string `yaml:"upload"`
	Availability string `yaml:"availability"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	BotUsername string `yaml:"bot_username"`
	Debug       bool   `yaml:"debug"`
}

// PollingConfig задаёт интервалы опроса чата и уведомлений.
type PollingConfig struct {
	Chat          time.Duration `yaml:"chat"`
	Notifications time.Duration `yaml:"notifications"`
}

type UploadConfig struct {
	MaxImages    int   `yaml:"max_images"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RBACConfig struct {
	ModelPath  string `yaml:"model_path"`
	PolicyPath string `yaml:"policy_path"`
}

// Load читает .env (если есть) и YAML-файл конфигурации, подставляя переменные окружения.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML после подстановки переменных окружения и заполняет значения по умолчанию.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default возвращает конфигурацию со значениями, которые использует фронтенд по умолчанию.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "turgid"
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.HTTP.LoginRate == 0 {
		c.HTTP.LoginRate = 1
	}
	if c.HTTP.LoginBurst == 0 {
		c.HTTP.LoginBurst = 5
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 30 * 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "authToken"
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Polling.Chat == 0 {
		c.Polling.Chat = 5 * time.Second
	}
	if c.Polling.Notifications == 0 {
		c.Polling.Notifications = 10 * time.Second
	}
	if c.Upload.MaxImages == 0 {
		c.Upload.MaxImages = 15
	}
	if c.Upload.MaxFileBytes == 0 {
		c.Upload.MaxFileBytes = 5 * 1024 * 1024
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.RBAC.ModelPath == "" {
		c.RBAC.ModelPath = "configs/rbac_model.conf"
	}
	if c.RBAC.PolicyPath == "" {
		c.RBAC.PolicyPath = "configs/policy.csv"
	}
}

// ErrNoSessionSecret возвращается, если не задан ключ подписи сессий.
var ErrNoSessionSecret = errors.New("session.secret is empty: set SESSION_SECRET")

// Validate проверяет параметры, без которых процесс запускать нельзя.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrNoSessionSecret
	}
	return nil
}

// PostgresDSN собирает строку подключения так же, как это делает бот.
func (d DatabaseConfig) PostgresDSN() string {
	return "host=" + d.Host + " port=" + d.Port + " user=" + d.User + " password=" + d.Password +
		" dbname=" + d.Name + " sslmode=" + d.SSLMode
}
