// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix - префикс переменных окружения (MYCASE_DATABASE_URL и т.д.).
// EnvPrefix is the environment variable prefix (MYCASE_DATABASE_URL etc.).
const EnvPrefix = "MYCASE"

// Config хранит все конфигурационные параметры приложения.
// Config holds every configuration parameter of the application.
type Config struct {
	AppEnv    string          `mapstructure:"env" validate:"oneof=dev prod"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Session   SessionConfig   `mapstructure:"session"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	PublicURL       string        `mapstructure:"public_url" validate:"omitempty,url"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	UploadDir       string        `mapstructure:"upload_dir" validate:"required"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb" validate:"gt=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectAttempts uint          `mapstructure:"connect_attempts" validate:"gt=0"`
}

type TelegramConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	BotUsername   string        `mapstructure:"bot_username"`
	AdminID       int64         `mapstructure:"admin_id" validate:"required"`
	StaffChatID   int64         `mapstructure:"staff_chat_id" validate:"required"`
	PollTimeout   int           `mapstructure:"poll_timeout" validate:"gte=0"`
	Debug         bool          `mapstructure:"debug"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout" validate:"gt=0"`
	// ContactPhone записывается в заказы из бота: телефон клиента бот не спрашивает.
	// ContactPhone is stored on bot orders, which do not ask for the customer's phone.
	ContactPhone  string        `mapstructure:"contact_phone" validate:"max=32"`
}

type AdminConfig struct {
	// Пустой хэш отключает вход в админку.
	// An empty hash disables admin login.
	PasswordHash  string        `mapstructure:"password_hash"`
	SessionSecret string        `mapstructure:"session_secret" validate:"required,min=16"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
}

type SessionConfig struct {
	Backend  string        `mapstructure:"backend" validate:"oneof=memory redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// PricingConfig хранит цены строками, чтобы не терять точность (decimal).
// PricingConfig keeps prices as strings to be parsed into decimals.
type PricingConfig struct {
	Case     string `mapstructure:"case" validate:"required,numeric"`
	Delivery string `mapstructure:"delivery" validate:"required,numeric"`
	Currency string `mapstructure:"currency" validate:"required"`
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// IsDev сообщает, запущено ли приложение в режиме разработки.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "prod")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.public_url", "")
	v.SetDefault("http.allowed_origins", []string{"https://*", "http://*"})
	v.SetDefault("http.upload_dir", "uploads")
	v.SetDefault("http.max_upload_mb", 64)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_attempts", 5)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.bot_username", "")
	v.SetDefault("telegram.admin_id", 0)
	v.SetDefault("telegram.staff_chat_id", 0)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.notify_timeout", 20*time.Second)
	v.SetDefault("telegram.contact_phone", "068109777")

	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.session_secret", "")
	v.SetDefault("admin.session_ttl", 12*time.Hour)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.redis_url", "")
	// 0 - без срока: незавершенный диалог ждет пользователя сколько угодно.
	v.SetDefault("session.ttl", 0)

	v.SetDefault("pricing.case", "200")
	v.SetDefault("pricing.delivery", "50")
	v.SetDefault("pricing.currency", "MDL")

	v.SetDefault("scheduler.tasks.pending_digest.enabled", true)
	v.SetDefault("scheduler.tasks.pending_digest.schedule", "0 9 * * *")
	v.SetDefault("scheduler.tasks.db_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.db_maintenance.schedule", "30 3 * * *")
}

// LoadConfig загружает конфигурацию: .env -> значения по умолчанию -> файл (если указан) -> окружение.
// LoadConfig loads configuration: .env -> defaults -> file (if given) -> environment.
func LoadConfig(path string) (*Config, error) {
	// .env не обязателен: переменные могут быть заданы иным способом.
	// .env is optional: variables may be set another way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Старые имена переменных, которые уже прописаны на серверах.
	// Legacy variable names already set on deployed hosts.
	legacy := map[string]string{
		"database.url":          "DATABASE_URL",
		"telegram.token":        "TELEGRAM_APITOKEN",
		"telegram.bot_username": "BOT_USERNAME",
		"env":                   "ENV",
	}
	for key, name := range legacy {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
