package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config: корневая структура конфигурации сервиса SuperAI.
// Секреты (ключи апстримов) сюда не попадают: их отдает SecretProvider.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Grok      GrokConfig      `mapstructure:"grok"`
	Relevance RelevanceConfig `mapstructure:"relevance"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GrokConfig: апстрим chat-completion для DiagnosisProxy.
type GrokConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	APIKeyEnv   string  `mapstructure:"api_key_env"` // Имя переменной окружения с ключом
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RelevanceConfig: платформа автоматизации агентов для AutomationProxy.
type RelevanceConfig struct {
	Region         string `mapstructure:"region"`
	ProjectID      string `mapstructure:"project_id"`
	BaseURL        string `mapstructure:"base_url"` // Пусто: собирается из region
	AuthTokenEnv   string `mapstructure:"auth_token_env"`
	DefaultMessage string `mapstructure:"default_message"`
}

// Endpoint возвращает базовый URL API с учетом региона.
func (c RelevanceConfig) Endpoint() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://api-%s.stack.tryrelevance.com/latest", c.Region)
}

// UpstreamConfig: общие настройки исходящих вызовов.
// Повторов нет: предохранитель только быстро отказывает, пока открыт.
// Лимит и предохранитель общие для всех вызовов апстрима, поэтому по умолчанию выключены.
type UpstreamConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`    // 0: без таймаута на стороне клиента
	RateLimit     float64       `mapstructure:"rate_limit"` // 0: без лимита
	RateBurst     int           `mapstructure:"rate_burst"`
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"` // Подряд идущих отказов до размыкания, 0: предохранитель выключен
}

// DatabaseConfig описывает подключение к PostgreSQL (журнал аудита).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig описывает подключение к Redis (лента супервизора).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuditConfig настраивает буфер и пакетную запись журнала.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	File       string `mapstructure:"file"`   // Пусто: только stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// path может быть пустым, тогда файл ищется в . и ./configs.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// 2. ENV перекрывает файл: SERVER_PORT=9000 -> server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет, работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет то, без чего сервис не стартует.
// Отсутствие ключей апстримов здесь не ошибка: это ConfigurationError на уровне запроса.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Grok.BaseURL == "" || c.Grok.Model == "" {
		return fmt.Errorf("config: grok.base_url and grok.model are required")
	}
	if c.Relevance.BaseURL == "" && c.Relevance.Region == "" {
		return fmt.Errorf("config: relevance.region or relevance.base_url is required")
	}
	if c.Upstream.RateLimit < 0 {
		return fmt.Errorf("config: upstream.rate_limit must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("grok.base_url", "https://api.x.ai/v1")
	v.SetDefault("grok.model", "grok-2-1212")
	v.SetDefault("grok.api_key_env", "GROK_API_KEY")
	v.SetDefault("grok.temperature", 0.3)
	v.SetDefault("grok.max_tokens", 800)

	v.SetDefault("relevance.region", "f1db6c")
	v.SetDefault("relevance.project_id", "3c82701f-db14-499e-a72e-b9be9178ab18")
	v.SetDefault("relevance.auth_token_env", "RELEVANCE_AI_AUTH_TOKEN")
	v.SetDefault("relevance.default_message", DefaultTriggerMessage)

	v.SetDefault("upstream.rate_limit", 0)
	v.SetDefault("upstream.rate_burst", 10)
	v.SetDefault("upstream.cb_max_requests", 3)
	v.SetDefault("upstream.cb_interval", 30*time.Second)
	v.SetDefault("upstream.cb_timeout", 30*time.Second)
	v.SetDefault("upstream.cb_failures", 0)

	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.channel", RedisChanSupervisorFeed)

	v.SetDefault("audit.buffer_size", 1000)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
}

// DefaultTriggerMessage: текст для trigger-agent, если params.message не передан.
const DefaultTriggerMessage = "Hello! Please report your current status."
