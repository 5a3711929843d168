// Package config предоставляет структуры и функции для загрузки конфигурации
// из YAML-файла, путь к которому задаётся переменной CONFIG_PATH.
// Любое поле можно переопределить переменной окружения.
package config

import (
	"fmt"
	"log"
	"os"
	"time"
	// Встроенная база таймзон, чтобы Asia/Kathmandu была доступна в scratch-образах.
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	StorageOpTimeout        time.Duration `yaml:"storage_op_timeout" env:"STORAGE_OP_TIMEOUT" env-default:"5s"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                RabbitMQ  `yaml:"rabbitmq"`
	SMTP                    SMTP      `yaml:"smtp"`
	Scheduler               Scheduler `yaml:"scheduler"`
	Calendar                Calendar  `yaml:"calendar"`
	Notify                  Notify    `yaml:"notify"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ подключение к брокеру, через который уходят SMS-уведомления.
type RabbitMQ struct {
	URL           string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries    int           `yaml:"max_retries" env-default:"5"`
	RetryDelay    time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange      string        `yaml:"exchange" env-default:"notifications"`
	SMSQueue      string        `yaml:"sms_queue" env-default:"notifications.sms"`
	SMSRoutingKey string        `yaml:"sms_routing_key" env-default:"sms"`
}

// SMTP почтовый сервер для писем оператору.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// Scheduler настройки ежедневного прохода.
type Scheduler struct {
	CronSpec        string        `yaml:"cron_spec" env:"SCHEDULER_CRON_SPEC" env-default:"5 0 * * *"`
	GracePeriodDays int           `yaml:"grace_period_days" env-default:"3"`
	Workers         int           `yaml:"workers" env-default:"8"`
	RunTimeout      time.Duration `yaml:"run_timeout" env-default:"10m"`
	LockTTL         time.Duration `yaml:"lock_ttl" env-default:"15m"`
	MetricsAddress  string        `yaml:"metrics_address" env:"SCHEDULER_METRICS_ADDRESS"` // пустой адрес отключает /metrics
}

// Calendar календарь отображения и бизнес-таймзона.
type Calendar struct {
	Location  string `yaml:"location" env:"CALENDAR_LOCATION" env-default:"Asia/Kathmandu"`
	TablePath string `yaml:"table_path" env:"CALENDAR_TABLE_PATH"`
}

// Notify каналы уведомлений.
type Notify struct {
	Channels      []string      `yaml:"channels" env-default:"email,sms"`
	Timeout       time.Duration `yaml:"timeout" env-default:"30s"`
	OperatorEmail string        `yaml:"operator_email" env:"NOTIFY_OPERATOR_EMAIL"`
}

// LoadLocation возвращает бизнес-таймзону.
func (c Calendar) LoadLocation() (*time.Location, error) {
	const op = "config.LoadLocation"
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loc, nil
}

// Load читает конфиг из файла path.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Scheduler:\n"+
			"  CronSpec: %s\n"+
			"  GracePeriodDays: %d\n"+
			"Calendar:\n"+
			"  Location: %s\n"+
			"Notify:\n"+
			"  Channels: %v\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.Scheduler.CronSpec,
		c.Scheduler.GracePeriodDays,
		c.Calendar.Location,
		c.Notify.Channels,
	)
}
