package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	httpadapter "labtrack/internal/adapters/in/http"
	"labtrack/internal/core/domain/model/order"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Push transports.
const (
	PushTransportRedis = "redis"
	PushTransportMQTT  = "mqtt"
	PushTransportLog   = "log"
)

type Config struct {
	HTTPPort   string `mapstructure:"HTTP_PORT"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSslMode  string `mapstructure:"DB_SSLMODE"`

	PushTransport     string `mapstructure:"PUSH_TRANSPORT"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	RedisPushStream   string `mapstructure:"REDIS_PUSH_STREAM"`
	RedisStreamMaxLen int64  `mapstructure:"REDIS_STREAM_MAX_LEN"`
	MQTTBroker        string `mapstructure:"MQTT_BROKER"`
	MQTTClientID      string `mapstructure:"MQTT_CLIENT_ID"`
	MQTTUsername      string `mapstructure:"MQTT_USERNAME"`
	MQTTPassword      string `mapstructure:"MQTT_PASSWORD"`
	MQTTPushTopic     string `mapstructure:"MQTT_PUSH_TOPIC"`

	NotificationTimeout     time.Duration `mapstructure:"NOTIFICATION_TIMEOUT"`
	NotificationConcurrency int           `mapstructure:"NOTIFICATION_CONCURRENCY"`
	NotificationRetries     int           `mapstructure:"NOTIFICATION_RETRIES"`

	ScanPageSize int `mapstructure:"REPORT_SCAN_PAGE_SIZE"`
	MaxScanCalls int `mapstructure:"REPORT_MAX_SCAN_CALLS"`

	StaleOrderThreshold time.Duration `mapstructure:"STALE_ORDER_THRESHOLD"`
	StaleOrderSchedule  string        `mapstructure:"STALE_ORDER_SCHEDULE"`

	// "key:id" pairs separated by commas.
	IssuerAPIKeys       string `mapstructure:"ISSUER_API_KEYS"`
	LabAPIKeys          string `mapstructure:"LAB_API_KEYS"`
	ReportClientAPIKeys string `mapstructure:"REPORT_CLIENT_API_KEYS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var configDefaults = map[string]any{
	"HTTP_PORT":                "8080",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_USER":                  "postgres",
	"DB_NAME":                  "labtrack",
	"DB_SSLMODE":               "disable",
	"PUSH_TRANSPORT":           PushTransportLog,
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PUSH_STREAM":        "labtrack:push",
	"REDIS_STREAM_MAX_LEN":     100000,
	"MQTT_CLIENT_ID":           "labtrack",
	"MQTT_PUSH_TOPIC":          "labtrack/notifications/push",
	"NOTIFICATION_TIMEOUT":     "10s",
	"NOTIFICATION_CONCURRENCY": 3,
	"NOTIFICATION_RETRIES":     2,
	"REPORT_SCAN_PAGE_SIZE":    100,
	"REPORT_MAX_SCAN_CALLS":    20,
	"STALE_ORDER_THRESHOLD":    "48h",
	"STALE_ORDER_SCHEDULE":     "0 */15 * * * *",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
}

var configKeys = []string{
	"HTTP_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"PUSH_TRANSPORT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PUSH_STREAM", "REDIS_STREAM_MAX_LEN",
	"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_PUSH_TOPIC",
	"NOTIFICATION_TIMEOUT", "NOTIFICATION_CONCURRENCY", "NOTIFICATION_RETRIES",
	"REPORT_SCAN_PAGE_SIZE", "REPORT_MAX_SCAN_CALLS",
	"STALE_ORDER_THRESHOLD", "STALE_ORDER_SCHEDULE",
	"ISSUER_API_KEYS", "LAB_API_KEYS", "REPORT_CLIENT_API_KEYS",
	"LOG_LEVEL", "LOG_FORMAT",
}

// LoadConfig reads envFile when it exists, then the process environment.
// Environment variables win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c Config) Validate() error {
	var problems []error
	if c.HTTPPort == "" {
		problems = append(problems, errors.New("HTTP_PORT is required"))
	}
	if c.DBHost == "" || c.DBName == "" {
		problems = append(problems, errors.New("DB_HOST and DB_NAME are required"))
	}

	switch c.PushTransport {
	case PushTransportRedis:
		if c.RedisAddr == "" {
			problems = append(problems, errors.New("REDIS_ADDR is required for the redis push transport"))
		}
	case PushTransportMQTT:
		if c.MQTTBroker == "" {
			problems = append(problems, errors.New("MQTT_BROKER is required for the mqtt push transport"))
		}
	case PushTransportLog:
	default:
		problems = append(problems, fmt.Errorf("PUSH_TRANSPORT must be redis, mqtt or log, got %q", c.PushTransport))
	}

	if c.NotificationTimeout <= 0 {
		problems = append(problems, errors.New("NOTIFICATION_TIMEOUT must be positive"))
	}
	if c.NotificationConcurrency < 1 {
		problems = append(problems, errors.New("NOTIFICATION_CONCURRENCY must be at least 1"))
	}
	if c.NotificationRetries < 0 {
		problems = append(problems, errors.New("NOTIFICATION_RETRIES must not be negative"))
	}
	if c.ScanPageSize < 1 {
		problems = append(problems, errors.New("REPORT_SCAN_PAGE_SIZE must be at least 1"))
	}
	if c.MaxScanCalls < 1 {
		problems = append(problems, errors.New("REPORT_MAX_SCAN_CALLS must be at least 1"))
	}
	if c.StaleOrderThreshold <= 0 {
		problems = append(problems, errors.New("STALE_ORDER_THRESHOLD must be positive"))
	}

	if _, err := c.APIKeys(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// NotificationAttemptTimeout splits the per-target delivery budget across the
// first attempt and its retries.
func (c Config) NotificationAttemptTimeout() time.Duration {
	return c.NotificationTimeout / time.Duration(c.NotificationRetries+1)
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// APIKeys parses the three key tables. Issuer ids may not collide with the
// implicit issuer of self-issued order numbers.
func (c Config) APIKeys() (httpadapter.APIKeys, error) {
	issuers, issuerErr := parseKeyTable("ISSUER_API_KEYS", c.IssuerAPIKeys)
	labs, labErr := parseKeyTable("LAB_API_KEYS", c.LabAPIKeys)
	clients, clientErr := parseKeyTable("REPORT_CLIENT_API_KEYS", c.ReportClientAPIKeys)
	if err := errors.Join(issuerErr, labErr, clientErr); err != nil {
		return httpadapter.APIKeys{}, err
	}

	for _, id := range issuers {
		if id == order.ImplicitIssuerID {
			return httpadapter.APIKeys{}, fmt.Errorf("ISSUER_API_KEYS: issuer id %q is reserved", id)
		}
	}

	return httpadapter.APIKeys{Issuers: issuers, Labs: labs, ReportClients: clients}, nil
}

func parseKeyTable(name, raw string) (map[string]string, error) {
	table := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, id, ok := strings.Cut(pair, ":")
		key, id = strings.TrimSpace(key), strings.TrimSpace(id)
		if !ok || key == "" || id == "" {
			return nil, fmt.Errorf("%s: entry %q is not key:id", name, pair)
		}
		if _, dup := table[key]; dup {
			return nil, fmt.Errorf("%s: key listed twice", name)
		}
		table[key] = id
	}
	return table, nil
}
