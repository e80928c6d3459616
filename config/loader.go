// Package config loads the typed configuration shared by the Ingress Router and Channel
// Processor binaries.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("CONVOFLOW").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete convoflow configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" env:"SERVER"`
	AWS     AWSConfig     `yaml:"aws" env:"AWS"`
	Queue   QueueConfig   `yaml:"queue" env:"QUEUE"`
	Store   StoreConfig   `yaml:"store" env:"STORE"`
	Ingress IngressConfig `yaml:"ingress" env:"INGRESS"`
	LLM     LLMConfig     `yaml:"llm" env:"LLM"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
}

// ServerConfig controls the HTTP front door and metrics listener lifecycle.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// AWSConfig carries the region and, optionally, static credentials used by every AWS SDK
// client (SQS, DynamoDB, Secrets Manager). In production this is normally left to the
// default credential chain (IAM role); static credentials exist for local/dev use.
type AWSConfig struct {
	Region          string `yaml:"region" env:"REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"` // non-empty to target a local SQS/DynamoDB emulator
}

// QueueConfig resolves per-channel queue URLs and heartbeat timing.
type QueueConfig struct {
	WhatsAppURL      string        `yaml:"whatsapp_url" env:"WHATSAPP_URL"`
	SMSURL           string        `yaml:"sms_url" env:"SMS_URL"`
	EmailURL         string        `yaml:"email_url" env:"EMAIL_URL"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout" env:"VISIBILITY_TIMEOUT"`
	ReceiveWaitTime   time.Duration `yaml:"receive_wait_time" env:"RECEIVE_WAIT_TIME"`
	MaxBatchSize      int32         `yaml:"max_batch_size" env:"MAX_BATCH_SIZE"`
}

// URLFor resolves the configured queue URL for channel, if any.
func (q QueueConfig) URLFor(channel string) (string, bool) {
	switch channel {
	case "whatsapp":
		return q.WhatsAppURL, q.WhatsAppURL != ""
	case "sms":
		return q.SMSURL, q.SMSURL != ""
	case "email":
		return q.EmailURL, q.EmailURL != ""
	default:
		return "", false
	}
}

// StoreConfig names the DynamoDB tables and Secrets Manager prefix backing the Config,
// State, and Secret Stores.
type StoreConfig struct {
	TenantTableName string `yaml:"tenant_table_name" env:"TENANT_TABLE_NAME"`
	ConvoTableName  string `yaml:"convo_table_name" env:"CONVO_TABLE_NAME"`
	SecretPrefix    string `yaml:"secret_prefix" env:"SECRET_PREFIX"`
}

// IngressConfig controls Ingress Router behavior, including the optional latency-only
// request-id dedup cache.
type IngressConfig struct {
	RouterVersion    string        `yaml:"router_version" env:"ROUTER_VERSION"`
	DedupeRedisAddr  string        `yaml:"dedupe_redis_addr" env:"DEDUPE_REDIS_ADDR"`
	DedupeCacheTTL   time.Duration `yaml:"dedupe_cache_ttl" env:"DEDUPE_CACHE_TTL"` // 0 disables the cache
}

// LLMConfig controls the assistant-run polling strategy.
type LLMConfig struct {
	ProcessorVersion string        `yaml:"processor_version" env:"PROCESSOR_VERSION"`
	PollInterval     time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	MaxTotalWait     time.Duration `yaml:"max_total_wait" env:"MAX_TOTAL_WAIT"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	// MaxPromptTokens bounds the initial message's token count before it is submitted to the
	// assistant run; 0 disables the check.
	MaxPromptTokens int `yaml:"max_prompt_tokens" env:"MAX_PROMPT_TOKENS"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// Loader is a builder for loading Config from defaults, an optional YAML file, and
// environment variable overrides.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a Loader with the default "CONVOFLOW" environment prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "CONVOFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path to read before environment overrides.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the default environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator registers an additional validation pass run after load.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds the Config: defaults, then YAML file (if configured), then environment
// overrides, then validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration from path, panicking on failure. Intended for cmd/ entry
// points where a misconfigured process should fail fast at startup.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from defaults and environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks invariants that DefaultConfig alone cannot guarantee once overridden.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Queue.VisibilityTimeout <= 0 {
		errs = append(errs, "queue visibility_timeout must be positive")
	}
	if c.LLM.PollInterval <= 0 || c.LLM.MaxTotalWait <= 0 {
		errs = append(errs, "llm poll_interval and max_total_wait must be positive")
	}
	if c.LLM.PollInterval >= c.LLM.MaxTotalWait {
		errs = append(errs, "llm poll_interval must be less than max_total_wait")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HeartbeatInterval derives the heartbeat's extend-lease cadence from the queue visibility
// timeout: one third of the visibility timeout, giving two missed extensions of margin before
// the lease expires.
func (c *Config) HeartbeatInterval() time.Duration {
	return c.Queue.VisibilityTimeout / 3
}
