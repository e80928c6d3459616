package config

import "time"

// DefaultConfig returns a Config populated with sane local-development defaults. Queue URLs
// are left blank and must come from the environment; the AWS region and table names have
// defaults that the environment can override.
func DefaultConfig() *Config {
	return &Config{
		Server:  DefaultServerConfig(),
		AWS:     DefaultAWSConfig(),
		Queue:   DefaultQueueConfig(),
		Store:   DefaultStoreConfig(),
		Ingress: DefaultIngressConfig(),
		LLM:     DefaultLLMConfig(),
		Log:     DefaultLogConfig(),
	}
}

// DefaultServerConfig returns default HTTP server timing.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultAWSConfig returns the default region; credentials are left empty so the SDK's
// default credential chain (IAM role, shared config, env vars) applies.
func DefaultAWSConfig() AWSConfig {
	return AWSConfig{
		Region: "eu-west-2",
	}
}

// DefaultQueueConfig returns default visibility timeout and receive settings. The visibility
// timeout (5 minutes) comfortably exceeds the worst-case S3-S7 pipeline duration including LLM
// polling.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		VisibilityTimeout: 5 * time.Minute,
		ReceiveWaitTime:   10 * time.Second, // long polling
		MaxBatchSize:      10,
	}
}

// DefaultStoreConfig returns default table/prefix names.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		TenantTableName: "convoflow-tenant-config",
		ConvoTableName:  "convoflow-conversations",
		SecretPrefix:    "convoflow/",
	}
}

// DefaultIngressConfig returns defaults for the Ingress Router, with the optional dedup cache
// disabled (DedupeCacheTTL = 0).
func DefaultIngressConfig() IngressConfig {
	return IngressConfig{
		RouterVersion:  "v1",
		DedupeCacheTTL: 0,
	}
}

// DefaultLLMConfig returns the fixed-interval assistant-run polling defaults: poll every
// second, give up after 90 seconds total, reject an initial message over 100k tokens before
// ever submitting it.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		ProcessorVersion: "v1",
		PollInterval:     1 * time.Second,
		MaxTotalWait:     90 * time.Second,
		RequestTimeout:   30 * time.Second,
		MaxPromptTokens:  100_000,
	}
}

// DefaultLogConfig returns the default zap logging setup.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
