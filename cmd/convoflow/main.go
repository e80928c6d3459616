// Command convoflow is the entry point for both handler processes: the Ingress Router (HTTP
// front door) and the Channel Processor (queue consumer). Each subcommand builds the same typed
// Config, then wires exactly the dependencies its handler needs.
//
// Usage:
//
//	convoflow serve-ingress [--config config.yaml]
//	convoflow serve-processor --channel whatsapp|sms|email [--config config.yaml]
//	convoflow version
//	convoflow health --addr http://localhost:8080
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/convoflow/convoflow/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve-ingress":
		runServeIngress(os.Args[2:])
	case "serve-processor":
		runServeProcessor(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `convoflow — AI-driven multi-channel outbound messaging engine

Usage:
  convoflow serve-ingress [--config path]
  convoflow serve-processor --channel whatsapp|sms|email [--config path]
  convoflow version
  convoflow health --addr http://host:port
  convoflow help`)
}

func printVersion() {
	fmt.Printf("convoflow %s (build %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "base URL of the handler's health endpoint")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "health check returned status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func loadConfig(configPath string) *config.Config {
	cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildLogger(cfg config.LogConfig) *zap.Logger {
	level := zapcore.InfoLevel
	_ = level.UnmarshalText([]byte(cfg.Level))

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Format
	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}
	zcfg.DisableCaller = !cfg.EnableCaller
	zcfg.DisableStacktrace = !cfg.EnableStacktrace

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
