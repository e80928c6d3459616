package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/convoflow/convoflow/alert"
	"github.com/convoflow/convoflow/config"
	"github.com/convoflow/convoflow/internal/metrics"
	"github.com/convoflow/convoflow/processor"
	"github.com/convoflow/convoflow/provider"
	"github.com/convoflow/convoflow/provider/email"
	"github.com/convoflow/convoflow/provider/llmassistant"
	"github.com/convoflow/convoflow/provider/sms"
	"github.com/convoflow/convoflow/provider/whatsapp"
	"github.com/convoflow/convoflow/queue"
	"github.com/convoflow/convoflow/queue/sqsqueue"
	"github.com/convoflow/convoflow/store/convostore"
	"github.com/convoflow/convoflow/store/secretstore"
	"github.com/convoflow/convoflow/types"
)

func runServeProcessor(args []string) {
	fs := flag.NewFlagSet("serve-processor", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	channel := fs.String("channel", "", "channel this processor instance consumes: whatsapp, sms, or email")
	fs.Parse(args)

	if !types.ChannelMethod(*channel).Valid() {
		fmt.Fprintln(os.Stderr, "--channel must be one of whatsapp, sms, email")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := buildLogger(cfg.Log)
	defer logger.Sync()

	awsCfg, err := loadAWSConfig(context.Background(), cfg.AWS)
	if err != nil {
		logger.Fatal("failed to load AWS config", zap.Error(err))
	}

	queueURL, ok := cfg.Queue.URLFor(*channel)
	if !ok {
		logger.Fatal("no queue URL configured for channel", zap.String("channel", *channel))
	}
	q := sqsqueue.New(sqs.NewFromConfig(awsCfg), queueURL, logger)

	secrets := secretstore.NewSecretsManagerStore(secretsmanager.NewFromConfig(awsCfg), cfg.Store.SecretPrefix, logger)
	convo := convostore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Store.ConvoTableName, logger)
	collector := metrics.NewCollector("convoflow_processor_"+*channel, logger)
	alertSink := alert.NewZapSink(logger, collector)

	poll := llmassistant.PollConfig{
		Interval:        cfg.LLM.PollInterval,
		MaxTotalWait:    cfg.LLM.MaxTotalWait,
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
	}

	proc := &processor.Processor{
		Convo:              convo,
		Secrets:            secrets,
		Alerts:             alertSink,
		Metrics:            collector,
		Logger:             logger,
		ProcessorVersion:   cfg.LLM.ProcessorVersion,
		HeartbeatInterval:  cfg.HeartbeatInterval(),
		HeartbeatExtension: cfg.Queue.VisibilityTimeout,
		LLMFactory: func(secret *types.LLMSecret) llmassistant.Client {
			return llmassistant.NewOpenAIClient(secret.AIAPIKey, cfg.LLM.RequestTimeout, poll, logger)
		},
		WhatsAppFactory: func(secret *types.WhatsAppSMSSecret) provider.Sender {
			return whatsapp.NewClient(secret.TwilioAccountSID, secret.TwilioAuthToken, cfg.LLM.RequestTimeout, logger)
		},
		SMSFactory: func(secret *types.WhatsAppSMSSecret) provider.Sender {
			return sms.NewClient(secret.TwilioAccountSID, secret.TwilioAuthToken, cfg.LLM.RequestTimeout, logger)
		},
		EmailFactory: func(secret *types.EmailSecret) provider.Sender {
			return email.NewClient(email.Config{
				AuthValue: secret.SendGridAuthValue,
				FromEmail: secret.SendGridFromEmail,
				FromName:  secret.SendGridFromName,
				Timeout:   cfg.LLM.RequestTimeout,
			}, logger)
		},
	}

	go serveHealthAndMetrics(cfg.Server.MetricsPort, logger)

	logger.Info("channel processor starting", zap.String("channel", *channel), zap.String("version", Version))
	runPollLoop(context.Background(), proc, q, cfg, logger)
}

// runPollLoop long-polls the queue, hands each batch to Processor.ProcessBatch, and deletes
// every message whose outcome was success. It exits when ctx is canceled by SIGINT/SIGTERM.
func runPollLoop(ctx context.Context, proc *processor.Processor, q queue.Queue, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("channel processor received shutdown signal")
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("channel processor stopped")
			return
		default:
		}

		messages, err := q.Receive(ctx, cfg.Queue.MaxBatchSize, cfg.Queue.ReceiveWaitTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error("queue receive failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(messages) == 0 {
			continue
		}

		outcomes := proc.ProcessBatch(ctx, q, messages)
		for receipt, outcome := range outcomes {
			if !outcome.Success {
				continue
			}
			if err := q.Delete(ctx, receipt); err != nil {
				logger.Error("failed to delete processed message", zap.Error(err), zap.String("receipt_handle", receipt))
			}
		}
	}
}

func serveHealthAndMetrics(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("processor health/metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("health/metrics server failed", zap.Error(err))
	}
}
