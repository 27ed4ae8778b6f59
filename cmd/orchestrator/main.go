package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/channel"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/config"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/history"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/llm"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/mail"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/metrics"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/orchestrator"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/server"
)

var (
	version    = "1.0.0"
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:   "orchestrator",
		Short: "Customer support orchestrator",
		Long:  "Routes customer messages from Telegram and email through an LLM pipeline and replies on the originating channel.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")

	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the email polling loop",
		RunE:  runServe,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("orchestrator v%s\n", version)
		},
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := buildGateway(cfg, logger)
	orch := orchestrator.New(orchestrator.Config{Gateway: gateway, Logger: logger})

	var pipeline *metrics.Pipeline
	if cfg.Metrics.Enabled {
		pipeline = metrics.NewPipeline(metrics.NewCollector())
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()
	}

	manager := channel.NewManager(channel.ManagerConfig{
		Processor: orch,
		History:   recorderOrNil(store),
		Observer:  observerOrNil(pipeline),
		Logger:    logger,
	})

	if cfg.Telegram.Enabled() {
		manager.Register(channel.NewTelegram(channel.TelegramConfig{
			Token:  cfg.Telegram.Token,
			Logger: logger,
		}))
	} else {
		logger.Warn("telegram channel disabled, no bot token")
	}

	var fetcher *mail.Fetcher
	if cfg.Email.Enabled() {
		mailer := mail.NewMailer(mail.MailerConfig{
			Addr:     cfg.Email.SMTPAddr(),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Logger:   logger,
		})
		fetcher = mail.NewFetcher(mail.FetcherConfig{
			Addr:     cfg.Email.IMAPAddr(),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Logger:   logger,
		})
		manager.Register(channel.NewEmail(channel.EmailConfig{
			Mailer: mailer,
			IMAP:   fetcher,
			Logger: logger,
		}))
	} else {
		logger.Warn("email channel disabled, missing credentials")
	}

	srv := server.New(server.Config{
		Addr:       fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Dispatcher: manager,
		History:    readerOrNil(store),
		Pipeline:   pipeline,
		CORS: server.CORSConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: cfg.Server.AllowedMethods,
			AllowedHeaders: cfg.Server.AllowedHeaders,
		},
		StaticDir: cfg.Server.StaticDir,
		Logger:    logger,
	})

	if fetcher != nil {
		poller := mail.NewPoller(mail.PollerConfig{
			Fetch: fetcher.FetchUnseen,
			Process: func(pctx context.Context, raw []byte) {
				manager.Process(pctx, "email", raw)
			},
			Interval: time.Duration(cfg.Email.PollIntervalSeconds) * time.Second,
			Logger:   logger,
		})
		go poller.Run(ctx)
	}

	logger.Info("orchestrator started", "version", version, "channels", manager.Available())
	return srv.Run(ctx)
}

// buildGateway assembles the provider cascade. A missing API key leaves that
// tier nil; the gateway degrades through whatever remains.
func buildGateway(cfg *config.Config, logger *slog.Logger) *llm.Gateway {
	var primary, fallback llm.RemoteClient
	if cfg.LLM.MistralAPIKey != "" {
		primary = llm.NewMistral(llm.MistralConfig{
			APIKey:  cfg.LLM.MistralAPIKey,
			APIBase: cfg.LLM.MistralAPIBase,
			Logger:  logger,
		})
	} else {
		logger.Warn("mistral disabled, no api key")
	}
	if cfg.LLM.OllamaBaseURL != "" {
		fallback = llm.NewOllama(llm.OllamaConfig{APIBase: cfg.LLM.OllamaBaseURL, Logger: logger})
	}

	return llm.NewGateway(llm.GatewayConfig{
		Primary:  primary,
		Fallback: fallback,
		Classification: llm.ModelPair{
			Primary:  cfg.LLM.Classification.Primary,
			Fallback: cfg.LLM.Classification.Fallback,
		},
		Generation: llm.ModelPair{
			Primary:  cfg.LLM.Generation.Primary,
			Fallback: cfg.LLM.Generation.Fallback,
		},
		Logger: logger,
	})
}

// A nil *Store stuffed into a non-nil interface would defeat the manager's
// nil checks, so conversion happens here.
func recorderOrNil(s *history.Store) channel.Recorder {
	if s == nil {
		return nil
	}
	return s
}

func readerOrNil(s *history.Store) server.HistoryReader {
	if s == nil {
		return nil
	}
	return s
}

func observerOrNil(p *metrics.Pipeline) channel.Observer {
	if p == nil {
		return nil
	}
	return p
}
