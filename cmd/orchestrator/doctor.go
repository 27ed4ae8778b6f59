package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/config"
	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/mail"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks against the configured channels and providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Orchestrator Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed, failed, warned := 0, 0, 0

			cfg, err := config.Load(configPath)
			if err != nil {
				printFail("Config", err.Error())
				fmt.Printf("\n0 passed, 1 failed\n")
				return nil
			}
			printPass("Config", configPath)
			passed++

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			// Mistral: key presence only, no paid API call from a diagnostic.
			if cfg.LLM.MistralAPIKey != "" {
				printPass("Mistral API key", "configured")
				passed++
			} else {
				printWarn("Mistral API key", "not set, remote classification disabled")
				warned++
			}

			// Ollama reachability.
			if host := hostOf(cfg.LLM.OllamaBaseURL); host != "" {
				if conn, err := net.DialTimeout("tcp", host, 3*time.Second); err == nil {
					conn.Close()
					printPass("Ollama", host)
					passed++
				} else {
					printWarn("Ollama", fmt.Sprintf("unreachable at %s", host))
					warned++
				}
			}

			if cfg.Telegram.Enabled() {
				printPass("Telegram token", "configured")
				passed++
			} else {
				printWarn("Telegram token", "not set, channel disabled")
				warned++
			}

			if cfg.Email.Enabled() {
				mailer := mail.NewMailer(mail.MailerConfig{
					Addr:     cfg.Email.SMTPAddr(),
					Username: cfg.Email.Username,
					Password: cfg.Email.Password,
					Logger:   logger,
				})
				if err := mailer.Probe(ctx); err != nil {
					printFail("SMTP", err.Error())
					failed++
				} else {
					printPass("SMTP", cfg.Email.SMTPAddr())
					passed++
				}

				fetcher := mail.NewFetcher(mail.FetcherConfig{
					Addr:     cfg.Email.IMAPAddr(),
					Username: cfg.Email.Username,
					Password: cfg.Email.Password,
					Logger:   logger,
				})
				if err := fetcher.Probe(ctx); err != nil {
					printFail("IMAP", err.Error())
					failed++
				} else {
					printPass("IMAP", cfg.Email.IMAPAddr())
					passed++
				}
			} else {
				printWarn("Email", "credentials not set, channel disabled")
				warned++
			}

			fmt.Printf("\n%d passed, %d failed, %d warnings\n", passed, failed, warned)
			return nil
		},
	}
}

// hostOf strips the scheme off a base URL, returning host:port for dialing.
func hostOf(baseURL string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if len(baseURL) > len(prefix) && baseURL[:len(prefix)] == prefix {
			return baseURL[len(prefix):]
		}
	}
	return baseURL
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
