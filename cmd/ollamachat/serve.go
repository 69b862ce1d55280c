package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ollamachat/internal/chatlog"
	"ollamachat/internal/httpapi"
	"ollamachat/internal/ollama"
)

// admissionWait is how long a chat request waits for a free generation slot.
const admissionWait = 2 * time.Second

func newServeCmd(a *app) *cobra.Command {
	d := a.cfg
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the chat web server",
		Example: "  ollamachat serve --addr :8000 --model llama3.2:1b",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", d.Addr, "HTTP listen address (env OLLAMACHAT_ADDR)")
	cmd.Flags().Int("max-inflight", d.MaxInflight, "Concurrent generations before answering 429 (0 = unlimited)")
	cmd.Flags().StringSlice("cors-origins", nil, "Enable CORS for these origins")
	return cmd
}

// configureHTTP applies the resolved configuration to the HTTP layer.
func (a *app) configureHTTP() {
	c := a.cfg
	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetDefaultRequestLogLevel(requestLogLevel(c.LogLevel))
	httpapi.SetMaxBodyBytes(c.MaxBodyBytes)
	httpapi.SetMaxInflight(c.MaxInflight, admissionWait)
	httpapi.SetCORSOptions(c.CORSEnabled, c.CORSAllowedOrigins, c.CORSAllowedMethods, c.CORSAllowedHeaders)
	httpapi.SetChatSettings(httpapi.ChatSettings{
		DefaultModel: c.DefaultModel,
		SystemPrompt: c.SystemPrompt,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	})
}

// requestLogLevel maps the process log level onto the per-request levels.
func requestLogLevel(level string) string {
	switch level {
	case "debug", "trace":
		return "debug"
	case "warn", "warning", "error":
		return "error"
	default:
		return "info"
	}
}

// newHandler wires the client, chat log and router.
func (a *app) newHandler(client *ollama.Client) http.Handler {
	a.configureHTTP()
	return httpapi.NewMux(httpapi.FromClient(client), chatlog.New())
}

func (a *app) serve(ctx context.Context) error {
	client, err := a.newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	httpapi.SetBaseContext(ctx)
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.newHandler(client),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !client.CheckAvailability(ctx, a.cfg.DefaultModel) {
		a.log.Warn().Str("model", a.cfg.DefaultModel).Str("ollama_url", client.BaseURL()).Msg("default model not available; chat requests will get 503 until it is pulled")
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Str("ollama_url", client.BaseURL()).Str("model", a.cfg.DefaultModel).Msg("ollamachat listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
