package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ollamachat/internal/config"
	"ollamachat/internal/ollama"
)

// app is the state shared by the subcommands once flags are resolved.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

// newRootCmd constructs the command tree.
func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	root := &cobra.Command{
		Use:           "ollamachat",
		Short:         "Chat web UI and CLI for an Ollama backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags override file and environment settings.
	d := config.Default()
	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.String("log-level", d.LogLevel, "Log level: debug|info|warn|error (env OLLAMACHAT_LOG_LEVEL)")
	pf.String("log-format", d.LogFormat, "Log format: console|json (env OLLAMACHAT_LOG_FORMAT)")
	pf.String("ollama-url", d.OllamaURL, "Ollama base URL (env OLLAMACHAT_OLLAMA_URL)")
	pf.String("model", d.DefaultModel, "Default model (env OLLAMACHAT_DEFAULT_MODEL)")
	pf.Duration("request-timeout", d.RequestTimeout.D(), "Timeout for single-shot backend calls")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags())
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.log = newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	root.AddCommand(newServeCmd(a), newModelsCmd(a), newCheckCmd(a), newAskCmd(a))
	return root
}

// resolveConfig layers defaults, the optional config file, OLLAMACHAT_*
// variables and explicitly set flags, in that order.
func resolveConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if path, _ := fs.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg, err := config.FromEnv(cfg)
	if err != nil {
		return cfg, err
	}

	str := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("ollama-url", &cfg.OllamaURL)
	str("model", &cfg.DefaultModel)
	str("addr", &cfg.Addr)
	if f := fs.Lookup("request-timeout"); f != nil && f.Changed {
		v, _ := fs.GetDuration("request-timeout")
		cfg.RequestTimeout = config.Duration(v)
	}
	if f := fs.Lookup("max-inflight"); f != nil && f.Changed {
		v, _ := fs.GetInt("max-inflight")
		cfg.MaxInflight = v
	}
	if f := fs.Lookup("cors-origins"); f != nil && f.Changed {
		v, _ := fs.GetStringSlice("cors-origins")
		cfg.CORSEnabled = len(v) > 0
		cfg.CORSAllowedOrigins = v
	}
	return cfg, cfg.Validate()
}

// newClient builds the inference client from the resolved configuration.
func (a *app) newClient() (*ollama.Client, error) {
	lg := a.log
	return ollama.New(ollama.Options{
		BaseURL:        a.cfg.OllamaURL,
		RequestTimeout: a.cfg.RequestTimeout.D(),
		ConnectTimeout: a.cfg.ConnectTimeout.D(),
		ReadTimeout:    a.cfg.ReadTimeout.D(),
		Logger:         &lg,
	})
}
