package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ollamachat/internal/ollama"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the backend serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck
			models := client.ListModels(cmd.Context())
			if len(models) == 0 {
				return fmt.Errorf("no models reported by %s", client.BaseURL())
			}
			out := cmd.OutOrStdout()
			for _, m := range models {
				fmt.Fprintln(out, m.Name)
			}
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [model]",
		Short: "Check that the backend is reachable and serves a model",
		Long:  "Check that the backend is reachable and serves the given model, or the default model when none is given. Exits non-zero otherwise.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := a.cfg.DefaultModel
			if len(args) == 1 {
				model = args[0]
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck
			if !client.CheckAvailability(cmd.Context(), model) {
				return fmt.Errorf("model %s is not available at %s", model, client.BaseURL())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", model)
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	var (
		stream bool
		system string
	)
	cmd := &cobra.Command{
		Use:     "ask <prompt...>",
		Short:   "Send one prompt and print the answer",
		Example: "  ollamachat ask --stream \"Why is the sky blue?\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if strings.TrimSpace(prompt) == "" {
				return errors.New("prompt is required")
			}
			if system == "" {
				system = a.cfg.SystemPrompt
			}
			req := ollama.Request{
				Model:       a.cfg.DefaultModel,
				Prompt:      prompt,
				System:      system,
				Temperature: a.cfg.Temperature,
				MaxTokens:   a.cfg.MaxTokens,
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck

			out := cmd.OutOrStdout()
			if !stream {
				ans, err := client.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ans.Text)
				return nil
			}
			s, err := client.GenerateStream(cmd.Context(), req)
			if err != nil {
				return err
			}
			for tok, err := range s.Tokens() {
				if err != nil {
					fmt.Fprintln(out)
					return err
				}
				fmt.Fprint(out, tok)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "Print tokens as they arrive")
	cmd.Flags().StringVar(&system, "system", "", "System prompt (defaults to the configured one)")
	return cmd
}
