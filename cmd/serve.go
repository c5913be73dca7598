package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/error-T-T/mathmistake/internal/analysis"
	"github.com/error-T-T/mathmistake/internal/api"
	"github.com/error-T-T/mathmistake/internal/config"
	"github.com/error-T-T/mathmistake/internal/ollama"
	"github.com/error-T-T/mathmistake/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// runServe opens the store, probes the generation service, and starts the
// HTTP server. An unreachable generation service is not fatal; the
// analysis pipeline runs in mock mode.
func runServe(cmd *cobra.Command) error {
	cfg := config.Load()
	if p, _ := cmd.Flags().GetString("data"); p != "" {
		cfg.DataPath = p
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	log := slog.Default()
	st, err := store.Open(cfg.DataPath, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	gen := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, log)
	if !gen.Healthy() {
		log.Warn("generation service unavailable, AI responses will be mocked",
			"base_url", cfg.OllamaBaseURL, "model", cfg.OllamaModel)
	}

	svc := analysis.NewService(st, gen, log)
	server := api.NewServer(cfg.Port, st, svc, gen, log)
	return server.Start()
}
