package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harunnryd/eventcorner/internal/assistant"
	"github.com/harunnryd/eventcorner/internal/config"
	"github.com/harunnryd/eventcorner/internal/model"
	"github.com/harunnryd/eventcorner/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant API server",
	Long:  `Serves /chat and /create-event-conversation backed by the configured model registry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}

		router, err := model.NewModelRouter(cfg.Models)
		if err != nil {
			return fmt.Errorf("failed to initialize models: %w", err)
		}

		svc := assistant.NewService(router, assistant.Options{
			Model:            cfg.Models.Default,
			ChatPrompt:       cfg.Prompts.Chat,
			ExtractionPrompt: cfg.Prompts.Extraction,
		})

		srv, err := server.New(server.Options{
			Assistant: svc,
			Health:    router,
			Model:     router.DefaultModel(),
			Server:    cfg.Server,
			RateLimit: cfg.RateLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Assistant server starting up", "port", cfg.Server.Port, "models", router.ListModels())
		if err := srv.Run(ctx); err != nil {
			return err
		}
		slog.Info("Assistant server stopped gracefully")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend's AI health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newBackendClient()
		if err != nil {
			return err
		}

		health, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\nModel:  %s (loaded: %t)\n", health.Status, health.Model, health.ModelLoaded)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("server.port", config.DefaultServerPort, "server port")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}
