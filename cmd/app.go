package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notecal/internal/agenda"
	"notecal/internal/config"
	"notecal/internal/device"
	"notecal/internal/ocr"
	"notecal/internal/pipeline"
	"notecal/internal/settings"
	"notecal/internal/store"
	"notecal/pkg/services"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg      *config.Config
	userID   int64
	store    *store.Store
	settings *settings.Provider
	gateway  *ocr.Gateway
}

// loadApp loads the configuration and opens the database. The --user flag
// overrides NOTECAL_USER_ID.
func loadApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	userID := cfg.UserID
	if flagUser, _ := cmd.Flags().GetInt64("user"); flagUser > 0 {
		userID = flagUser
	}

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}

	return &app{
		cfg:      cfg,
		userID:   userID,
		store:    st,
		settings: settings.NewProvider(st, settings.Defaults{settings.CategoryOCR: cfg.EnvSettings()}),
		gateway:  newGateway(cfg),
	}, nil
}

func (a *app) Close(log zerolog.Logger) {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}

func newGateway(cfg *config.Config) *ocr.Gateway {
	return ocr.NewGateway(ocr.Options{
		OpenAI: ocr.OpenAIConfig{
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		},
		Claude: ocr.ClaudeConfig{
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		},
		Gemini: ocr.GeminiConfig{
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		},
		DocumentAI: ocr.DocumentAIConfig{
			CredentialsJSON: cfg.GoogleCredentials,
			CredentialsFile: cfg.GoogleCredentialsFile,
		},
	})
}

func (a *app) deviceClient(ctx context.Context) (*device.Client, error) {
	return device.NewClient(ctx, device.Config{
		BaseURL: a.cfg.DeviceAPIURL,
		Token:   a.cfg.DeviceAPIToken,
	})
}

func (a *app) orchestrator(dev services.DeviceClient) (*pipeline.Orchestrator, error) {
	policy, err := agenda.ParseBareHourPolicy(a.cfg.BareHourPolicy)
	if err != nil {
		return nil, err
	}

	return pipeline.NewOrchestrator(pipeline.Dependencies{
		Documents: a.store,
		Calendars: a.store,
		Events:    a.store,
		Settings:  a.settings,
		Device:    dev,
		OCR:       a.gateway,
		Clock:     services.SystemClock{},
		Policy:    policy,
		Location:  a.cfg.Location(),
	}), nil
}

// commandContext creates a context with timeout that is also canceled on SIGINT/SIGTERM.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
