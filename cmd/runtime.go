package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/playreply/internal/aiconnectors"
	"github.com/playreply/internal/config"
	"github.com/playreply/internal/generator"
	"github.com/playreply/internal/history"
	"github.com/playreply/internal/knowledge"
	"github.com/playreply/internal/reply"
	"github.com/playreply/internal/retry"
	"github.com/playreply/internal/storefront"
)

// loadConfig loads and validates configuration for a command invocation.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildConnector creates the LLM client for the configured AI provider,
// honoring an --ai override when the flag is present.
func buildConnector(ctx context.Context, c *cli.Context, cfg *config.Config) (*aiconnectors.Connector, error) {
	aiName := cfg.General.DefaultAI
	if c.IsSet("ai") {
		aiName = c.String("ai")
	}

	settings := cfg.AISettings(aiName)
	return aiconnectors.NewConnector(ctx, aiconnectors.Options{
		Provider: aiconnectors.Provider(aiName),
		APIKey:   settings.APIKey,
		BaseURL:  settings.BaseURL,
		ModelConfig: aiconnectors.ModelConfig{
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		},
	})
}

// buildStore creates the Play storefront client from configuration.
func buildStore(cfg *config.Config) (storefront.ReviewStore, error) {
	return storefront.NewPlayStore(storefront.PlayConfig{
		PackageName: cfg.Play.PackageName,
		BaseURL:     cfg.Play.BaseURL,
		Tokens:      storefront.StaticToken(cfg.Play.AccessToken),
	})
}

// buildHistory creates the history store over the configured backend.
func buildHistory(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	var (
		log history.PersistentLog
		err error
	)
	switch cfg.History.Backend {
	case "", "file":
		log, err = history.NewFileLog(cfg.History.Path)
	case "postgres":
		log, err = history.NewPostgresLog(cfg.History.DSN)
	default:
		return nil, fmt.Errorf("unknown history backend %s", cfg.History.Backend)
	}
	if err != nil {
		return nil, err
	}
	return history.NewStore(ctx, log)
}

// buildOrchestrator assembles the full reply pipeline from configuration.
func buildOrchestrator(ctx context.Context, c *cli.Context, cfg *config.Config) (*reply.Orchestrator, storefront.ReviewStore, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storefront client: %w", err)
	}

	connector, err := buildConnector(ctx, c, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI connector: %w", err)
	}

	hist, err := buildHistory(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open reply history: %w", err)
	}

	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	orch := reply.New(reply.Deps{
		Store:         store,
		Generator:     generator.New(connector),
		History:       hist,
		Knowledge:     kb,
		LLMRetry:      retry.LLMConfig(),
		DispatchRetry: retry.DefaultConfig(),
	})
	return orch, store, nil
}
