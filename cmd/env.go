package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/classifier"
	"github.com/groupguard/modbot/internal/collect"
	"github.com/groupguard/modbot/internal/decision"
	"github.com/groupguard/modbot/internal/enforce"
	"github.com/groupguard/modbot/internal/pipeline"
	"github.com/groupguard/modbot/internal/prompt"
	"github.com/groupguard/modbot/internal/store"
	"github.com/groupguard/modbot/pkg/bridge"
	"github.com/groupguard/modbot/pkg/chat"
)

// env holds the wired application components shared by commands.
type env struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Gateway  *classifier.Gateway
	Builder  *prompt.Builder
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// openStore opens the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv wires the full pipeline from configuration.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	bridgeClient := bridge.NewClient(cfg.Bridge.BaseURL, cfg.Bridge.Key)
	chatClient := chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.Token)

	runner := collect.NewRunner(
		time.Duration(cfg.Collect.TimeoutSecs)*time.Second,
		collect.NewLinkedChannelCollector(bridgeClient, nil),
		collect.NewStoriesCollector(bridgeClient),
		collect.NewAccountAgeCollector(bridgeClient, nil),
		collect.NewReplyCollector(bridgeClient),
	)

	gateway := classifier.NewGateway(
		classifier.GatewayConfig{
			Order:          append([]string{cfg.Classifier.Backend}, cfg.Classifier.Fallbacks...),
			MaxAttempts:    cfg.Classifier.MaxAttempts,
			AttemptTimeout: time.Duration(cfg.Classifier.AttemptTimeoutSecs) * time.Second,
			OverallTimeout: time.Duration(cfg.Classifier.OverallTimeoutSecs) * time.Second,
		},
		classifier.NewAnthropicBackend(cfg.Anthropic.Key, cfg.Anthropic.Model),
		classifier.NewOpenAIBackend(cfg.OpenAI.Key, cfg.OpenAI.Model, cfg.OpenAI.BaseURL),
	)

	builder := prompt.NewBuilder(cfg.Classifier.MaxExamples, cfg.Classifier.ExampleBudgetChars)

	alerter := enforce.NewAlerter(chatClient, st, enforce.AlerterConfig{
		DedupWindow:   time.Duration(cfg.Alerts.DedupWindowSecs) * time.Second,
		RatePerMinute: cfg.Alerts.RatePerMinute,
		WebhookURL:    cfg.Alerts.WebhookURL,
	})
	coordinator := enforce.NewCoordinator(chatClient, alerter)

	p := pipeline.New(
		st,
		runner,
		builder,
		gateway,
		decision.NewEngine(cfg.Classifier.SpamThreshold),
		coordinator,
		alerter,
		cfg.Classifier.MaxExamples,
	)

	return &env{
		Store:    st,
		Pipeline: p,
		Gateway:  gateway,
		Builder:  builder,
	}, nil
}
