package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"assistant-relay/internal/config"
	"assistant-relay/internal/domain/ports/adapter"
	aiAdapters "assistant-relay/internal/infra/adapters/ai"
	relayAdapter "assistant-relay/internal/infra/adapters/relay"
	weatherAdapter "assistant-relay/internal/infra/adapters/weather"
	"assistant-relay/internal/infra/logging"
	"assistant-relay/internal/infra/metrics"
	"assistant-relay/internal/infra/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop generator allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	metrics.MustRegister()

	// ---- Generator chain (Ollama -> OpenAI -> Gemini) ----
	var providers []adapter.TextGenerator
	if cfg.AI.OllamaURL != "" {
		g, err := aiAdapters.NewOllamaGenerator(cfg.AI.OllamaURL, cfg.AI.OllamaModel, cfg.AI.MaxTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("ollama generator")
		}
		providers = append(providers, g)
		logger.Info().Str("base", cfg.AI.OllamaURL).Str("model", cfg.AI.OllamaModel).Msg("generator: ollama")
	}
	if cfg.AI.OpenAIKey != "" {
		g, err := aiAdapters.NewOpenAIGenerator(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel, cfg.AI.MaxTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai generator")
		}
		providers = append(providers, g)
		logger.Info().Str("model", cfg.AI.OpenAIModel).Msg("generator: openai")
	}
	if cfg.AI.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiGenerator(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiModel, cfg.AI.MaxTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini generator")
		}
		providers = append(providers, g)
		logger.Info().Str("model", cfg.AI.GeminiModel).Msg("generator: gemini")
	}
	if len(providers) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msgf("no generator configured: set ai.ollama_url, ai.openai_key or ai.gemini_key in %s", *cfgPath)
		}
		providers = append(providers, aiAdapters.NewNoopGenerator())
		logger.Warn().Msg("generator: noop (dev)")
	}
	gen := aiAdapters.NewChainGenerator(logger, providers...)

	// ---- Wiring ----
	relay := relayAdapter.NewClient(cfg.Worker.RelayURL, cfg.Server.APIKey, cfg.Worker.UserID)
	weather := weatherAdapter.NewOpenMeteo(
		cfg.Weather.Latitude, cfg.Weather.Longitude,
		cfg.Weather.Timezone, cfg.Weather.Location,
		cfg.Weather.RefreshInterval,
	)
	mem := worker.NewMemory()
	prompts, err := worker.NewPromptBuilder(cfg.AI.PromptBudget)
	if err != nil {
		logger.Fatal().Err(err).Msg("prompt builder")
	}
	intents := worker.NewIntentClassifier(gen, logger)
	conv := worker.NewConversationLog(cfg.Worker.ConversationDir, logger)
	processor := worker.NewProcessor(
		relay, gen, weather, mem, prompts, intents, conv,
		cfg.Worker.ChunkFlushInterval, cfg.Worker.ChunkMinSize,
		logger,
	)

	pool := worker.NewPool(cfg.Worker.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	loop := worker.NewLoop(relay, processor, cfg.Worker.PollInterval, logger)
	go func() { _ = loop.Run(ctx, pool) }()

	// Warm the forecast cache so the first weather question does not wait on
	// the provider.
	go func() {
		if err := weather.Refresh(ctx, false); err != nil {
			logger.Warn().Err(err).Msg("initial weather refresh")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
