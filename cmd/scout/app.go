package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scout/internal/agent"
	"scout/internal/config"
	"scout/internal/domain"
	"scout/internal/history"
	"scout/internal/memory"
	"scout/internal/provider"
	"scout/internal/tool"
	"scout/internal/web"
)

// app holds the wired-up runtime shared by the CLI commands.
type app struct {
	cfg          *config.Config
	router       *provider.Router
	executor     *tool.Executor
	pipeline     *web.Pipeline
	orchestrator *agent.Orchestrator
	memStore     *memory.Store
	histStore    *history.SQLiteStore
}

func (a *app) Close() {
	if a.histStore != nil {
		a.histStore.Close()
	}
}

// buildApp assembles backends, tools, pipeline, stores, and the orchestrator
// from config.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.router = buildRouter(cfg, logger)
	if len(a.router.Available()) == 0 {
		return nil, fmt.Errorf("no providers enabled; run 'scout init' and add API keys")
	}

	// One throttled searcher gates every search path, whether the pipeline
	// or a direct web_search tool call issues it.
	searcher := web.NewThrottledSearcher(newSearcher(logger),
		time.Duration(cfg.Web.SearchIntervalSec)*time.Second)
	fetcher := newFetcher(cfg, logger)
	a.pipeline = buildPipeline(cfg, searcher, fetcher, logger)

	registry := tool.NewRegistry(logger)
	tool.RegisterWebTools(registry, tool.WebToolsConfig{
		Searcher: searcher,
		Fetcher:  fetcher,
		Research: func(ctx context.Context, query string) (string, error) {
			res := a.pipeline.SearchAndRead(ctx, query)
			if res.Err != nil {
				return "", res.Err
			}
			return web.FormatWithCitations(res), nil
		},
		NumResults: cfg.Web.NumResults,
		MaxChars:   cfg.Web.MaxCharsPerPage,
	})
	if cfg.Tools.EnableSystemInfo {
		tool.RegisterSysInfo(registry)
	}

	rules := tool.DefaultRules()
	if cfg.Tools.RulesPath != "" {
		loaded, err := tool.LoadRules(cfg.Tools.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	a.executor = tool.NewExecutor(tool.ExecutorConfig{
		Registry: registry,
		Rules:    rules,
		Logger:   logger,
	})

	if cfg.Memory.Enabled {
		store, err := memory.NewStore(cfg.Memory.Path, logger)
		if err != nil {
			return nil, err
		}
		a.memStore = store
	}

	hist, err := history.NewSQLiteStore(cfg.History.DBPath, logger)
	if err != nil {
		return nil, err
	}
	a.histStore = hist

	orchCfg := agent.OrchestratorConfig{
		Router:      a.router,
		Executor:    a.executor,
		Prompt:      agent.NewPromptBuilder("", registry.RenderPromptBlock),
		History:     hist,
		Logger:      logger,
		MemoryLimit: cfg.Memory.SearchLimit,
	}
	if a.memStore != nil {
		orchCfg.Memory = a.memStore
	}
	a.orchestrator = agent.NewOrchestrator(orchCfg)
	return a, nil
}

func buildRouter(cfg *config.Config, logger *slog.Logger) *provider.Router {
	router := provider.NewRouter(provider.RouterConfig{
		Mode:           cfg.Routing.DefaultProvider,
		Fast:           cfg.Routing.FastProvider,
		LongContext:    cfg.Routing.LongContextProvider,
		TokenThreshold: cfg.Routing.TokenThreshold,
		Logger:         logger,
	})

	httpClient := provider.SharedHTTPClient(0)
	for name, pc := range cfg.Providers {
		if !pc.Enabled || pc.APIKey == "" || isUnexpandedEnv(pc.APIKey) {
			continue
		}
		switch name {
		case "groq":
			router.Register(provider.NewGroq(provider.GroqConfig{
				APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.Model,
				Client: httpClient, Logger: logger,
			}))
		case "gemini":
			router.Register(provider.NewGemini(provider.GeminiConfig{
				APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.Model,
				Client: httpClient, Logger: logger,
			}))
		default:
			logger.Warn("unknown provider in config, skipping", "provider", name)
		}
	}
	return router
}

// isUnexpandedEnv reports whether a config value is still a ${VAR}
// placeholder whose variable was never set.
func isUnexpandedEnv(v string) bool {
	return len(v) > 3 && v[0] == '$' && v[1] == '{'
}

func newSearcher(logger *slog.Logger) *web.DuckDuckGo {
	return web.NewDuckDuckGo(web.DuckDuckGoConfig{Logger: logger})
}

func newFetcher(cfg *config.Config, logger *slog.Logger) *web.ReadabilityFetcher {
	fcfg := web.FetcherConfig{Logger: logger}
	if cfg.Web.BrowserFallback {
		fcfg.Browser = web.NewBrowserFetcher(web.BrowserConfig{Logger: logger})
	}
	return web.NewReadabilityFetcher(fcfg)
}

func buildPipeline(cfg *config.Config, searcher domain.Searcher, fetcher domain.Fetcher, logger *slog.Logger) *web.Pipeline {
	return web.NewPipeline(web.PipelineConfig{
		Searcher:    searcher,
		Fetcher:     fetcher,
		NumResults:  cfg.Web.NumResults,
		MaxChars:    cfg.Web.MaxCharsPerPage,
		Concurrency: cfg.Web.FetchConcurrency,
		Logger:      logger,
	})
}
