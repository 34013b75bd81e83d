package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkingovr/monday-mcp/internal/audit"
	"github.com/tkingovr/monday-mcp/internal/board"
	"github.com/tkingovr/monday-mcp/internal/config"
	"github.com/tkingovr/monday-mcp/internal/dispatch"
	"github.com/tkingovr/monday-mcp/internal/filter"
	"github.com/tkingovr/monday-mcp/internal/guard"
	"github.com/tkingovr/monday-mcp/internal/monday"
	"github.com/tkingovr/monday-mcp/internal/tools"
)

// app holds the wired components shared by the serving commands.
type app struct {
	cfg        *config.Config
	client     *monday.Client
	cache      *board.Cache
	engine     guard.Engine
	store      *audit.JSONLStore
	dispatcher *dispatch.Dispatcher
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg}

	a.client = monday.NewClient(cfg.APIURL, cfg.APIToken,
		monday.WithTimeout(cfg.Timeout),
		monday.WithAPIVersion(cfg.APIVersion),
		monday.WithLogger(logger),
	)
	if !a.client.Configured() {
		logger.Warn("MONDAY_API_TOKEN is not set; tool calls will fail")
	}

	opts := tools.Options{
		Client:        a.client,
		BoardID:       cfg.BoardID,
		EmailColumnID: cfg.EmailColumnID,
		MaxAge:        cfg.CacheMaxAge,
		Enabled:       cfg.EnabledTools,
	}
	if cfg.BoardID != "" {
		a.cache = board.NewCache(a.client, cfg.BoardID, logger)
		opts.Knowledge = a.cache
	}
	registry, err := tools.Build(opts)
	if err != nil {
		return nil, fmt.Errorf("building tools: %w", err)
	}

	a.engine, err = guard.New(cfg.Guard)
	if err != nil {
		return nil, fmt.Errorf("creating guard engine: %w", err)
	}

	a.store, err = audit.NewJSONLStore(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("creating audit store: %w", err)
	}

	chainCfg := filter.ChainConfig{
		Engine:     a.engine,
		AuditStore: a.store,
		Logger:     logger,
		RateLimit:  filter.RateLimitConfigFromPolicy(cfg.Guard.RateLimit),
		Redact:     cfg.Redact,
	}

	dopts := dispatch.Options{
		ServerName:      cfg.ServerName,
		ServerVersion:   version,
		ProtocolVersion: cfg.ProtocolVersion,
		Instructions:    cfg.Instructions,
		Mode:            cfg.NotificationMode,
		Inbound:         filter.BuildInboundChain(chainCfg),
		Outbound:        filter.BuildOutboundChain(chainCfg),
		Logger:          logger,
	}
	if cfg.RefreshOnInitialized && a.cache != nil {
		cache := a.cache
		dopts.OnInitialized = func(ctx context.Context) {
			if _, err := cache.Refresh(ctx); err != nil {
				logger.Warn("refreshing board after initialize", "error", err)
			}
		}
	}

	a.dispatcher, err = dispatch.New(registry, dopts)
	if err != nil {
		a.store.Close()
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
