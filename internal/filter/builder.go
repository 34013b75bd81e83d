package filter

import (
	"log/slog"
	"time"

	"github.com/tkingovr/monday-mcp/internal/audit"
	"github.com/tkingovr/monday-mcp/internal/guard"
)

// ChainConfig holds the configuration for building filter chains.
type ChainConfig struct {
	Engine     guard.Engine
	AuditStore audit.Store
	Logger     *slog.Logger
	RateLimit  *RateLimitConfig
	Redact     bool
}

// BuildInboundChain constructs the chain run before dispatch. Parsing always
// runs; guard and rate limiting are added when configured.
func BuildInboundChain(cfg ChainConfig) *Chain {
	chain := NewChain(cfg.Logger, NewParseFilter())

	if cfg.Engine != nil {
		chain.AddFilter(NewGuardFilter(cfg.Engine, cfg.Logger))
	}

	// Rate limiting after the guard so denials are not counted.
	if cfg.RateLimit != nil {
		chain.AddFilter(NewRateLimitFilter(*cfg.RateLimit))
	}

	return chain
}

// BuildOutboundChain constructs the chain run once the outcome is known.
func BuildOutboundChain(cfg ChainConfig) *Chain {
	chain := NewChain(cfg.Logger)

	if cfg.Redact {
		chain.AddFilter(NewRedactFilter())
	}

	// Audit is always last
	if cfg.AuditStore != nil {
		chain.AddFilter(NewAuditFilter(cfg.AuditStore))
	}

	return chain
}

// RateLimitConfigFromPolicy converts guard rate limit settings to filter config.
// Settings are validated by guard.Validate, so unparsable windows are skipped.
func RateLimitConfigFromPolicy(settings *guard.RateLimitSettings) *RateLimitConfig {
	if settings == nil {
		return nil
	}

	cfg := &RateLimitConfig{
		PerTool: make(map[string]*RateLimit),
	}

	if settings.Global != nil {
		d, err := time.ParseDuration(settings.Global.Window)
		if err == nil {
			cfg.Global = &RateLimit{Max: settings.Global.Max, Window: d}
		}
	}

	for tool, rule := range settings.PerTool {
		d, err := time.ParseDuration(rule.Window)
		if err == nil {
			cfg.PerTool[tool] = &RateLimit{Max: rule.Max, Window: d}
		}
	}

	return cfg
}
