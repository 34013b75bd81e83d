package filter

import (
	"context"
	"log/slog"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/guard"
)

// GuardFilter evaluates the message against the guard engine.
type GuardFilter struct {
	engine guard.Engine
	logger *slog.Logger
}

func NewGuardFilter(engine guard.Engine, logger *slog.Logger) *GuardFilter {
	return &GuardFilter{engine: engine, logger: logger}
}

func (f *GuardFilter) Name() string { return "guard" }

func (f *GuardFilter) Process(ctx context.Context, fc *FilterContext) error {
	if fc.Halted || fc.Method == "" {
		return nil
	}

	result, err := f.engine.Evaluate(ctx, &guard.EvalInput{
		Method:       fc.Method,
		Tool:         fc.Tool,
		Arguments:    fc.Arguments,
		Notification: fc.Notification,
		Transport:    fc.Transport,
	})
	if err != nil {
		return err
	}

	switch result.Verdict {
	case api.VerdictDeny:
		fc.Deny(result.Rule, result.Message)
	case api.VerdictLog:
		fc.Verdict = api.VerdictLog
		fc.MatchedRule = result.Rule
		fc.VerdictMessage = result.Message
		f.logger.Info("guard rule matched",
			"rule", result.Rule,
			"method", fc.Method,
			"tool", fc.Tool,
			"transport", fc.Transport,
		)
	default:
		fc.Verdict = api.VerdictAllow
		fc.MatchedRule = result.Rule
	}
	return nil
}
