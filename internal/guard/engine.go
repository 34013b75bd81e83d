// Package guard decides whether an inbound JSON-RPC message may be dispatched.
//
// Two backends exist: first-match rules declared in the config file, and an
// embedded OPA/Rego policy. Both return an EvalResult carrying a verdict.
package guard

import (
	"context"
	"fmt"
)

// Engine is the interface for policy evaluation backends.
type Engine interface {
	// Evaluate checks a message against loaded policies and returns a verdict.
	Evaluate(ctx context.Context, input *EvalInput) (*EvalResult, error)

	// Reload reloads policies from their source, if they have one.
	Reload(ctx context.Context) error
}

// New returns the engine selected by p: the OPA engine when an OPA policy file
// is configured, otherwise the rule engine.
func New(p *Policy) (Engine, error) {
	if p == nil {
		p = &Policy{}
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	if p.OPAPolicy != "" {
		e, err := NewOPAEngine(p.OPAPolicy)
		if err != nil {
			return nil, fmt.Errorf("loading OPA policy: %w", err)
		}
		return e, nil
	}
	return NewRuleEngine(p)
}
