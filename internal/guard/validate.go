package guard

import (
	"fmt"
	"regexp"
	"time"

	"github.com/tkingovr/monday-mcp/api"
)

var validActions = map[string]bool{
	string(api.VerdictAllow): true,
	string(api.VerdictDeny):  true,
	string(api.VerdictLog):   true,
}

// Validate checks a policy and fills in defaults. The default action is allow.
func Validate(p *Policy) error {
	if p.DefaultAction == "" {
		p.DefaultAction = api.VerdictAllow
	}
	if !validActions[string(p.DefaultAction)] {
		return fmt.Errorf("invalid default_action %q", p.DefaultAction)
	}

	seen := make(map[string]bool, len(p.Rules))
	for i, rule := range p.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d: name is required", i)
		}
		if seen[rule.Name] {
			return fmt.Errorf("rule %d: duplicate name %q", i, rule.Name)
		}
		seen[rule.Name] = true
		if !validActions[rule.Action] {
			return fmt.Errorf("rule %q: invalid action %q", rule.Name, rule.Action)
		}
		if rule.Match.Method == "" && rule.Match.Tool == "" {
			return fmt.Errorf("rule %q: match.method or match.tool is required", rule.Name)
		}
		for key, am := range rule.Match.Arguments {
			if am.Regex != "" {
				if _, err := regexp.Compile(am.Regex); err != nil {
					return fmt.Errorf("rule %q: argument %q regex invalid: %w", rule.Name, key, err)
				}
			}
		}
	}

	if rl := p.RateLimit; rl != nil {
		if err := validateRateLimit("global", rl.Global); err != nil {
			return err
		}
		for tool, r := range rl.PerTool {
			if err := validateRateLimit(tool, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRateLimit(name string, r *RateLimitRule) error {
	if r == nil {
		return nil
	}
	if r.Max <= 0 {
		return fmt.Errorf("rate limit %q: max must be positive", name)
	}
	d, err := time.ParseDuration(r.Window)
	if err != nil {
		return fmt.Errorf("rate limit %q: window: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("rate limit %q: window must be positive", name)
	}
	return nil
}
