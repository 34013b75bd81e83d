package guard

import (
	"encoding/json"

	"github.com/tkingovr/monday-mcp/api"
)

// Policy is the guard section of the config file.
type Policy struct {
	DefaultAction api.Verdict        `yaml:"default_action" json:"default_action"`
	OPAPolicy     string             `yaml:"opa_policy,omitempty" json:"opa_policy,omitempty"`
	Rules         []Rule             `yaml:"rules,omitempty" json:"rules,omitempty"`
	RateLimit     *RateLimitSettings `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// RateLimitSettings configures rate limiting.
type RateLimitSettings struct {
	Global  *RateLimitRule            `yaml:"global,omitempty" json:"global,omitempty"`
	PerTool map[string]*RateLimitRule `yaml:"per_tool,omitempty" json:"per_tool,omitempty"`
}

// RateLimitRule defines a rate limit: max requests per time window.
type RateLimitRule struct {
	Max    int    `yaml:"max" json:"max"`
	Window string `yaml:"window" json:"window"`
}

// Rule is a single first-match-wins guard rule.
type Rule struct {
	Name    string    `yaml:"name" json:"name"`
	Match   RuleMatch `yaml:"match" json:"match"`
	Action  string    `yaml:"action" json:"action"`
	Message string    `yaml:"message,omitempty" json:"message,omitempty"`
}

// RuleMatch specifies conditions for matching a message. Empty fields match
// anything.
type RuleMatch struct {
	Method    string                   `yaml:"method,omitempty" json:"method,omitempty"`
	Tool      string                   `yaml:"tool,omitempty" json:"tool,omitempty"`
	Arguments map[string]ArgumentMatch `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

// ArgumentMatch specifies a matching condition for a single argument. The key
// "_any_value" matches when any argument satisfies the condition.
type ArgumentMatch struct {
	Exact string `yaml:"exact,omitempty" json:"exact,omitempty"`
	Regex string `yaml:"regex,omitempty" json:"regex,omitempty"`
}

// EvalInput is the input to a guard evaluation.
type EvalInput struct {
	Method       string          `json:"method"`
	Tool         string          `json:"tool,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Notification bool            `json:"notification"`
	Transport    api.Transport   `json:"transport,omitempty"`
}

// EvalResult is the output of a guard evaluation.
type EvalResult struct {
	Verdict api.Verdict `json:"verdict"`
	Rule    string      `json:"rule,omitempty"`
	Message string      `json:"message,omitempty"`
}
