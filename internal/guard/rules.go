package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tkingovr/monday-mcp/api"
)

// RuleEngine implements first-match-wins evaluation of config rules.
type RuleEngine struct {
	policy *Policy

	// compiled regex cache, keyed by rule name and argument
	regexCache map[string]*regexp.Regexp
}

// NewRuleEngine creates a rule engine from a validated policy.
func NewRuleEngine(p *Policy) (*RuleEngine, error) {
	e := &RuleEngine{
		policy:     p,
		regexCache: make(map[string]*regexp.Regexp),
	}
	if err := e.compileRegexes(); err != nil {
		return nil, err
	}
	return e, nil
}

// Evaluate checks the input against rules in order, returning the first match.
func (e *RuleEngine) Evaluate(_ context.Context, input *EvalInput) (*EvalResult, error) {
	for i := range e.policy.Rules {
		rule := &e.policy.Rules[i]
		if e.matches(rule, input) {
			return &EvalResult{
				Verdict: api.Verdict(rule.Action),
				Rule:    rule.Name,
				Message: rule.Message,
			}, nil
		}
	}

	return &EvalResult{
		Verdict: e.policy.DefaultAction,
		Rule:    "_default",
		Message: "no matching rule; default action applied",
	}, nil
}

// Reload is a no-op: rules live in the config file, which is read once.
func (e *RuleEngine) Reload(_ context.Context) error {
	return nil
}

func (e *RuleEngine) compileRegexes() error {
	for _, rule := range e.policy.Rules {
		for key, am := range rule.Match.Arguments {
			if am.Regex == "" {
				continue
			}
			re, err := regexp.Compile(am.Regex)
			if err != nil {
				return fmt.Errorf("rule %q argument %q: %w", rule.Name, key, err)
			}
			e.regexCache[rule.Name+":"+key] = re
		}
	}
	return nil
}

func (e *RuleEngine) matches(rule *Rule, input *EvalInput) bool {
	if rule.Match.Method != "" && rule.Match.Method != input.Method {
		return false
	}
	if rule.Match.Tool != "" && rule.Match.Tool != input.Tool {
		return false
	}

	if len(rule.Match.Arguments) > 0 {
		if input.Arguments == nil {
			return false
		}
		var args map[string]any
		if err := json.Unmarshal(input.Arguments, &args); err != nil {
			return false
		}

		for key, am := range rule.Match.Arguments {
			if key == "_any_value" {
				if !e.matchAnyValue(rule.Name, key, am, args) {
					return false
				}
				continue
			}
			val, ok := args[key]
			if !ok || !e.matchArgument(rule.Name, key, am, val) {
				return false
			}
		}
	}

	return true
}

func (e *RuleEngine) matchAnyValue(ruleName, matchKey string, am ArgumentMatch, args map[string]any) bool {
	for _, v := range args {
		if e.matchArgument(ruleName, matchKey, am, v) {
			return true
		}
	}
	return false
}

func (e *RuleEngine) matchArgument(ruleName, key string, am ArgumentMatch, val any) bool {
	str := argumentString(val)

	if am.Exact != "" {
		return str == am.Exact
	}
	if am.Regex != "" {
		re, ok := e.regexCache[ruleName+":"+key]
		if !ok {
			return false
		}
		return re.MatchString(str)
	}
	return true
}

// argumentString renders numbers without exponents so board and item ids
// compare as written.
func argumentString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}
