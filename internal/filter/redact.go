package filter

import (
	"context"
	"regexp"

	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

const redacted = "[REDACTED]"

// SecretPattern defines a named regex pattern for detecting secrets.
type SecretPattern struct {
	Name  string
	Regex *regexp.Regexp
}

// DefaultSecretPatterns returns the built-in set of secret detection patterns.
// Monday.com API tokens are JWTs.
func DefaultSecretPatterns() []SecretPattern {
	return []SecretPattern{
		{Name: "jwt_token", Regex: regexp.MustCompile(`eyJ[A-Za-z0-9-_]+\.eyJ[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+`)},
		{Name: "bearer", Regex: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.=]{8,}`)},
		{Name: "generic_api_key", Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api_secret)['":\s]*[=:]\s*['"]?([A-Za-z0-9\-_]{20,60})['"]?`)},
		{Name: "generic_secret", Regex: regexp.MustCompile(`(?i)(?:secret|password|passwd|pwd|token|auth_token|access_token|authorization)['":\s]*[=:]\s*['"]?([A-Za-z0-9\-_!@#$%^&*]{8,100})['"]?`)},
		{Name: "aws_access_key", Regex: regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`)},
		{Name: "github_token", Regex: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,255}`)},
		{Name: "slack_token", Regex: regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`)},
		{Name: "private_key", Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
	}
}

// RedactFilter masks secrets in error and verdict messages before they leave
// the process, in the response or in the audit log.
type RedactFilter struct {
	patterns []SecretPattern
}

// NewRedactFilter creates a redaction filter using DefaultSecretPatterns.
func NewRedactFilter() *RedactFilter {
	return &RedactFilter{patterns: DefaultSecretPatterns()}
}

func (f *RedactFilter) Name() string { return "redact" }

func (f *RedactFilter) Process(_ context.Context, fc *FilterContext) error {
	if fc.Error != nil {
		if msg := f.Redact(fc.Error.Message); msg != fc.Error.Message {
			fc.Error = &jsonrpc.Error{Code: fc.Error.Code, Message: msg}
		}
	}
	fc.VerdictMessage = f.Redact(fc.VerdictMessage)
	return nil
}

// Redact replaces every pattern match in s.
func (f *RedactFilter) Redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range f.patterns {
		s = p.Regex.ReplaceAllString(s, redacted)
	}
	return s
}
