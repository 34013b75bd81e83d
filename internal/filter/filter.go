// Package filter implements the per-message pipeline wrapped around dispatch.
//
// The inbound chain parses the envelope and applies guard and rate-limit
// decisions before a handler runs. The outbound chain redacts error messages and
// writes the audit record once the outcome is known.
package filter

import "context"

// Filter is a single step in the message processing pipeline.
type Filter interface {
	// Name returns the filter name for logging.
	Name() string

	// Process processes the filter context. It may modify the context
	// (e.g., set verdict, record an error) or produce side effects (e.g., audit logging).
	// Returning an error aborts the filter chain.
	Process(ctx context.Context, fc *FilterContext) error
}
