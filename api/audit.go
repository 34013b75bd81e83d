package api

import "time"

// QueryFilter defines criteria for querying audit records.
type QueryFilter struct {
	Since  time.Time `json:"since,omitempty"`
	Until  time.Time `json:"until,omitempty"`
	Method string    `json:"method,omitempty"`
	Tool   string    `json:"tool,omitempty"`
	// ErrorsOnly keeps records that were answered with an error code.
	ErrorsOnly bool `json:"errors_only,omitempty"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
}

// AuditStats provides summary statistics for the ops endpoints.
type AuditStats struct {
	TotalRequests     int            `json:"total_requests"`
	NotificationCount int            `json:"notification_count"`
	ErrorCount        int            `json:"error_count"`
	DenyCount         int            `json:"deny_count"`
	ByMethod          map[string]int `json:"by_method"`
	ByTool            map[string]int `json:"by_tool"`
	ByCode            map[int]int    `json:"by_code"`
}
