package config

import "time"

const (
	DefaultListen          = ":3000"
	DefaultProtocolVersion = "2024-11-05"
	DefaultServerName      = "Monday.com MCP Server"
	DefaultTimeout         = 30 * time.Second
	DefaultCacheMaxAge     = 5 * time.Minute
	DefaultEnvFile         = ".env"
)

// Environment variables that override the config file.
const (
	EnvAPIToken      = "MONDAY_API_TOKEN"
	EnvBoardID       = "MONDAY_BOARD_ID"
	EnvEmailColumnID = "MONDAY_EMAIL_COLUMN_ID"
	EnvAPIURL        = "MONDAY_API_URL"
	EnvPort          = "PORT"
)

// DefaultAllowedOrigins allows any origin.
func DefaultAllowedOrigins() []string {
	return []string{"*"}
}
