package dispatch

import (
	"fmt"

	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

// NotificationMode selects how notification-shaped messages are acknowledged.
type NotificationMode string

const (
	// ModeHTTP204 writes no body. Over HTTP the status is 204.
	ModeHTTP204 NotificationMode = "http204"

	// ModeEmptyObject writes a bare {}.
	ModeEmptyObject NotificationMode = "empty-object"

	// ModeFullEnvelope writes {"jsonrpc":"2.0","id":null,"result":null}.
	ModeFullEnvelope NotificationMode = "full-envelope-null-result"
)

// DefaultNotificationMode is used when no mode is configured.
const DefaultNotificationMode = ModeHTTP204

// ParseNotificationMode validates a configured mode. The empty string selects
// the default.
func ParseNotificationMode(s string) (NotificationMode, error) {
	switch m := NotificationMode(s); m {
	case "":
		return DefaultNotificationMode, nil
	case ModeHTTP204, ModeEmptyObject, ModeFullEnvelope:
		return m, nil
	default:
		return "", fmt.Errorf("unknown notification mode %q (want %s, %s, or %s)",
			s, ModeHTTP204, ModeEmptyObject, ModeFullEnvelope)
	}
}

var (
	emptyObject      = []byte("{}")
	fullEnvelopeNull = mustMarshalNullResult()
)

func mustMarshalNullResult() []byte {
	b, err := jsonrpc.Marshal(jsonrpc.NewNullResult())
	if err != nil {
		panic(err)
	}
	return b
}

// ack returns the acknowledgment body for a notification, or nil for none.
func (m NotificationMode) ack() []byte {
	switch m {
	case ModeEmptyObject:
		return emptyObject
	case ModeFullEnvelope:
		return fullEnvelopeNull
	default:
		return nil
	}
}
