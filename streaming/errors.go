package streaming

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// SessionError is the uniform error representation delivered to handlers
// registered for EventError. It covers both remote-reported error payloads
// (Code is 0) and transport-level connection closures (Code carries the
// WebSocket close code).
type SessionError struct {
	Message string
	Code    int
}

func (e *SessionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("streaming: %s (code %d)", e.Message, e.Code)
	}
	return "streaming: " + e.Message
}

func (*SessionError) EventType() EventType { return EventError }

// closeCodeMessages maps the service's application-defined close codes to
// human-readable causes.
var closeCodeMessages = map[int]string{
	4000: "Sample rate must be a positive integer",
	4001: "Not Authorized",
	4002: "Insufficient Funds",
	4003: "This feature is paid-only and requires you to add a credit card. Please visit https://app.assemblyai.com/ to add a credit card to your account",
	4004: "Session Not Found",
	4008: "Session Expired",
	4010: "Session Previously Closed",
	4029: "Client sent audio too fast",
	4030: "Session is handled by another websocket",
	4031: "Session idle for too long",
	4032: "Audio duration is too short",
	4033: "Audio duration is too long",
	4034: "Audio too small to transcode",
	4100: "Endpoint received invalid JSON",
	4101: "Endpoint received a message with an invalid schema",
	4102: "This account has exceeded the number of allowed streams",
	4103: "The session has been reconnected. This websocket is no longer valid.",
	1013: "Temporary server condition forced blocking client's request",
}

// normalizeCloseError turns a transport error into a SessionError. A normal
// closure (close code 1000) is the expected outcome of a graceful shutdown,
// so it returns nil and is never surfaced to error handlers.
func normalizeCloseError(err error) *SessionError {
	if closeErr, ok := err.(*websocket.CloseError); ok {
		if closeErr.Code == websocket.CloseNormalClosure {
			return nil
		}
		if msg, ok := closeCodeMessages[closeErr.Code]; ok {
			return &SessionError{Message: msg, Code: closeErr.Code}
		}
		return &SessionError{Message: closeErr.Text, Code: closeErr.Code}
	}
	return &SessionError{Message: fmt.Sprintf("connection failed: %v", err)}
}
