package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Outbound control messages. Audio is never enveloped; it is written as a
// raw binary frame, so only control messages carry a type discriminator.
type terminateSession struct {
	Type string `json:"type"`
}

type forceEndpoint struct {
	Type string `json:"type"`
}

type updateConfiguration struct {
	Type string `json:"type"`
	SessionParameters
}

const (
	messageTypeTerminate           = "Terminate"
	messageTypeForceEndpoint       = "ForceEndpoint"
	messageTypeUpdateConfiguration = "UpdateConfiguration"
)

// errUnrecognizedEvent marks a syntactically valid frame whose type is not
// part of the protocol. The read loop logs and discards these.
var errUnrecognizedEvent = errors.New("unrecognized event type")

// malformedFrameError marks a frame that is not valid JSON. A single
// malformed frame is a transient glitch and must not end the session.
type malformedFrameError struct {
	err error
}

func (e *malformedFrameError) Error() string {
	return "malformed frame: " + e.err.Error()
}

func (e *malformedFrameError) Unwrap() error { return e.err }

// protocolError marks a frame with a recognized type but missing or
// malformed required fields. Unlike a malformed frame this indicates a
// contract mismatch and is routed to the session's error path.
type protocolError struct {
	eventType EventType
	reason    string
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("invalid %s event: %s", e.eventType, e.reason)
}

// decodeEvent deserializes one inbound text frame into exactly one of: a
// typed event, a *SessionError (remote-reported error payload), or an error
// classifying the frame (*malformedFrameError, *protocolError,
// errUnrecognizedEvent).
func decodeEvent(data []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &malformedFrameError{err: err}
	}

	// An error key wins over everything else. A non-string value still
	// counts as an error; its raw JSON becomes the message.
	if raw, ok := fields["error"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(raw)
		}
		return &SessionError{Message: msg}, nil
	}

	raw, ok := fields["type"]
	if !ok {
		return nil, errUnrecognizedEvent
	}
	var msgType string
	if err := json.Unmarshal(raw, &msgType); err != nil {
		return nil, errUnrecognizedEvent
	}

	switch EventType(msgType) {
	case EventBegin:
		var ev BeginEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &protocolError{eventType: EventBegin, reason: err.Error()}
		}
		if err := requireFields(fields, EventBegin, "id", "expires_at"); err != nil {
			return nil, err
		}
		return ev, nil
	case EventTurn:
		var ev TurnEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &protocolError{eventType: EventTurn, reason: err.Error()}
		}
		if err := requireFields(fields, EventTurn,
			"turn_order", "turn_is_formatted", "end_of_turn",
			"transcript", "end_of_turn_confidence", "words"); err != nil {
			return nil, err
		}
		return ev, nil
	case EventTermination:
		var ev TerminationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &protocolError{eventType: EventTermination, reason: err.Error()}
		}
		return ev, nil
	default:
		return nil, errUnrecognizedEvent
	}
}

func requireFields(fields map[string]json.RawMessage, eventType EventType, names ...string) error {
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return &protocolError{eventType: eventType, reason: "missing required field " + name}
		}
	}
	return nil
}

// encodeControl serializes an outbound control message as a JSON text frame.
func encodeControl(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode control message: %w", err)
	}
	return data, nil
}
