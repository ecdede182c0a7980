package streaming

import "time"

// EventType identifies a kind of event emitted by a streaming session.
type EventType string

const (
	// EventBegin is emitted once when the remote side has opened the session.
	EventBegin EventType = "Begin"

	// EventTurn is emitted for every transcript update of the current turn.
	EventTurn EventType = "Turn"

	// EventTermination is emitted when the session ends normally.
	EventTermination EventType = "Termination"

	// EventError is emitted for transport failures and remote-reported errors.
	EventError EventType = "Error"
)

// eventTypes is the closed set of event kinds the dispatch table is keyed by.
var eventTypes = []EventType{EventBegin, EventTurn, EventTermination, EventError}

// Event is a message delivered to registered handlers.
type Event interface {
	EventType() EventType
}

// Handler receives events dispatched from the session's read loop. Handlers
// for the same event type run in registration order, synchronously on the
// read loop's goroutine; a slow handler stalls further inbound processing.
type Handler func(event Event)

// Word carries per-word timing and confidence inside a turn.
type Word struct {
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Confidence  float64 `json:"confidence"`
	Text        string  `json:"text"`
	WordIsFinal bool    `json:"word_is_final"`
}

// BeginEvent is sent by the remote side once the session is established.
type BeginEvent struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (BeginEvent) EventType() EventType { return EventBegin }

// TurnEvent carries the running transcript for one turn of speech. The
// transcript grows as audio arrives and is final once EndOfTurn is set;
// a formatted version follows when turn formatting is enabled.
type TurnEvent struct {
	TurnOrder           int     `json:"turn_order"`
	TurnIsFormatted     bool    `json:"turn_is_formatted"`
	EndOfTurn           bool    `json:"end_of_turn"`
	Transcript          string  `json:"transcript"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`
	Words               []Word  `json:"words"`
}

func (TurnEvent) EventType() EventType { return EventTurn }

// TerminationEvent is sent by the remote side when the session ends.
type TerminationEvent struct {
	AudioDurationSeconds   int `json:"audio_duration_seconds"`
	SessionDurationSeconds int `json:"session_duration_seconds"`
}

func (TerminationEvent) EventType() EventType { return EventTermination }

// StreamingParameters are the connect-time session parameters, query-encoded
// onto the WebSocket URL. SampleRate is required; everything else is
// optional and omitted when nil.
type StreamingParameters struct {
	SampleRate                       int      // required, Hz
	Encoding                         string   // "pcm_s16le" or "pcm_mulaw"
	FormatTurns                      *bool    // request formatted final turns
	EndOfTurnConfidenceThreshold     *float64 // 0..1
	MinEndOfTurnSilenceWhenConfident *int     // milliseconds
	MaxTurnSilence                   *int     // milliseconds
	WordFinalizationMaxWaitTime      *int     // milliseconds
	SpeechModel                      string   // remote model selection
}

// SessionParameters are the parameters that can be updated mid-session via
// an UpdateConfiguration control message.
type SessionParameters struct {
	FormatTurns                      *bool    `json:"format_turns,omitempty"`
	EndOfTurnConfidenceThreshold     *float64 `json:"end_of_turn_confidence_threshold,omitempty"`
	MinEndOfTurnSilenceWhenConfident *int     `json:"min_end_of_turn_silence_when_confident,omitempty"`
	MaxTurnSilence                   *int     `json:"max_turn_silence,omitempty"`
}
