package realtime

import (
	"sync"
	"time"
)

// Message types received from the real-time (v2) service.
const (
	MessageTypeSessionBegins     = "SessionBegins"
	MessageTypePartialTranscript = "PartialTranscript"
	MessageTypeFinalTranscript   = "FinalTranscript"
	MessageTypeSessionTerminated = "SessionTerminated"
)

// SessionOpened is received once the real-time session is established.
type SessionOpened struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Word is a single word in a real-time transcript, with millisecond timing
// relative to session start.
type Word struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// Transcript is a partial or final transcript update. Partial transcripts
// arrive continuously while audio streams; a final transcript replaces them
// once the service detects the end of an utterance.
type Transcript struct {
	MessageType string    `json:"message_type"`
	AudioStart  int       `json:"audio_start"`
	AudioEnd    int       `json:"audio_end"`
	Confidence  float64   `json:"confidence"`
	Text        string    `json:"text"`
	Words       []Word    `json:"words"`
	Created     time.Time `json:"created"`

	// Set on final transcripts only.
	Punctuated    bool `json:"punctuated"`
	TextFormatted bool `json:"text_formatted"`
}

// IsFinal reports whether this is a final transcript.
func (t Transcript) IsFinal() bool {
	return t.MessageType == MessageTypeFinalTranscript
}

// Callbacks receive session events. OnData and OnError are required;
// OnOpen and OnClose are optional. All callbacks run synchronously on the
// session's read goroutine (OnClose on the goroutine calling Close).
type Callbacks struct {
	OnData  func(transcript Transcript)
	OnError func(err error)
	OnOpen  func(session SessionOpened)
	OnClose func()
}

// Outbound wire messages.
type audioMessage struct {
	AudioData string `json:"audio_data"` // base64-encoded chunk
}

type terminateMessage struct {
	TerminateSession bool `json:"terminate_session"`
}

// outboundMessage is one pending outbound item: a raw audio chunk or the
// terminate control message.
type outboundMessage struct {
	audio     []byte
	terminate bool
}

// messageQueue is an unbounded thread-safe FIFO with a single consumer,
// preserving enqueue order on the wire.
type messageQueue struct {
	mu     sync.Mutex
	items  []outboundMessage
	notify chan struct{}
}

func newMessageQueue() *messageQueue {
	return &messageQueue{notify: make(chan struct{}, 1)}
}

func (q *messageQueue) push(msg outboundMessage) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *messageQueue) pop() (outboundMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return outboundMessage{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}
