// Package realtime implements the v2 real-time transcription protocol.
// New integrations should prefer the streaming package (v3); this package
// remains for services still speaking the v2 wire format, where audio is
// base64-enveloped in JSON text frames instead of sent as binary frames.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/assemblyai/assemblyai-go/internal/observability"
	"github.com/assemblyai/assemblyai-go/internal/version"
)

const (
	defaultBaseURL     = "https://api.assemblyai.com"
	defaultDialTimeout = 10 * time.Second

	terminationTimeout = 5 * time.Second

	protocolLabel = "v2"
)

// Error is a real-time session error delivered to the OnError callback.
type Error struct {
	Message string
	Code    int // WebSocket close code, 0 when remote-reported
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("realtime: %s (code %d)", e.Message, e.Code)
	}
	return "realtime: " + e.Message
}

// closeCodeMessages maps the v2 service's close codes to causes.
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
	4100: "Endpoint received invalid JSON",
	4101: "Endpoint received a message with an invalid schema",
	4102: "This account has exceeded the number of allowed streams",
	4103: "The session has been reconnected. This websocket is no longer valid.",
	1013: "Temporary server condition forced blocking client's request",
}

// Options configures a Transcriber.
type Options struct {
	// APIKey authenticates the session.
	APIKey string

	// BaseURL of the API; the WebSocket endpoint is derived from it.
	// Defaults to https://api.assemblyai.com.
	BaseURL string

	// SampleRate of the audio that will be streamed, in Hz. Required.
	SampleRate int

	// WordBoost is an optional list of words to bias recognition towards.
	WordBoost []string

	// DialTimeout bounds the WebSocket open handshake. Defaults to 10s.
	DialTimeout time.Duration

	// Logger receives the session's diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Transcriber is a duplex real-time transcription session. Construct it
// with callbacks, open it with Connect, feed audio with Stream, and end it
// with Close. A Transcriber drives exactly one connection; it does not
// reconnect.
type Transcriber struct {
	opts   Options
	cb     Callbacks
	logger zerolog.Logger

	queue *messageQueue

	connMu sync.Mutex
	conn   *websocket.Conn

	done              chan struct{}
	stopOnce          sync.Once
	sessionTerminated chan struct{}
	terminatedOnce    sync.Once
	closeOnce         sync.Once
	endOnce           sync.Once
	onCloseOnce       sync.Once
	wg                sync.WaitGroup
}

// NewTranscriber creates a real-time transcriber. It returns an error for
// invalid local configuration (missing callbacks, non-positive sample
// rate); connection problems surface later through OnError.
func NewTranscriber(opts Options, cb Callbacks) (*Transcriber, error) {
	if cb.OnData == nil {
		return nil, errors.New("realtime: OnData callback is required")
	}
	if cb.OnError == nil {
		return nil, errors.New("realtime: OnError callback is required")
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("realtime: sample rate must be a positive integer, got %d", opts.SampleRate)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	logger := observability.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = observability.WithSessionID(logger, "").With().Str("component", "realtime").Logger()

	return &Transcriber{
		opts:              opts,
		cb:                cb,
		logger:            logger,
		queue:             newMessageQueue(),
		done:              make(chan struct{}),
		sessionTerminated: make(chan struct{}),
	}, nil
}

// Connect opens the WebSocket session and starts the read and write loops.
// Network failures are reported through OnError and leave the transcriber
// unconnected; Connect returns an error only when called twice.
func (t *Transcriber) Connect(ctx context.Context) error {
	t.connMu.Lock()

	if t.conn != nil {
		t.connMu.Unlock()
		return errors.New("realtime: already connected")
	}

	query := url.Values{}
	query.Set("sample_rate", strconv.Itoa(t.opts.SampleRate))
	if len(t.opts.WordBoost) > 0 {
		boost, err := json.Marshal(t.opts.WordBoost)
		if err != nil {
			t.connMu.Unlock()
			return fmt.Errorf("realtime: failed to encode word boost: %w", err)
		}
		query.Set("word_boost", string(boost))
	}

	// https -> wss, http -> ws
	wsBase := strings.Replace(t.opts.BaseURL, "http", "ws", 1)
	endpoint := fmt.Sprintf("%s/v2/realtime/ws?%s", wsBase, query.Encode())

	headers := http.Header{}
	headers.Set("Authorization", t.opts.APIKey)
	headers.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{HandshakeTimeout: t.opts.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		// Release the lock before the callback so OnError can reentrantly
		// call Connect or Close without deadlocking.
		t.connMu.Unlock()
		if resp != nil {
			resp.Body.Close()
		}
		t.logger.Warn().Err(err).Msg("connect failed")
		observability.RecordError("realtime", "connect")
		t.cb.OnError(&Error{Message: fmt.Sprintf("could not connect to the real-time service: %v", err)})
		return nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	t.conn = conn
	observability.RecordSessionStart(protocolLabel)

	t.wg.Add(2)
	go t.writeLoop()
	go t.readLoop()
	t.connMu.Unlock()

	t.logger.Debug().Int("sample_rate", t.opts.SampleRate).Msg("connected")
	return nil
}

// Stream enqueues one raw audio chunk. Chunks are base64-enveloped and
// written in enqueue order. Stream never blocks on the network and is safe
// to call from any goroutine, including before Connect.
func (t *Transcriber) Stream(data []byte) {
	t.queue.push(outboundMessage{audio: data})
}

// Close gracefully ends the session: it enqueues a terminate message behind
// any pending audio, waits (bounded) for the service to acknowledge, stops
// both loops, closes the socket, and invokes OnClose. Close is idempotent.
func (t *Transcriber) Close() {
	t.connMu.Lock()
	connected := t.conn != nil
	t.connMu.Unlock()

	if connected && !t.stopped() {
		t.queue.push(outboundMessage{terminate: true})

		select {
		case <-t.sessionTerminated:
		case <-t.done:
		case <-time.After(terminationTimeout):
			t.logger.Warn().Msg("timed out waiting for session termination")
		}
	}

	t.shutdown()
	t.wg.Wait()

	if t.cb.OnClose != nil {
		t.onCloseOnce.Do(t.cb.OnClose)
	}
}

func (t *Transcriber) writeLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		msg, ok := t.queue.pop()
		if !ok {
			select {
			case <-t.done:
				return
			case <-t.queue.notify:
				continue
			}
		}

		var payload any
		if msg.terminate {
			payload = terminateMessage{TerminateSession: true}
		} else {
			payload = audioMessage{AudioData: base64.StdEncoding.EncodeToString(msg.audio)}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			t.logger.Error().Err(err).Msg("skipping unencodable message")
			continue
		}

		if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			if t.stopped() {
				return
			}
			t.handleTransportError(err)
			return
		}

		if !msg.terminate {
			observability.RecordAudioBytes(protocolLabel, len(msg.audio))
		}
	}
}

func (t *Transcriber) readLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.stopped() {
				return
			}
			t.handleTransportError(err)
			return
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			t.cb.OnError(&Error{Message: fmt.Sprintf("could not decode message: %v", err)})
			continue
		}

		if raw, ok := fields["error"]; ok {
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				msg = string(raw)
			}
			observability.RecordError("realtime", "session")
			t.cb.OnError(&Error{Message: msg})
			continue
		}

		raw, ok := fields["message_type"]
		if !ok {
			t.logger.Warn().Msg("dropping message without message_type")
			continue
		}
		var msgType string
		if err := json.Unmarshal(raw, &msgType); err != nil {
			t.logger.Warn().Err(err).Msg("dropping message with invalid message_type")
			continue
		}

		observability.RecordInboundEvent(protocolLabel, msgType)

		switch msgType {
		case MessageTypeSessionBegins:
			var session SessionOpened
			if err := json.Unmarshal(data, &session); err != nil {
				t.cb.OnError(&Error{Message: fmt.Sprintf("could not decode session message: %v", err)})
				continue
			}
			if t.cb.OnOpen != nil {
				t.cb.OnOpen(session)
			}
		case MessageTypePartialTranscript, MessageTypeFinalTranscript:
			var transcript Transcript
			if err := json.Unmarshal(data, &transcript); err != nil {
				t.cb.OnError(&Error{Message: fmt.Sprintf("could not decode transcript: %v", err)})
				continue
			}
			t.cb.OnData(transcript)
		case MessageTypeSessionTerminated:
			t.terminatedOnce.Do(func() { close(t.sessionTerminated) })
			t.stop()
		default:
			t.logger.Warn().Str("message_type", msgType).Msg("dropping unrecognized message")
		}
	}
}

// handleTransportError normalizes a connection-closed error, reports it via
// OnError unless it is a normal closure, and ends the session.
func (t *Transcriber) handleTransportError(err error) {
	if closeErr, ok := err.(*websocket.CloseError); ok {
		if closeErr.Code != websocket.CloseNormalClosure {
			msg, known := closeCodeMessages[closeErr.Code]
			if !known {
				msg = closeErr.Text
			}
			observability.RecordError("realtime", "transport")
			t.cb.OnError(&Error{Message: msg, Code: closeErr.Code})
		}
	} else {
		observability.RecordError("realtime", "transport")
		t.cb.OnError(&Error{Message: fmt.Sprintf("connection failed: %v", err)})
	}
	t.shutdown()
}

func (t *Transcriber) stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *Transcriber) stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Transcriber) shutdown() {
	t.stop()

	t.connMu.Lock()
	conn := t.conn
	t.connMu.Unlock()

	if conn != nil {
		t.closeOnce.Do(func() {
			_ = conn.Close()
		})
		t.endOnce.Do(func() { observability.RecordSessionEnd(protocolLabel) })
	}
}
