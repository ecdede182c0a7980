package streaming

import (
	"context"
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
	// DefaultHost is the streaming API host.
	DefaultHost = "streaming.assemblyai.com"

	// apiVersion is sent on every connection as the AssemblyAI-Version header.
	apiVersion = "2025-05-12"

	defaultDialTimeout = 15 * time.Second

	// terminationTimeout bounds how long a graceful Disconnect waits for the
	// remote side to acknowledge a Terminate message before closing anyway.
	terminationTimeout = 5 * time.Second

	protocolLabel = "v3"
)

// Options configures a streaming Client.
type Options struct {
	// Host of the streaming API. Defaults to DefaultHost. A scheme may be
	// included ("ws://localhost:9432"); bare hosts use wss.
	Host string

	// APIKey is a long-lived credential.
	APIKey string

	// Token is a short-lived credential minted via CreateTemporaryToken.
	// When both are set, Token takes precedence.
	Token string

	// DialTimeout bounds the WebSocket open handshake. Defaults to 15s.
	DialTimeout time.Duration

	// HTTPClient is used for token minting. Defaults to a client with
	// DialTimeout as its overall timeout.
	HTTPClient *http.Client

	// Logger receives the session's diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Client is a duplex streaming session to the real-time transcription
// service. Callers register handlers with On, open the session with Connect,
// feed audio with Stream, and end the session with Disconnect or Close.
//
// A Client drives exactly one connection; it does not reconnect. After the
// session ends (normally or on error) a new Client must be constructed for
// a new session.
type Client struct {
	host        string
	apiKey      string
	token       string
	dialTimeout time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger

	handlersMu sync.RWMutex
	handlers   map[EventType][]Handler

	queue *messageQueue

	connMu sync.Mutex
	conn   *websocket.Conn

	// done is the session's stop flag: closed exactly once, never reopened.
	// Both loops gate on it; nothing else decides whether they keep running.
	done     chan struct{}
	stopOnce sync.Once

	// sessionTerminated is closed when a Termination event arrives, letting
	// a graceful Disconnect wait for queued audio to be flushed and
	// acknowledged.
	sessionTerminated chan struct{}
	terminatedOnce    sync.Once

	closeOnce sync.Once
	endOnce   sync.Once
	wg        sync.WaitGroup
}

// NewClient creates a streaming client. The client is inert until Connect
// is called; Stream and On are safe to use before connecting.
func NewClient(opts Options) *Client {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: dialTimeout}
	}

	logger := observability.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = observability.WithSessionID(logger, "").With().Str("component", "streaming").Logger()

	handlers := make(map[EventType][]Handler, len(eventTypes))
	for _, t := range eventTypes {
		handlers[t] = nil
	}

	return &Client{
		host:              host,
		apiKey:            opts.APIKey,
		token:             opts.Token,
		dialTimeout:       dialTimeout,
		httpClient:        httpClient,
		logger:            logger,
		handlers:          handlers,
		queue:             newMessageQueue(),
		done:              make(chan struct{}),
		sessionTerminated: make(chan struct{}),
	}
}

// On registers a handler for an event type. Multiple handlers may be
// registered for the same type; they run in registration order. Handlers
// registered after Connect take effect for subsequent events. An unknown
// event type or nil handler is rejected with an error and no registration
// happens.
func (c *Client) On(eventType EventType, handler Handler) error {
	if handler == nil {
		return errors.New("streaming: handler must not be nil")
	}

	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	if _, ok := c.handlers[eventType]; !ok {
		return fmt.Errorf("streaming: unknown event type %q", eventType)
	}
	c.handlers[eventType] = append(c.handlers[eventType], handler)
	return nil
}

// Connect opens the WebSocket session and starts the read and write loops.
//
// It returns an error only for local precondition violations (invalid
// parameters, already connected). Network failures during the handshake are
// reported through handlers registered for EventError, matching how all
// post-connect failures surface, and leave the client unconnected.
func (c *Client) Connect(ctx context.Context, params StreamingParameters) error {
	if params.SampleRate <= 0 {
		return fmt.Errorf("streaming: sample rate must be a positive integer, got %d", params.SampleRate)
	}

	c.connMu.Lock()

	if c.conn != nil {
		c.connMu.Unlock()
		return errors.New("streaming: already connected")
	}

	scheme, host := splitHost(c.host)
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     "/v3/ws",
		RawQuery: encodeParameters(params).Encode(),
	}

	headers := http.Header{}
	if c.token != "" {
		headers.Set("Authorization", c.token)
	} else {
		headers.Set("Authorization", c.apiKey)
	}
	headers.Set("AssemblyAI-Version", apiVersion)
	headers.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		// Release the lock before dispatching so an error handler that
		// reentrantly calls Connect or Disconnect does not deadlock.
		c.connMu.Unlock()
		if resp != nil {
			resp.Body.Close()
		}
		c.logger.Warn().Err(err).Str("host", c.host).Msg("connect failed")
		observability.RecordError("streaming", "connect")
		c.dispatch(&SessionError{Message: fmt.Sprintf("could not connect to the streaming service: %v", err)})
		return nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	c.conn = conn
	observability.RecordSessionStart(protocolLabel)

	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop()
	c.connMu.Unlock()

	c.logger.Debug().Str("host", c.host).Int("sample_rate", params.SampleRate).Msg("connected")
	return nil
}

// Stream enqueues one audio chunk for delivery. Chunks are written to the
// wire in enqueue order, never reordered relative to each other or to
// control messages. Stream never blocks on the network and is safe to call
// from any goroutine, including before Connect.
func (c *Client) Stream(data []byte) {
	c.queue.push(outboundMessage{audio: data})
}

// StreamAll enqueues every chunk received from ch, preserving order.
// It returns when ch is closed.
func (c *Client) StreamAll(ch <-chan []byte) {
	for chunk := range ch {
		c.Stream(chunk)
	}
}

// SetParams requests a mid-session configuration change. The update is fire
// and forget: it takes effect once the write loop delivers it and the
// remote service applies it.
func (c *Client) SetParams(params SessionParameters) {
	c.queue.push(outboundMessage{control: updateConfiguration{
		Type:              messageTypeUpdateConfiguration,
		SessionParameters: params,
	}})
}

// ForceEndpoint asks the remote side to finalize the current turn
// immediately, regardless of its silence-detection heuristics.
func (c *Client) ForceEndpoint() {
	c.queue.push(outboundMessage{control: forceEndpoint{Type: messageTypeForceEndpoint}})
}

// Disconnect ends the session. With terminate set, a Terminate control
// message is enqueued behind any pending audio so the remote side processes
// everything already streamed, and Disconnect waits (bounded) for the
// Termination acknowledgment. It then stops both loops, closes the socket,
// and waits for the loops to exit. Disconnect is idempotent.
func (c *Client) Disconnect(terminate bool) {
	c.connMu.Lock()
	connected := c.conn != nil
	c.connMu.Unlock()

	if terminate && connected && !c.stopped() {
		c.queue.push(outboundMessage{control: terminateSession{Type: messageTypeTerminate}})

		select {
		case <-c.sessionTerminated:
		case <-c.done:
		case <-time.After(terminationTimeout):
			c.logger.Warn().Msg("timed out waiting for termination acknowledgment")
		}
	}

	c.shutdown()
	c.wg.Wait()
	c.logger.Debug().Msg("disconnected")
}

// Close is shorthand for Disconnect(true).
func (c *Client) Close() {
	c.Disconnect(true)
}

// writeLoop drains the outbound queue onto the socket: raw audio as binary
// frames, control messages as JSON text frames. It is the queue's single
// consumer, which guarantees FIFO delivery.
func (c *Client) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msg, ok := c.queue.pop()
		if !ok {
			select {
			case <-c.done:
				return
			case <-c.queue.notify:
				continue
			}
		}

		var err error
		switch {
		case msg.audio != nil:
			err = c.conn.WriteMessage(websocket.BinaryMessage, msg.audio)
			if err == nil {
				observability.RecordAudioBytes(protocolLabel, len(msg.audio))
			}
		case msg.control != nil:
			var data []byte
			data, err = encodeControl(msg.control)
			if err != nil {
				// Only SDK-constructed messages reach the queue, so this is a
				// programming error; skip the message but leave a diagnostic.
				c.logger.Error().Err(err).Msg("skipping unencodable control message")
				continue
			}
			err = c.conn.WriteMessage(websocket.TextMessage, data)
		default:
			c.logger.Error().Msg("skipping empty outbound message")
			continue
		}

		if err != nil {
			// A failed send means the connection is dead. Draining further
			// messages would silently lose them, so the loop stops here.
			if c.stopped() {
				return
			}
			c.handleTransportError(err)
			return
		}
	}
}

// readLoop receives frames, decodes them, and dispatches events to
// registered handlers in arrival order.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.stopped() {
				return
			}
			c.handleTransportError(err)
			return
		}

		event, decodeErr := decodeEvent(data)
		if decodeErr != nil {
			var malformed *malformedFrameError
			switch {
			case errors.As(decodeErr, &malformed):
				// A single bad frame must not kill the session.
				c.logger.Warn().Err(decodeErr).Msg("dropping malformed frame")
				continue
			case errors.Is(decodeErr, errUnrecognizedEvent):
				c.logger.Warn().Str("frame", truncateFrame(data)).Msg("dropping unrecognized event")
				continue
			default:
				// Valid JSON with a recognized type but an invalid schema is
				// a contract mismatch, surfaced like any other session error.
				c.handleError(&SessionError{Message: decodeErr.Error()})
				return
			}
		}

		observability.RecordInboundEvent(protocolLabel, string(event.EventType()))

		if sessionErr, ok := event.(*SessionError); ok {
			c.handleError(sessionErr)
			return
		}

		if _, ok := event.(TerminationEvent); ok {
			// Stop before dispatching so handler-triggered reentrant calls
			// observe a terminating session.
			c.terminatedOnce.Do(func() { close(c.sessionTerminated) })
			c.stop()
		}

		c.dispatch(event)
	}
}

// handleTransportError is the shared funnel for connection-closed errors
// surfaced during send or receive.
func (c *Client) handleTransportError(err error) {
	sessionErr := normalizeCloseError(err)
	if sessionErr == nil {
		// Normal closure: the expected outcome of a graceful shutdown, not
		// an error worth reporting.
		c.shutdown()
		return
	}
	c.handleError(sessionErr)
}

// handleError reports a session error to registered handlers and ends the
// session; an error is terminal for the connection.
func (c *Client) handleError(sessionErr *SessionError) {
	c.logger.Warn().Int("code", sessionErr.Code).Str("message", sessionErr.Message).Msg("session error")
	observability.RecordError("streaming", "session")
	c.dispatch(sessionErr)
	c.shutdown()
}

// dispatch invokes the handlers registered for the event's type, in
// registration order, on the calling goroutine.
func (c *Client) dispatch(event Event) {
	c.handlersMu.RLock()
	handlers := make([]Handler, len(c.handlers[event.EventType()]))
	copy(handlers, c.handlers[event.EventType()])
	c.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// stop sets the session's stop flag.
func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Client) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// shutdown sets the stop flag and closes the socket, releasing any loop
// blocked in a read. Safe to call from any goroutine, any number of times.
func (c *Client) shutdown() {
	c.stop()

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn != nil {
		c.closeOnce.Do(func() {
			// Best-effort cleanup: the session is terminal either way.
			_ = conn.Close()
		})
		c.endOnce.Do(func() { observability.RecordSessionEnd(protocolLabel) })
	}
}

// CreateTemporaryToken mints a short-lived credential that a client without
// an API key can use to Connect. maxSessionDurationSeconds is omitted when
// zero.
func (c *Client) CreateTemporaryToken(ctx context.Context, expiresInSeconds int, maxSessionDurationSeconds int) (string, error) {
	query := url.Values{}
	query.Set("expires_in_seconds", strconv.Itoa(expiresInSeconds))
	if maxSessionDurationSeconds > 0 {
		query.Set("max_session_duration_seconds", strconv.Itoa(maxSessionDurationSeconds))
	}

	scheme, host := splitHost(c.host)
	if scheme == "wss" {
		scheme = "https"
	} else {
		scheme = "http"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     "/v3/token",
		RawQuery: query.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("streaming: failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest("create_temporary_token", false)
		return "", fmt.Errorf("streaming: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordAPIRequest("create_temporary_token", false)
		return "", fmt.Errorf("streaming: token request returned status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observability.RecordAPIRequest("create_temporary_token", false)
		return "", fmt.Errorf("streaming: failed to decode token response: %w", err)
	}

	observability.RecordAPIRequest("create_temporary_token", true)
	return body.Token, nil
}

// encodeParameters query-encodes connect-time parameters, omitting unset
// optionals.
func encodeParameters(params StreamingParameters) url.Values {
	values := url.Values{}
	values.Set("sample_rate", strconv.Itoa(params.SampleRate))

	if params.Encoding != "" {
		values.Set("encoding", params.Encoding)
	}
	if params.SpeechModel != "" {
		values.Set("speech_model", params.SpeechModel)
	}
	if params.FormatTurns != nil {
		values.Set("format_turns", strconv.FormatBool(*params.FormatTurns))
	}
	if params.EndOfTurnConfidenceThreshold != nil {
		values.Set("end_of_turn_confidence_threshold", strconv.FormatFloat(*params.EndOfTurnConfidenceThreshold, 'f', -1, 64))
	}
	if params.MinEndOfTurnSilenceWhenConfident != nil {
		values.Set("min_end_of_turn_silence_when_confident", strconv.Itoa(*params.MinEndOfTurnSilenceWhenConfident))
	}
	if params.MaxTurnSilence != nil {
		values.Set("max_turn_silence", strconv.Itoa(*params.MaxTurnSilence))
	}
	if params.WordFinalizationMaxWaitTime != nil {
		values.Set("word_finalization_max_wait_time", strconv.Itoa(*params.WordFinalizationMaxWaitTime))
	}

	return values
}

// splitHost accepts a bare host ("streaming.assemblyai.com") or a host with
// an explicit scheme ("ws://127.0.0.1:9432"). Bare hosts default to wss.
func splitHost(host string) (string, string) {
	if i := strings.Index(host, "://"); i >= 0 {
		scheme := host[:i]
		if scheme == "http" {
			scheme = "ws"
		} else if scheme == "https" {
			scheme = "wss"
		}
		return scheme, host[i+3:]
	}
	return "wss", host
}

func truncateFrame(data []byte) string {
	const max = 256
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
