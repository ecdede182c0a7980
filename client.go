package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/assemblyai/assemblyai-go/internal/observability"
	"github.com/assemblyai/assemblyai-go/internal/resilience"
	"github.com/assemblyai/assemblyai-go/internal/version"
)

// APIError is a non-2xx response from the API, carrying the error message
// from the response body when one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assemblyai: %s (status %d)", e.Message, e.Status)
}

// Client is a synchronous REST client for submitting transcription jobs,
// polling and retrieving results and derived analyses, and calling LeMUR.
// Construct one Client per configuration and share it; all methods are safe
// for concurrent use.
type Client struct {
	settings   Settings
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client with default settings and the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithSettings(NewSettings(apiKey), nil)
}

// NewClientFromEnv creates a client configured from ASSEMBLYAI_* environment
// variables, loading a .env file first when one exists.
func NewClientFromEnv() (*Client, error) {
	settings, err := NewSettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return NewClientWithSettings(settings, nil), nil
}

// NewClientWithSettings creates a client with explicit settings. When
// logger is nil, one is built from Settings.LogLevel and Settings.LogPretty;
// an empty LogLevel disables SDK logging.
func NewClientWithSettings(settings Settings, logger *zerolog.Logger) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.assemblyai.com"
	}
	if settings.HTTPTimeout <= 0 {
		settings.HTTPTimeout = 15 * time.Second
	}
	if settings.PollingInterval <= 0 {
		settings.PollingInterval = 3 * time.Second
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 1
	}

	l := observability.NopLogger()
	switch {
	case logger != nil:
		l = *logger
	case settings.LogLevel != "":
		l = observability.NewLogger(settings.LogLevel, settings.LogPretty)
	}

	return &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: settings.HTTPTimeout},
		logger:     l.With().Str("component", "client").Logger(),
	}
}

// Settings returns a copy of the client's settings.
func (c *Client) Settings() Settings {
	return c.settings
}

// SubmitTranscript submits a transcription job without waiting for it to
// complete. The returned transcript is in the queued or processing state.
func (c *Client) SubmitTranscript(ctx context.Context, params TranscriptParams) (Transcript, error) {
	var transcript Transcript
	err := c.doJSON(ctx, http.MethodPost, "/v2/transcript", params, &transcript, "submit_transcript")
	return transcript, err
}

// GetTranscript fetches the current state of a transcription job.
func (c *Client) GetTranscript(ctx context.Context, transcriptID string) (Transcript, error) {
	var transcript Transcript
	err := c.doJSON(ctx, http.MethodGet, "/v2/transcript/"+transcriptID, nil, &transcript, "get_transcript")
	return transcript, err
}

// WaitForTranscript polls a transcription job until it completes or errors.
// Transient transport failures during polling are retried with backoff; an
// API error response is returned immediately.
func (c *Client) WaitForTranscript(ctx context.Context, transcriptID string) (Transcript, error) {
	retryConfig := &resilience.RetryConfig{
		MaxAttempts:       c.settings.MaxRetries,
		InitialBackoff:    c.settings.PollingInterval,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}

	ticker := time.NewTicker(c.settings.PollingInterval)
	defer ticker.Stop()

	for {
		var transcript Transcript
		err := resilience.Retry(ctx, func() error {
			var getErr error
			transcript, getErr = c.GetTranscript(ctx, transcriptID)
			return getErr
		}, retryConfig, func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return false
			}
			return resilience.IsRetryableNetworkError(err)
		})
		if err != nil {
			return Transcript{}, err
		}

		switch transcript.Status {
		case StatusCompleted:
			return transcript, nil
		case StatusError:
			return transcript, fmt.Errorf("assemblyai: transcription failed: %s", transcript.Error)
		}

		select {
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Transcribe submits a transcription job and waits for the result.
func (c *Client) Transcribe(ctx context.Context, params TranscriptParams) (Transcript, error) {
	submitted, err := c.SubmitTranscript(ctx, params)
	if err != nil {
		return Transcript{}, err
	}
	c.logger.Debug().Str("transcript_id", submitted.ID).Msg("transcript submitted")
	return c.WaitForTranscript(ctx, submitted.ID)
}

// TranscribeFile uploads local audio, submits it for transcription with the
// given params (AudioURL is filled in from the upload), and waits for the
// result.
func (c *Client) TranscribeFile(ctx context.Context, audio io.Reader, params TranscriptParams) (Transcript, error) {
	uploadURL, err := c.Upload(ctx, audio)
	if err != nil {
		return Transcript{}, err
	}
	params.AudioURL = uploadURL
	return c.Transcribe(ctx, params)
}

// Upload stores an audio file with the service and returns a URL usable as
// TranscriptParams.AudioURL. The URL is only accessible to the uploading
// account.
func (c *Client) Upload(ctx context.Context, audio io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.BaseURL+"/v2/upload", audio)
	if err != nil {
		return "", fmt.Errorf("assemblyai: failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", c.settings.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest("upload", false)
		return "", fmt.Errorf("assemblyai: upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordAPIRequest("upload", false)
		return "", newAPIError(resp)
	}

	var body struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observability.RecordAPIRequest("upload", false)
		return "", fmt.Errorf("assemblyai: failed to decode upload response: %w", err)
	}

	observability.RecordAPIRequest("upload", true)
	return body.UploadURL, nil
}

// SubtitlesSRT exports a completed transcript as SRT subtitles.
// charsPerCaption is omitted when zero.
func (c *Client) SubtitlesSRT(ctx context.Context, transcriptID string, charsPerCaption int) (string, error) {
	return c.subtitles(ctx, transcriptID, "srt", charsPerCaption)
}

// SubtitlesVTT exports a completed transcript as VTT subtitles.
// charsPerCaption is omitted when zero.
func (c *Client) SubtitlesVTT(ctx context.Context, transcriptID string, charsPerCaption int) (string, error) {
	return c.subtitles(ctx, transcriptID, "vtt", charsPerCaption)
}

func (c *Client) subtitles(ctx context.Context, transcriptID, format string, charsPerCaption int) (string, error) {
	path := fmt.Sprintf("/v2/transcript/%s/%s", transcriptID, format)
	if charsPerCaption > 0 {
		path += "?chars_per_caption=" + strconv.Itoa(charsPerCaption)
	}

	body, err := c.doRaw(ctx, http.MethodGet, path, "export_subtitles")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// WordSearch searches a completed transcript for exact word matches.
func (c *Client) WordSearch(ctx context.Context, transcriptID string, words []string) (WordSearchResponse, error) {
	query := url.Values{}
	query.Set("words", strings.Join(words, ","))

	var result WordSearchResponse
	path := fmt.Sprintf("/v2/transcript/%s/word-search?%s", transcriptID, query.Encode())
	err := c.doJSON(ctx, http.MethodGet, path, nil, &result, "word_search")
	return result, err
}

// Sentences fetches the sentence-segmented view of a completed transcript.
func (c *Client) Sentences(ctx context.Context, transcriptID string) (SentencesResponse, error) {
	var result SentencesResponse
	err := c.doJSON(ctx, http.MethodGet, "/v2/transcript/"+transcriptID+"/sentences", nil, &result, "get_sentences")
	return result, err
}

// Paragraphs fetches the paragraph-segmented view of a completed transcript.
func (c *Client) Paragraphs(ctx context.Context, transcriptID string) (ParagraphsResponse, error) {
	var result ParagraphsResponse
	err := c.doJSON(ctx, http.MethodGet, "/v2/transcript/"+transcriptID+"/paragraphs", nil, &result, "get_paragraphs")
	return result, err
}

// RedactedAudio fetches the location of the PII-redacted audio for a
// transcript submitted with RedactPIIAudio enabled.
func (c *Client) RedactedAudio(ctx context.Context, transcriptID string) (RedactedAudioResponse, error) {
	var result RedactedAudioResponse
	err := c.doJSON(ctx, http.MethodGet, "/v2/transcript/"+transcriptID+"/redacted-audio", nil, &result, "get_redacted_audio")
	return result, err
}

// CreateRealtimeToken mints a short-lived credential for the v2 real-time
// service.
func (c *Client) CreateRealtimeToken(ctx context.Context, expiresInSeconds int) (string, error) {
	request := map[string]int{"expires_in": expiresInSeconds}

	var body struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/v2/realtime/token", request, &body, "create_realtime_token")
	if err != nil {
		return "", err
	}
	return body.Token, nil
}

// doJSON performs one JSON request/response round trip.
func (c *Client) doJSON(ctx context.Context, method, path string, request, response any, operation string) error {
	var reqBody io.Reader
	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("assemblyai: failed to encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.settings.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("assemblyai: failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", c.settings.APIKey)
	req.Header.Set("User-Agent", version.UserAgent())
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest(operation, false)
		return fmt.Errorf("assemblyai: %s failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.RecordAPIRequest(operation, false)
		return newAPIError(resp)
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			observability.RecordAPIRequest(operation, false)
			return fmt.Errorf("assemblyai: failed to decode %s response: %w", operation, err)
		}
	}

	observability.RecordAPIRequest(operation, true)
	return nil
}

// doRaw performs a request whose response body is returned verbatim
// (subtitle exports).
func (c *Client) doRaw(ctx context.Context, method, path, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.settings.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("assemblyai: failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", c.settings.APIKey)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest(operation, false)
		return nil, fmt.Errorf("assemblyai: %s failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordAPIRequest(operation, false)
		return nil, newAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordAPIRequest(operation, false)
		return nil, fmt.Errorf("assemblyai: failed to read %s response: %w", operation, err)
	}

	observability.RecordAPIRequest(operation, true)
	return body, nil
}

// newAPIError extracts the error field from a JSON error body, falling back
// to the raw response text.
func newAPIError(resp *http.Response) *APIError {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: parsed.Error}
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
