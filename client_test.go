package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	settings := NewSettings("test-key")
	settings.BaseURL = srv.URL
	settings.PollingInterval = 10 * time.Millisecond
	return NewClientWithSettings(settings, nil)
}

func TestClient_SubmitTranscript(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/transcript" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Expected Authorization test-key, got %q", got)
		}

		var params TranscriptParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if params.AudioURL != "https://example.com/audio.mp3" {
			t.Errorf("Unexpected audio URL %q", params.AudioURL)
		}

		json.NewEncoder(w).Encode(Transcript{ID: "t-1", Status: StatusQueued})
	}))

	transcript, err := client.SubmitTranscript(context.Background(), TranscriptParams{
		AudioURL: "https://example.com/audio.mp3",
	})
	if err != nil {
		t.Fatalf("SubmitTranscript failed: %v", err)
	}
	if transcript.ID != "t-1" || transcript.Status != StatusQueued {
		t.Errorf("Unexpected transcript: %+v", transcript)
	}
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Authentication error, API token missing/invalid"})
	}))

	_, err := client.GetTranscript(context.Background(), "t-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "Authentication error") {
		t.Errorf("Unexpected message %q", apiErr.Message)
	}
}

func TestClient_Transcribe_PollsUntilCompleted(t *testing.T) {
	var polls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(Transcript{ID: "t-2", Status: StatusQueued})
			return
		}

		if atomic.AddInt32(&polls, 1) < 3 {
			json.NewEncoder(w).Encode(Transcript{ID: "t-2", Status: StatusProcessing})
			return
		}
		json.NewEncoder(w).Encode(Transcript{ID: "t-2", Status: StatusCompleted, Text: "done"})
	}))

	transcript, err := client.Transcribe(context.Background(), TranscriptParams{
		AudioURL: "https://example.com/audio.mp3",
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if transcript.Status != StatusCompleted || transcript.Text != "done" {
		t.Errorf("Unexpected transcript: %+v", transcript)
	}
	if atomic.LoadInt32(&polls) < 3 {
		t.Errorf("Expected at least 3 polls, got %d", polls)
	}
}

func TestClient_Transcribe_FailedJob(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(Transcript{ID: "t-3", Status: StatusQueued})
			return
		}
		json.NewEncoder(w).Encode(Transcript{ID: "t-3", Status: StatusError, Error: "File does not appear to contain audio"})
	}))

	transcript, err := client.Transcribe(context.Background(), TranscriptParams{
		AudioURL: "https://example.com/audio.mp3",
	})
	if err == nil {
		t.Fatal("Expected error for failed transcription")
	}
	if !strings.Contains(err.Error(), "does not appear to contain audio") {
		t.Errorf("Unexpected error: %v", err)
	}
	if transcript.Status != StatusError {
		t.Errorf("Expected transcript with error status, got %+v", transcript)
	}
}

func TestClient_WaitForTranscript_ContextCancelled(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Transcript{ID: "t-4", Status: StatusProcessing})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WaitForTranscript(ctx, "t-4")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestClient_Upload(t *testing.T) {
	audio := []byte("fake audio bytes")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/upload" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, audio) {
			t.Errorf("Upload body mismatch: %q", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example.com/upload/abc"})
	}))

	url, err := client.Upload(context.Background(), bytes.NewReader(audio))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "https://cdn.example.com/upload/abc" {
		t.Errorf("Unexpected upload URL %q", url)
	}
}

func TestClient_Subtitles(t *testing.T) {
	const srt = "1\n00:00:00,000 --> 00:00:01,000\nhello\n"
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/transcript/t-5/srt" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("chars_per_caption"); got != "32" {
			t.Errorf("Expected chars_per_caption=32, got %q", got)
		}
		io.WriteString(w, srt)
	}))

	got, err := client.SubtitlesSRT(context.Background(), "t-5", 32)
	if err != nil {
		t.Fatalf("SubtitlesSRT failed: %v", err)
	}
	if got != srt {
		t.Errorf("Unexpected subtitles %q", got)
	}
}

func TestClient_WordSearch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/word-search") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("words"); got != "foo,bar" {
			t.Errorf("Expected words=foo,bar, got %q", got)
		}
		json.NewEncoder(w).Encode(WordSearchResponse{
			TotalCount: 2,
			Matches: []WordSearchMatch{
				{Text: "foo", Count: 2, Timestamps: [][2]int{{100, 400}, {900, 1300}}},
			},
		})
	}))

	result, err := client.WordSearch(context.Background(), "t-6", []string{"foo", "bar"})
	if err != nil {
		t.Fatalf("WordSearch failed: %v", err)
	}
	if result.TotalCount != 2 || len(result.Matches) != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestClient_LemurTask(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lemur/v3/generate/task" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var params LemurTaskParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if params.Prompt != "Summarize the call" {
			t.Errorf("Unexpected prompt %q", params.Prompt)
		}
		json.NewEncoder(w).Encode(LemurResponse{RequestID: "lemur-1", Response: "A summary."})
	}))

	result, err := client.LemurTask(context.Background(), LemurTaskParams{
		LemurBaseParams: LemurBaseParams{TranscriptIDs: []string{"t-1"}},
		Prompt:          "Summarize the call",
	})
	if err != nil {
		t.Fatalf("LemurTask failed: %v", err)
	}
	if result.RequestID != "lemur-1" || result.Response != "A summary." {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestClient_LemurQuestion(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lemur/v3/generate/question-answer" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(LemurQuestionResponse{
			RequestID: "lemur-2",
			Response: []LemurQuestionAnswer{
				{Question: "Who spoke?", Answer: "Two people."},
			},
		})
	}))

	result, err := client.LemurQuestion(context.Background(), LemurQuestionParams{
		LemurBaseParams: LemurBaseParams{TranscriptIDs: []string{"t-1"}},
		Questions:       []LemurQuestion{{Question: "Who spoke?"}},
	})
	if err != nil {
		t.Fatalf("LemurQuestion failed: %v", err)
	}
	if len(result.Response) != 1 || result.Response[0].Answer != "Two people." {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestClient_LemurPurgeRequestData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/lemur/v3/lemur-1" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(LemurPurgeResponse{RequestID: "purge-1", RequestIDToPurge: "lemur-1", Deleted: true})
	}))

	result, err := client.LemurPurgeRequestData(context.Background(), "lemur-1")
	if err != nil {
		t.Fatalf("LemurPurgeRequestData failed: %v", err)
	}
	if !result.Deleted || result.RequestIDToPurge != "lemur-1" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestClient_CreateRealtimeToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/realtime/token" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		if body["expires_in"] != 120 {
			t.Errorf("Expected expires_in 120, got %d", body["expires_in"])
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "rt-token"})
	}))

	token, err := client.CreateRealtimeToken(context.Background(), 120)
	if err != nil {
		t.Fatalf("CreateRealtimeToken failed: %v", err)
	}
	if token != "rt-token" {
		t.Errorf("Expected rt-token, got %q", token)
	}
}
