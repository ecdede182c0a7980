package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

func newWSServer(t *testing.T, script func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(conn, r)
	}))
	t.Cleanup(srv.Close)

	return srv.URL
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Errorf("marshal failed: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Errorf("write failed: %v", err)
	}
}

func TestNewTranscriber_Validation(t *testing.T) {
	cb := Callbacks{
		OnData:  func(Transcript) {},
		OnError: func(error) {},
	}

	if _, err := NewTranscriber(Options{APIKey: "key", SampleRate: 16000}, Callbacks{OnError: cb.OnError}); err == nil {
		t.Error("Expected error for missing OnData")
	}
	if _, err := NewTranscriber(Options{APIKey: "key", SampleRate: 16000}, Callbacks{OnData: cb.OnData}); err == nil {
		t.Error("Expected error for missing OnError")
	}
	if _, err := NewTranscriber(Options{APIKey: "key"}, cb); err == nil {
		t.Error("Expected error for missing sample rate")
	}
	if _, err := NewTranscriber(Options{APIKey: "key", SampleRate: 16000}, cb); err != nil {
		t.Errorf("Expected valid transcriber, got %v", err)
	}
}

func TestTranscriber_Session(t *testing.T) {
	baseURL := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		if got := r.URL.Query().Get("sample_rate"); got != "16000" {
			t.Errorf("Expected sample_rate=16000, got %q", got)
		}
		if got := r.URL.Query().Get("word_boost"); got != `["aws","azure"]` {
			t.Errorf("Expected word_boost JSON array, got %q", got)
		}

		writeJSON(t, conn, map[string]any{
			"message_type": "SessionBegins",
			"session_id":   "rt-1",
			"expires_at":   time.Now().Add(time.Hour).Format(time.RFC3339),
		})

		// Audio arrives base64-enveloped in JSON text frames.
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Errorf("bad client frame: %v", err)
				return
			}
			if msg["terminate_session"] == true {
				break
			}
			encoded, ok := msg["audio_data"].(string)
			if !ok {
				t.Errorf("Expected audio_data field, got %v", msg)
				return
			}
			if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
				t.Errorf("audio_data is not valid base64: %v", err)
				return
			}
		}

		writeJSON(t, conn, map[string]any{
			"message_type": "PartialTranscript",
			"text":         "hel",
		})
		writeJSON(t, conn, map[string]any{
			"message_type": "FinalTranscript",
			"text":         "hello.",
			"punctuated":   true,
		})
		writeJSON(t, conn, map[string]any{"message_type": "SessionTerminated"})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	var mu sync.Mutex
	var opened []SessionOpened
	var transcripts []Transcript
	var errs []error
	closed := make(chan struct{})

	transcriber, err := NewTranscriber(Options{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		SampleRate: 16000,
		WordBoost:  []string{"aws", "azure"},
	}, Callbacks{
		OnOpen: func(s SessionOpened) {
			mu.Lock()
			opened = append(opened, s)
			mu.Unlock()
		},
		OnData: func(tr Transcript) {
			mu.Lock()
			transcripts = append(transcripts, tr)
			mu.Unlock()
		},
		OnError: func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
		OnClose: func() { close(closed) },
	})
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}

	if err := transcriber.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	transcriber.Stream([]byte{1, 2, 3, 4})
	transcriber.Close()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()

	if len(errs) != 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}
	if len(opened) != 1 || opened[0].SessionID != "rt-1" {
		t.Errorf("Unexpected session open: %+v", opened)
	}
	if len(transcripts) != 2 {
		t.Fatalf("Expected 2 transcripts, got %d", len(transcripts))
	}
	if transcripts[0].IsFinal() {
		t.Error("Expected first transcript to be partial")
	}
	if !transcripts[1].IsFinal() || transcripts[1].Text != "hello." {
		t.Errorf("Unexpected final transcript: %+v", transcripts[1])
	}
}

func TestTranscriber_CloseCodeMapped(t *testing.T) {
	baseURL := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4031, ""))
	})

	errCh := make(chan error, 1)
	transcriber, err := NewTranscriber(Options{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		SampleRate: 16000,
	}, Callbacks{
		OnData:  func(Transcript) {},
		OnError: func(err error) { errCh <- err },
	})
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}

	if err := transcriber.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case err := <-errCh:
		rtErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("Expected *Error, got %T", err)
		}
		if rtErr.Code != 4031 || rtErr.Message != "Session idle for too long" {
			t.Errorf("Unexpected error: %+v", rtErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnError was not invoked")
	}

	transcriber.Close()
}

func TestTranscriber_RemoteErrorNonFatal(t *testing.T) {
	baseURL := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		writeJSON(t, conn, map[string]any{"error": "transient problem"})
		writeJSON(t, conn, map[string]any{
			"message_type": "PartialTranscript",
			"text":         "still here",
		})
		conn.ReadMessage()
	})

	errCh := make(chan error, 1)
	dataCh := make(chan Transcript, 1)
	transcriber, err := NewTranscriber(Options{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		SampleRate: 16000,
	}, Callbacks{
		OnData:  func(tr Transcript) { dataCh <- tr },
		OnError: func(err error) { errCh <- err },
	})
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}

	if err := transcriber.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case err := <-errCh:
		if !strings.Contains(err.Error(), "transient problem") {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnError was not invoked")
	}

	// The session survives a remote-reported error.
	select {
	case tr := <-dataCh:
		if tr.Text != "still here" {
			t.Errorf("Unexpected transcript: %+v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnData was not invoked after remote error")
	}

	transcriber.Close()
}

func TestTranscriber_ConnectFailureCallbackReentrancy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusNotFound)
	}))
	defer srv.Close()

	var transcriber *Transcriber
	reentered := make(chan struct{})
	transcriber, err := NewTranscriber(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		SampleRate: 16000,
	}, Callbacks{
		OnData: func(Transcript) {},
		OnError: func(error) {
			// OnError may react by tearing the session down; this must not
			// deadlock on the transcriber's internal state.
			transcriber.Close()
			close(reentered)
		},
	})
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := transcriber.Connect(context.Background()); err != nil {
			t.Errorf("Connect should not return network errors, got %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Connect deadlocked invoking a reentrant OnError callback")
	}

	select {
	case <-reentered:
	case <-time.After(2 * time.Second):
		t.Fatal("OnError callback did not complete")
	}
}

func TestTranscriber_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusNotFound)
	}))
	defer srv.Close()

	errCh := make(chan error, 1)
	transcriber, err := NewTranscriber(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		SampleRate: 16000,
	}, Callbacks{
		OnData:  func(Transcript) {},
		OnError: func(err error) { errCh <- err },
	})
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}

	if err := transcriber.Connect(context.Background()); err != nil {
		t.Fatalf("Connect should not return network errors, got %v", err)
	}

	select {
	case err := <-errCh:
		if !strings.Contains(err.Error(), "could not connect") {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnError was not invoked")
	}
}
