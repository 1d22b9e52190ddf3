package transcribe

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/config"
)

func testAPIConfig(endpoint string) config.APIConfig {
	return config.APIConfig{
		Endpoint:       endpoint,
		Token:          "test-token",
		Model:          "whisper-1",
		TimeoutSeconds: 5,
		MaxRetries:     2,
		RetryBaseDelay: 0.01,
	}
}

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{SampleRate: 16000, Channels: 1}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTranscriber(t *testing.T, endpoint string) *CloudTranscriber {
	t.Helper()
	tr, err := NewCloudTranscriber(testAPIConfig(endpoint), testAudioConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewCloudTranscriber() error = %v", err)
	}
	tr.retrySleep = func(time.Duration) {}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestProcessSuccess(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		gotModel = r.FormValue("model")

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing audio file part: %v", err)
		} else {
			head := make([]byte, 4)
			if _, err := io.ReadFull(f, head); err != nil || string(head) != "RIFF" {
				t.Errorf("file part is not WAV, head=%q err=%v", head, err)
			}
			f.Close()
		}

		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	tr := newTestTranscriber(t, srv.URL)
	text, err := tr.Process([]float32{0, 0.1, -0.1, 0.2})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Process() = %q, want %q", text, "hello world")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model field = %q, want %q", gotModel, "whisper-1")
	}
}

func TestProcessRetriesOn500(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "eventually"})
	}))
	defer srv.Close()

	tr := newTestTranscriber(t, srv.URL)
	text, err := tr.Process([]float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text != "eventually" {
		t.Errorf("Process() = %q, want %q", text, "eventually")
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestProcessNoRetryOn400(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad audio format", http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := newTestTranscriber(t, srv.URL)
	_, err := tr.Process([]float32{0.1})
	if err == nil {
		t.Fatal("Process() should fail on 400")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q should mention status", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (client errors are not retried)", calls.Load())
	}
}

func TestProcessExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := newTestTranscriber(t, srv.URL)
	_, err := tr.Process([]float32{0.1})
	if err == nil {
		t.Fatal("Process() should fail after exhausting retries")
	}
	// initial attempt + MaxRetries
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestProcessEmptySamples(t *testing.T) {
	tr := newTestTranscriber(t, "http://127.0.0.1:0")
	text, err := tr.Process(nil)
	if err != nil {
		t.Fatalf("Process(nil) error = %v", err)
	}
	if text != "" {
		t.Errorf("Process(nil) = %q, want empty", text)
	}
}

func TestNewCloudTranscriberRequiresEndpoint(t *testing.T) {
	_, err := NewCloudTranscriber(config.APIConfig{}, testAudioConfig(), nil)
	if err == nil {
		t.Error("NewCloudTranscriber() should fail without an endpoint")
	}
}
