package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/samarquis/ScottWisper-sub011/internal/audio"
	"github.com/samarquis/ScottWisper-sub011/internal/config"
)

// CloudTranscriber uploads WAV audio to an HTTP speech-to-text
// endpoint (OpenAI-compatible multipart form) with exponential-backoff
// retries on transient failures.
type CloudTranscriber struct {
	cfg        config.APIConfig
	audioCfg   config.AudioConfig
	client     *http.Client
	logger     *slog.Logger
	retrySleep func(time.Duration) // overridable in tests
}

var _ Transcriber = (*CloudTranscriber)(nil)

// NewCloudTranscriber creates a transcriber for the configured
// endpoint. logger may be nil.
func NewCloudTranscriber(cfg config.APIConfig, audioCfg config.AudioConfig, logger *slog.Logger) (*CloudTranscriber, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("transcribe: api endpoint not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:    4,
		IdleConnTimeout: 90 * time.Second,
	}
	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("transcribe: configuring http2: %w", err)
		}
	}

	return &CloudTranscriber{
		cfg:      cfg,
		audioCfg: audioCfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout(),
		},
		logger:     logger,
		retrySleep: time.Sleep,
	}, nil
}

// Close releases pooled connections.
func (t *CloudTranscriber) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// Process encodes samples as WAV and uploads them, retrying transient
// failures with exponential backoff.
func (t *CloudTranscriber) Process(samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	payload, err := audio.EncodeWAV(samples, t.audioCfg.SampleRate, t.audioCfg.Channels)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := t.backoff(attempt)
			t.logger.Warn("transcription upload retrying", "attempt", attempt, "delay", delay, "error", lastErr)
			t.retrySleep(delay)
		}

		text, retryable, err := t.upload(payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", fmt.Errorf("transcribe: upload failed: %w", lastErr)
}

// upload performs one multipart POST. retryable is true for network
// errors and 5xx/429 responses.
func (t *CloudTranscriber) upload(payload []byte) (text string, retryable bool, err error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", false, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", false, fmt.Errorf("writing form file: %w", err)
	}
	if t.cfg.Model != "" {
		if err := mw.WriteField("model", t.cfg.Model); err != nil {
			return "", false, fmt.Errorf("writing model field: %w", err)
		}
	}
	if t.cfg.Language != "" {
		if err := mw.WriteField("language", t.cfg.Language); err != nil {
			return "", false, fmt.Errorf("writing language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", false, fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.cfg.Endpoint, body)
	if err != nil {
		return "", false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if t.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("posting audio: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retry, fmt.Errorf("endpoint returned %s: %s", resp.Status, truncate(data, 200))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("parsing response: %w", err)
	}
	return parsed.Text, false, nil
}

// backoff returns the delay before the given retry attempt (1-based).
func (t *CloudTranscriber) backoff(attempt int) time.Duration {
	base := t.cfg.RetryBaseDelay
	if base <= 0 {
		base = 0.5
	}
	return time.Duration(base * math.Pow(2, float64(attempt-1)) * float64(time.Second))
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
