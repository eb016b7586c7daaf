package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	speechmodel "github.com/zhouzirui/mock-interview/backend/internal/model/speech"
)

const assemblyAIBaseURL = "https://api.assemblyai.com"

// AssemblyAIClient transcribes recordings with AssemblyAI's upload, create and poll REST flow.
type AssemblyAIClient struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewAssemblyAIClient creates a client from the speech config.
func NewAssemblyAIClient(cfg *speechmodel.SpeechConfig) *AssemblyAIClient {
	c := &AssemblyAIClient{
		baseURL:      assemblyAIBaseURL,
		pollInterval: time.Second,
		httpClient:   &http.Client{},
	}
	if cfg != nil {
		c.apiKey = strings.TrimSpace(cfg.AssemblyAIKey)
		if cfg.AssemblyAIBaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.AssemblyAIBaseURL, "/")
		}
		if cfg.PollInterval > 0 {
			c.pollInterval = cfg.PollInterval
		}
	}
	return c
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *AssemblyAIClient) WithHTTPClient(client *http.Client) *AssemblyAIClient {
	c.httpClient = client
	return c
}

type assemblyUploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type assemblyTranscriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type assemblyTranscript struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Text          string   `json:"text"`
	Error         string   `json:"error"`
	Confidence    float64  `json:"confidence"`
	AudioDuration *float64 `json:"audio_duration"`
}

// Transcribe uploads the audio, creates a transcript job and polls it until it completes or errors.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("assemblyai api key not configured")
	}
	if req == nil || len(req.Audio) == 0 {
		return nil, fmt.Errorf("no audio data to send")
	}

	uploadURL, err := c.upload(ctx, req.Audio)
	if err != nil {
		return nil, err
	}

	job, err := c.createTranscript(ctx, uploadURL, req.Language)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		switch job.Status {
		case string(speechmodel.StatusCompleted), string(speechmodel.StatusError):
			return c.convertTranscript(req.SessionID, job), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err = c.getTranscript(ctx, job.ID)
		if err != nil {
			return nil, err
		}
	}
}

func (c *AssemblyAIClient) upload(ctx context.Context, audio []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	var out assemblyUploadResponse
	if err := c.do(httpReq, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload audio: empty upload_url")
	}
	return out.UploadURL, nil
}

func (c *AssemblyAIClient) createTranscript(ctx context.Context, audioURL, language string) (*assemblyTranscript, error) {
	body, err := json.Marshal(assemblyTranscriptRequest{AudioURL: audioURL, LanguageCode: language})
	if err != nil {
		return nil, fmt.Errorf("encode transcript request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create transcript request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out assemblyTranscript
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("create transcript: empty id")
	}
	return &out, nil
}

func (c *AssemblyAIClient) getTranscript(ctx context.Context, id string) (*assemblyTranscript, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}

	var out assemblyTranscript
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("poll transcript %s: %w", id, err)
	}
	return &out, nil
}

func (c *AssemblyAIClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assemblyai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("assemblyai error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *AssemblyAIClient) convertTranscript(sessionID string, t *assemblyTranscript) *speechmodel.ASRResponse {
	resp := &speechmodel.ASRResponse{
		SessionID:  sessionID,
		Status:     speechmodel.Status(t.Status),
		Text:       t.Text,
		Error:      t.Error,
		Confidence: t.Confidence,
		RequestID:  t.ID,
		CreatedAt:  time.Now(),
	}
	if t.AudioDuration != nil {
		resp.Duration = int64(*t.AudioDuration * 1000)
	}
	return resp
}
