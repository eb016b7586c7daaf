// Package client talks to the interview endpoint on behalf of a recorder.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/zhouzirui/mock-interview/backend/internal/service/encoder"
)

const interviewPath = "/api/interview"

// Reply mirrors the interview response body.
type Reply struct {
	Question  *string `json:"question"`
	Answer    string  `json:"answer"`
	AudioURL  string  `json:"audioUrl"`
	SessionID string  `json:"sessionId,omitempty"`
}

// SpeechText decodes the payload the client should speak.
func (r *Reply) SpeechText() (string, error) {
	return encoder.Decode(r.AudioURL)
}

// Error is a non-200 answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("interview request failed (%d): %s", e.Status, e.Message)
}

// Client uploads recordings to an interview server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Greet bootstraps the session and returns the greeting.
func (c *Client) Greet(ctx context.Context, sessionID string) (*Reply, error) {
	return c.post(ctx, map[string]string{
		"action":    "greeting",
		"sessionId": sessionID,
	}, nil, "")
}

// Ask uploads one recorded question.
func (c *Client) Ask(ctx context.Context, sessionID string, audio []byte, mimeType string) (*Reply, error) {
	return c.post(ctx, map[string]string{"sessionId": sessionID}, audio, mimeType)
}

func (c *Client) post(ctx context.Context, fields map[string]string, audio []byte, mimeType string) (*Reply, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if audio != nil {
		if mimeType == "" {
			mimeType = "audio/webm"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
		h.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create audio part: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return nil, fmt.Errorf("write audio part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+interviewPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, &failure); err != nil || failure.Error == "" {
			failure.Error = strings.TrimSpace(string(raw))
		}
		return nil, &Error{Status: resp.StatusCode, Message: failure.Error}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &reply, nil
}
