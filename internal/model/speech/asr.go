package speech

import "time"

// Status is the terminal state a provider reports for one transcription job.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// ASRRequest 语音识别请求
type ASRRequest struct {
	SessionID string `json:"sessionId"`
	Audio     []byte `json:"-"`
	Format    string `json:"format"`   // webm, wav, mp3, ...
	Language  string `json:"language"` // en, zh-CN, ...
}

// ASRResponse 语音识别响应
type ASRResponse struct {
	SessionID  string    `json:"sessionId"`
	Status     Status    `json:"status"`
	Text       string    `json:"text"`
	Error      string    `json:"error,omitempty"`
	Confidence float64   `json:"confidence"`
	Duration   int64     `json:"duration"` // milliseconds
	RequestID  string    `json:"requestId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
