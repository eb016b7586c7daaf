package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/mock-interview/backend/internal/model/speech"
)

const (
	volcengineASRURL = "wss://openspeech.bytedance.com/api/v3/sauc/bigmodel_nostream"

	// 16kHz, 16bit, mono, 200ms
	volcengineChunkSize = 6400
	volcengineSuccess   = 20000000
)

// VolcengineASRClient 火山引擎大模型流式识别客户端
type VolcengineASRClient struct {
	appID          string
	accessToken    string
	language       string
	concurrentMode bool
	url            string
	chunkInterval  time.Duration
	dialer         *websocket.Dialer
	logger         *zap.Logger
}

// NewVolcengineASRClient 创建火山引擎ASR客户端
func NewVolcengineASRClient(cfg *speechmodel.SpeechConfig, logger *zap.Logger) *VolcengineASRClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &VolcengineASRClient{
		url:           volcengineASRURL,
		chunkInterval: 200 * time.Millisecond,
		dialer:        &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		logger:        logger,
	}
	if cfg != nil {
		c.appID = strings.TrimSpace(cfg.AppID)
		c.accessToken = strings.TrimSpace(cfg.AccessToken)
		c.language = cfg.ASRLanguage
		c.concurrentMode = cfg.ConcurrentMode
	}
	return c
}

type volcengineRequest struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
		Codec    string `json:"codec,omitempty"`
		Rate     int    `json:"rate,omitempty"`
		Bits     int    `json:"bits,omitempty"`
		Channel  int    `json:"channel,omitempty"`
	} `json:"audio"`
	Request struct {
		ModelName      string `json:"model_name"`
		EnableITN      bool   `json:"enable_itn,omitempty"`
		EnablePunc     bool   `json:"enable_punc,omitempty"`
		ShowUtterances bool   `json:"show_utterances,omitempty"`
		ResultType     string `json:"result_type,omitempty"`
		EndWindowSize  int    `json:"end_window_size,omitempty"`
	} `json:"request"`
}

type volcengineUtterance struct {
	Text     string `json:"text"`
	Definite bool   `json:"definite"`
}

type volcengineServerMessage struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Result   struct {
		Text       string                `json:"text"`
		Utterances []volcengineUtterance `json:"utterances,omitempty"`
	} `json:"result"`
	AudioInfo struct {
		Duration int64 `json:"duration"`
	} `json:"audio_info"`
}

// Transcribe 发送完整录音并等待最终识别结果
func (c *VolcengineASRClient) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if c.appID == "" || c.accessToken == "" {
		return nil, fmt.Errorf("volcengine speech config missing app id or access token")
	}
	if req == nil || len(req.Audio) == 0 {
		return nil, fmt.Errorf("no audio data to send")
	}

	connectID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Api-App-Key", c.appID)
	header.Set("X-Api-Access-Key", c.accessToken)
	header.Set("X-Api-Resource-Id", c.resourceID())
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, fmt.Errorf("connect asr websocket: %w", err)
	}
	defer conn.Close()

	if resp != nil {
		c.logger.Debug("asr connected",
			zap.String("session", req.SessionID),
			zap.String("connect_id", connectID),
			zap.String("logid", resp.Header.Get("X-Tt-Logid")))
	}

	if err := c.sendFullRequest(conn, req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 服务端提前报错时需要及时停止发送
	type result struct {
		resp *speechmodel.ASRResponse
		err  error
	}
	recvCh := make(chan result, 1)
	go func() {
		r, err := c.receive(conn, req.SessionID, connectID)
		recvCh <- result{r, err}
	}()

	sendErrCh := make(chan error, 1)
	go func() {
		sendErrCh <- c.sendAudio(ctx, conn, req.Audio)
	}()

	for {
		select {
		case err := <-sendErrCh:
			if err != nil {
				return nil, fmt.Errorf("send audio: %w", err)
			}
			sendErrCh = nil
		case r := <-recvCh:
			return r.resp, r.err
		case <-ctx.Done():
			// 关闭连接以唤醒阻塞的读取
			_ = conn.Close()
			return nil, ctx.Err()
		}
	}
}

func (c *VolcengineASRClient) resourceID() string {
	if c.concurrentMode {
		return "volc.bigasr.sauc.concurrent"
	}
	return "volc.bigasr.sauc.duration"
}

func (c *VolcengineASRClient) buildRequest(req *speechmodel.ASRRequest) *volcengineRequest {
	out := &volcengineRequest{}
	out.User.UID = req.SessionID

	out.Audio.Format = volcengineFormat(req.Format)
	out.Audio.Language = req.Language
	if out.Audio.Language == "" {
		out.Audio.Language = c.language
	}
	out.Audio.Codec = "raw"
	if req.Format == "webm" || req.Format == "ogg" {
		out.Audio.Codec = "opus"
	}
	out.Audio.Rate = 16000
	out.Audio.Bits = 16
	out.Audio.Channel = 1

	out.Request.ModelName = "bigmodel"
	out.Request.EnableITN = true
	out.Request.EnablePunc = true
	out.Request.ShowUtterances = true
	out.Request.ResultType = "full"
	out.Request.EndWindowSize = 800
	return out
}

func volcengineFormat(format string) string {
	switch format {
	case "wav", "mp3", "ogg", "pcm":
		return format
	case "webm":
		return "ogg"
	default:
		return "wav"
	}
}

func (c *VolcengineASRClient) sendFullRequest(conn *websocket.Conn, req *speechmodel.ASRRequest) error {
	payload, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return fmt.Errorf("encode asr request: %w", err)
	}
	compressed, err := CompressPayload(payload, GzipCompression)
	if err != nil {
		return err
	}
	frame, err := EncodeMessage(CreateFullClientRequest(compressed, GzipCompression))
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("send asr request: %w", err)
	}
	return nil
}

// sendAudio 分包发送音频，模拟实时音频流
func (c *VolcengineASRClient) sendAudio(ctx context.Context, conn *websocket.Conn, audio []byte) error {
	// 序号1被full client request占用
	sequence := int32(2)

	for offset := 0; offset < len(audio); offset += volcengineChunkSize {
		end := min(offset+volcengineChunkSize, len(audio))
		isLast := end == len(audio)

		compressed, err := CompressPayload(audio[offset:end], GzipCompression)
		if err != nil {
			return err
		}
		frame, err := EncodeMessage(CreateAudioOnlyRequest(compressed, sequence, isLast, GzipCompression))
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("write audio chunk: %w", err)
		}
		sequence++

		if isLast {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.chunkInterval):
		}
	}
	return nil
}

func (c *VolcengineASRClient) receive(conn *websocket.Conn, sessionID, connectID string) (*speechmodel.ASRResponse, error) {
	var (
		text     string
		duration int64
	)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read asr response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			payload, _ := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			return &speechmodel.ASRResponse{
				SessionID: sessionID,
				Status:    speechmodel.StatusError,
				Error:     fmt.Sprintf("code %d: %s", msg.ErrorCode, payload),
				RequestID: connectID,
				CreatedAt: time.Now(),
			}, nil

		case FullServerResponse:
			payload, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, err
			}

			var server volcengineServerMessage
			if err := json.Unmarshal(payload, &server); err != nil {
				c.logger.Warn("asr response not json", zap.String("session", sessionID), zap.Error(err))
				continue
			}
			if server.Code != 0 && server.Code != volcengineSuccess {
				return nil, fmt.Errorf("asr api error %d: %s", server.Code, server.Message)
			}

			candidate := server.Result.Text
			if candidate == "" {
				candidate = joinUtterances(server.Result.Utterances)
			}
			if candidate != "" {
				text = candidate
			}
			if server.AudioInfo.Duration > 0 {
				duration = server.AudioInfo.Duration
			}

			if msg.IsLastPacket() || server.Sequence < 0 {
				return &speechmodel.ASRResponse{
					SessionID:  sessionID,
					Status:     speechmodel.StatusCompleted,
					Text:       text,
					Confidence: estimateConfidence(text),
					Duration:   duration,
					RequestID:  connectID,
					CreatedAt:  time.Now(),
				}, nil
			}
		}
	}
}

func joinUtterances(utterances []volcengineUtterance) string {
	parts := make([]string, 0, len(utterances))
	for _, u := range utterances {
		if u.Text != "" {
			parts = append(parts, u.Text)
		}
	}
	return strings.Join(parts, " ")
}

// 服务端不返回置信度
func estimateConfidence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return 0.95
}
