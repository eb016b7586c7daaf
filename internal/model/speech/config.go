package speech

import "time"

// Provider names accepted by SPEECH_PROVIDER.
const (
	ProviderAssemblyAI = "assemblyai"
	ProviderVolcengine = "volcengine"
)

// SpeechConfig 语音识别配置
type SpeechConfig struct {
	Provider string `json:"provider"`

	// AssemblyAI 配置
	AssemblyAIKey     string        `json:"-"`
	AssemblyAIBaseURL string        `json:"assemblyaiBaseUrl"`
	PollInterval      time.Duration `json:"pollInterval"`

	// Volcengine 配置
	AppID          string `json:"appId"`
	AccessToken    string `json:"-"`
	ASRLanguage    string `json:"asrLanguage"`
	ConcurrentMode bool   `json:"concurrentMode"` // false 为小时版

	// 单次识别的超时时间
	Timeout time.Duration `json:"timeout"`
}
