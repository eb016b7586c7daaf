package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	speechmodel "github.com/zhouzirui/mock-interview/backend/internal/model/speech"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Persona PersonaConfig
	AI      AIConfig
	Speech  speechmodel.SpeechConfig
	Session SessionConfig
	Tracing TracingConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	tracing, err := loadTracingConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Log:     loadLogConfig(),
		Persona: PersonaConfig{File: strings.TrimSpace(os.Getenv("PERSONA_FILE"))},
		AI:      ai,
		Speech:  speech,
		Session: session,
		Tracing: tracing,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 日志配置。
type LogConfig struct {
	Env      string
	Level    string
	FilePath string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Env:      getEnvOrDefault("APP_ENV", "development"),
		Level:    getEnvOrDefault("LOG_LEVEL", "info"),
		FilePath: strings.TrimSpace(os.Getenv("LOG_FILE_PATH")),
	}
}

// PersonaConfig 指向候选人设定文件，为空时使用内置默认值。
type PersonaConfig struct {
	File string
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	Timeout time.Duration
}

// Enabled 表示是否提供了 Ark 所需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建 Ark 模型实例，采样参数在每次调用时传入。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	})
}

func loadAIConfig() (AIConfig, error) {
	timeout, err := parseDurationEnv("GENERATION_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gemini"))
	if provider != "gemini" && provider != "ark" {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:     provider,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Timeout:      timeout,
	}, nil
}

func loadSpeechConfig() (speechmodel.SpeechConfig, error) {
	timeout, err := parseDurationEnv("TRANSCRIPTION_TIMEOUT", 30*time.Second)
	if err != nil {
		return speechmodel.SpeechConfig{}, err
	}

	pollInterval, err := parseDurationEnv("ASSEMBLYAI_POLL_INTERVAL", time.Second)
	if err != nil {
		return speechmodel.SpeechConfig{}, err
	}

	concurrent, err := parseBoolEnv("SPEECH_CONCURRENT_MODE", false)
	if err != nil {
		return speechmodel.SpeechConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("SPEECH_PROVIDER", speechmodel.ProviderAssemblyAI))
	if provider != speechmodel.ProviderAssemblyAI && provider != speechmodel.ProviderVolcengine {
		return speechmodel.SpeechConfig{}, fmt.Errorf("invalid SPEECH_PROVIDER value %q", provider)
	}

	return speechmodel.SpeechConfig{
		Provider:          provider,
		AssemblyAIKey:     strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY")),
		AssemblyAIBaseURL: getEnvOrDefault("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		PollInterval:      pollInterval,
		AppID:             strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken:       strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN")),
		ASRLanguage:       strings.TrimSpace(os.Getenv("SPEECH_ASR_LANGUAGE")),
		ConcurrentMode:    concurrent,
		Timeout:           timeout,
	}, nil
}

// SessionConfig 会话存储配置。
type SessionConfig struct {
	Store           string
	TTL             time.Duration
	CleanupInterval time.Duration
	RedisURL        string
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	cleanup, err := parseDurationEnv("SESSION_CLEANUP_INTERVAL", 10*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	store := strings.ToLower(getEnvOrDefault("SESSION_STORE", "memory"))
	switch store {
	case "memory", "cache", "redis":
	default:
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", store)
	}

	return SessionConfig{
		Store:           store,
		TTL:             ttl,
		CleanupInterval: cleanup,
		RedisURL:        getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
	}, nil
}

// TracingConfig OpenTelemetry 配置。
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func loadTracingConfig() (TracingConfig, error) {
	enabled, err := parseBoolEnv("OTEL_ENABLED", false)
	if err != nil {
		return TracingConfig{}, err
	}

	return TracingConfig{
		Enabled:     enabled,
		Endpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "interview-backend"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv 接受 Go 时长格式（"45s"）或整数秒。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := parseOptionalIntEnv(key); err == nil && seconds != nil {
		if *seconds < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(*seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
