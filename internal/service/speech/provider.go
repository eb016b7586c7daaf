package speech

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/mock-interview/backend/internal/model/speech"
)

// NewTranscriber builds the provider named by cfg.Provider.
func NewTranscriber(cfg *speechmodel.SpeechConfig, logger *zap.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("speech config not initialised")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", speechmodel.ProviderAssemblyAI:
		return NewAssemblyAIClient(cfg), nil
	case speechmodel.ProviderVolcengine:
		return NewVolcengineASRClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}
