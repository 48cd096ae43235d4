package locator

import (
	"github.com/ugaemi/jetlagged-server/internal/ai"
	"github.com/ugaemi/jetlagged-server/internal/config"
)

// FromConfig builds the strategy chain: the language model when a key is
// configured, then reverse geocoding, then the synthetic fallback.
func FromConfig(cfg *config.Config, reverser Reverser, seed uint64) *Locator {
	opts := []Option{WithTimeout(cfg.LocatorTimeout)}
	if cfg.AIEnabled() {
		client := ai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		opts = append(opts, WithStrategy(NewAIStrategy(client, seed)))
	}
	if reverser != nil {
		opts = append(opts, WithStrategy(NewReverseStrategy(reverser, seed+1)))
	}
	return New(NewSynthetic(seed+2), opts...)
}
