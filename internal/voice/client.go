// Package voice captures spoken input at the counter and turns it into
// customer names and order lines using Gemini.
package voice

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// Clients holds the Gemini handles shared by transcription and dictation parsing.
type Clients struct {
	GenAI     *genai.Client
	Chat      *gemini.ChatModel
	ModelName string
}

// NewClients creates the genai client and the eino chat model on top of it.
func NewClients(ctx context.Context, cfg model.VoiceConfig) (*Clients, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("voice input requires GEMINI_API_KEY")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating order chat model")
		return nil, fmt.Errorf("error creating order chat model: %w", err)
	}

	return &Clients{GenAI: client, Chat: chat, ModelName: cfg.Model}, nil
}
