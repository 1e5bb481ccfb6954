package models

import (
	"context"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterModel creates a model routed through OpenRouter. modelName is
// the OpenRouter model id, such as "anthropic/claude-3.5-haiku".
func NewOpenRouterModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newCompatModel("openrouter/"+modelName, modelName, cfg, openRouterBaseURL, "openrouter-go")
}
