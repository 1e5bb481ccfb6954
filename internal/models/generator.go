package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/project-pet/internal/config"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/utils"
)

var (
	// ErrEmptyPrompt is returned when Generate is called without a prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrProfileNotFound is returned when the selected connection profile does not exist.
	ErrProfileNotFound = errors.New("connection profile not found")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// LLMGenerator is the default single-shot generator over an ADK model.
type LLMGenerator struct {
	llm     model.LLM
	timeout time.Duration
}

// NewLLMGenerator wraps llm. A positive timeout bounds every call.
func NewLLMGenerator(llm model.LLM, timeout time.Duration) *LLMGenerator {
	return &LLMGenerator{llm: llm, timeout: timeout}
}

func (g *LLMGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Config:   &genai.GenerateContentConfig{},
	}
	if maxTokens > 0 {
		req.Config.MaxOutputTokens = int32(maxTokens)
	}

	var sb strings.Builder
	for resp, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("failed to generate content with %s: %w", g.llm.Name(), err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		sb.WriteString(utils.ExtractContentText(resp.Content))
	}
	return strings.TrimSpace(sb.String()), nil
}

// ProfileGenerator generates with a named connection profile. It fails instead
// of falling back when the profile is missing.
type ProfileGenerator struct {
	Name     string
	Profiles map[string]Generator
}

func (g ProfileGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	gen, ok := g.Profiles[g.Name]
	if g.Name == "" || !ok || gen == nil {
		return "", fmt.Errorf("%w: %q", ErrProfileNotFound, g.Name)
	}
	out, err := gen.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate with profile %q: %w", g.Name, err)
	}
	return out, nil
}

// Router selects a generator from the persisted backend settings.
type Router struct {
	Default  Generator
	Profiles map[string]Generator
}

// Select returns the generator for backend. The profile backend always goes
// through ProfileGenerator so a bad profile name surfaces as an error.
func (r *Router) Select(backend settings.Backend, profile string) Generator {
	if backend == settings.BackendProfile {
		return ProfileGenerator{Name: profile, Profiles: r.Profiles}
	}
	if r.Default == nil {
		return failingGenerator{err: fmt.Errorf("default generator is not configured")}
	}
	return r.Default
}

// ProfileNames lists the configured profiles.
func (r *Router) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	return names
}

// failingGenerator reports a construction error at call time.
type failingGenerator struct {
	err error
}

func (g failingGenerator) Generate(context.Context, string, int) (string, error) {
	return "", g.err
}

// NewLLM builds the ADK model for provider.
func NewLLM(ctx context.Context, provider, modelName, apiKey string) (model.LLM, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey}
	switch provider {
	case config.ProviderGrok:
		return NewGrokModel(ctx, modelName, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIModel(ctx, modelName, cfg)
	case config.ProviderOpenRouter:
		return NewOpenRouterModel(ctx, modelName, cfg)
	case config.ProviderGemini:
		cfg.Backend = genai.BackendGeminiAPI
		return NewGeminiModel(ctx, modelName, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// NewRouter builds the default generator and every connection profile from cfg.
// A profile that cannot be built is kept as a generator that returns its error.
func NewRouter(ctx context.Context, cfg config.Config) (*Router, error) {
	llm, err := NewLLM(ctx, cfg.Provider, cfg.Model, cfg.APIKey(cfg.Provider))
	if err != nil {
		return nil, fmt.Errorf("failed to create default model: %w", err)
	}
	router := &Router{
		Default:  NewLLMGenerator(llm, cfg.RequestTimeout),
		Profiles: map[string]Generator{},
	}

	profiles, err := cfg.ParsedProfiles()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		llm, err := NewLLM(ctx, p.Provider, p.Model, cfg.APIKey(p.Provider))
		if err != nil {
			slog.Warn("connection profile unavailable", "profile", p.Name, "error", err.Error())
			router.Profiles[p.Name] = failingGenerator{err: fmt.Errorf("profile %q is misconfigured: %w", p.Name, err)}
			continue
		}
		router.Profiles[p.Name] = NewLLMGenerator(llm, cfg.RequestTimeout)
	}
	return router, nil
}
