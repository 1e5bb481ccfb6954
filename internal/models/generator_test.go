package models

import (
	"context"
	"errors"
	"iter"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/project-pet/internal/settings"
)

type fakeLLM struct {
	parts   []string
	err     error
	lastReq *model.LLMRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	f.lastReq = req
	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		for _, p := range f.parts {
			resp := &model.LLMResponse{Content: genai.NewContentFromText(p, genai.RoleModel)}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestLLMGeneratorJoinsParts(t *testing.T) {
	llm := &fakeLLM{parts: []string{"안녕", "! [MOOD:happy] "}}
	out, err := NewLLMGenerator(llm, 0).Generate(context.Background(), "hi", 200)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "안녕! [MOOD:happy]" {
		t.Fatalf("unexpected output %q", out)
	}
	if llm.lastReq.Config.MaxOutputTokens != 200 {
		t.Fatalf("max tokens not forwarded: %d", llm.lastReq.Config.MaxOutputTokens)
	}
}

func TestLLMGeneratorErrors(t *testing.T) {
	gen := NewLLMGenerator(&fakeLLM{err: errors.New("boom")}, 0)
	if _, err := gen.Generate(context.Background(), "hi", 10); err == nil {
		t.Fatalf("expected backend error")
	}
	if _, err := gen.Generate(context.Background(), "  ", 10); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestRouterProfileDoesNotFallBack(t *testing.T) {
	def := &fakeGenerator{out: "default"}
	router := &Router{Default: def, Profiles: map[string]Generator{"smart": &fakeGenerator{out: "smart"}}}

	out, err := router.Select(settings.BackendProfile, "smart").Generate(context.Background(), "p", 10)
	if err != nil || out != "smart" {
		t.Fatalf("expected profile output, got %q (%v)", out, err)
	}

	_, err = router.Select(settings.BackendProfile, "missing").Generate(context.Background(), "p", 10)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if def.calls != 0 {
		t.Fatalf("profile failure fell back to default generator")
	}

	out, err = router.Select(settings.BackendDefault, "smart").Generate(context.Background(), "p", 10)
	if err != nil || out != "default" {
		t.Fatalf("expected default output, got %q (%v)", out, err)
	}
}

func TestProfileGeneratorWrapsErrors(t *testing.T) {
	inner := errors.New("rate limited")
	gen := ProfileGenerator{Name: "p", Profiles: map[string]Generator{"p": &fakeGenerator{err: inner}}}
	if _, err := gen.Generate(context.Background(), "x", 1); !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewLLMUnknownProvider(t *testing.T) {
	if _, err := NewLLM(context.Background(), "nope", "m", "k"); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := NewLLM(context.Background(), "grok", "grok-4-fast", ""); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestBuildOpenAIParams(t *testing.T) {
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hello", genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			MaxOutputTokens:   50,
			SystemInstruction: genai.NewContentFromText("be a pet", genai.RoleUser),
		},
	}
	params := buildOpenAIParams(req, "grok-4-fast")
	if params.Model != "grok-4-fast" {
		t.Fatalf("unexpected model %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil || params.Messages[1].OfUser == nil {
		t.Fatalf("unexpected message roles")
	}
	if params.MaxTokens.Value != 50 {
		t.Fatalf("max tokens not set")
	}
}
