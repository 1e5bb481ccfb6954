package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/engine"
	"github.com/easeaico/project-pet/internal/models"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/types"
)

type replyGenerator struct {
	reply   string
	prompts []string
}

func (g *replyGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

type fixedBackends struct {
	gen models.Generator
}

func (b fixedBackends) Select(settings.Backend, string) models.Generator {
	return b.gen
}

func newTestServer(t *testing.T, gen models.Generator) (*Server, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var e *engine.Engine
	hub := NewHub(func() map[engine.ActorID]emotion.Mood {
		moods := map[engine.ActorID]emotion.Mood{}
		for _, id := range e.Actors() {
			moods[id] = e.CurrentMood(id)
		}
		return moods
	})
	host := NewHostState()
	e = engine.New(engine.Options{
		Settings: settings.Defaults(),
		Clock:    clock.NewFake(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)),
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Host:     host,
		Renderer: hub,
		Backends: fixedBackends{gen: gen},
	})
	t.Cleanup(e.Stop)
	t.Cleanup(hub.Close)

	s := New(e, host, hub, nil)
	s.spawn = func(f func()) { f() }
	return s, e
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestClickReturnsPetView(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/pets/primary/click", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	var view petView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Mood != emotion.MoodHappy || view.Name != "Mochi" || view.Hunger != settings.MaxHunger {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestUnknownPetIsNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	if rec := do(t, s, http.MethodPost, "/api/pets/secondary/click", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing secondary pet, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/pets/nobody", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTalkWritesDirectLog(t *testing.T) {
	gen := &replyGenerator{reply: "I'm right here! [MOOD:happy]"}
	s, _ := newTestServer(t, gen)

	rec := do(t, s, http.MethodPost, "/api/pets/primary/talk", talkRequest{Text: "are you there?"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "are you there?") {
		t.Fatalf("prompt did not carry the user text: %v", gen.prompts)
	}

	rec = do(t, s, http.MethodGet, "/api/logs?family=direct", nil)
	var got struct {
		Entries []chatlog.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].PetResponse != "I'm right here!" {
		t.Fatalf("unexpected entries %+v", got.Entries)
	}
}

func TestTalkRequiresText(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rec := do(t, s, http.MethodPost, "/api/pets/primary/talk", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogEndpoints(t *testing.T) {
	gen := &replyGenerator{reply: "hello [MOOD:shy]"}
	s, _ := newTestServer(t, gen)
	do(t, s, http.MethodPost, "/api/pets/primary/talk", talkRequest{Text: "one"})
	do(t, s, http.MethodPost, "/api/pets/primary/talk", talkRequest{Text: "two"})

	rec := do(t, s, http.MethodGet, "/api/logs?format=text", nil)
	var text struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &text); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(text.Lines) != 2 || text.Lines[0] != "[talk] user: one / Mochi: hello" {
		t.Fatalf("unexpected lines %v", text.Lines)
	}

	rec = do(t, s, http.MethodGet, "/api/logs?limit=1", nil)
	var list struct {
		Entries []chatlog.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Entries) != 1 || list.Entries[0].UserText != "two" {
		t.Fatalf("limit should keep the newest entry, got %+v", list.Entries)
	}

	path := fmt.Sprintf("/api/logs/direct/%d", list.Entries[0].Timestamp)
	if rec := do(t, s, http.MethodDelete, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: unexpected status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: unexpected status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/logs/bogus/1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad family: unexpected status %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/logs?family=direct", nil)
	var cleared struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", cleared.Removed)
	}
}

func TestPatchSettingsKeepsLogs(t *testing.T) {
	gen := &replyGenerator{reply: "hi [MOOD:happy]"}
	s, e := newTestServer(t, gen)
	do(t, s, http.MethodPost, "/api/pets/primary/talk", talkRequest{Text: "hey"})

	patch := map[string]any{
		"multi_pet":    true,
		"idle_timeout": "2m",
		"pets":         map[string]any{"secondary": map[string]any{"name": "Kong"}},
		"logs":         map[string]any{"direct_logs": map[string]any{}},
	}
	rec := do(t, s, http.MethodPatch, "/api/settings", patch)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	cfg := e.Settings()
	if !cfg.MultiPet || cfg.IdleTimeout.Std() != 2*time.Minute || cfg.Pets.Secondary.Name != "Kong" {
		t.Fatalf("patch not applied: %+v", cfg)
	}
	if cfg.Pets.Primary.Name != "Mochi" {
		t.Fatalf("untouched field changed: %q", cfg.Pets.Primary.Name)
	}
	if len(e.Logs(chatlog.Filter{})) != 1 {
		t.Fatalf("logs were replaced by a settings patch")
	}
	if rec := do(t, s, http.MethodGet, "/api/pets", nil); !strings.Contains(rec.Body.String(), "Kong") {
		t.Fatalf("secondary pet missing: %s", rec.Body)
	}

	if rec := do(t, s, http.MethodPatch, "/api/settings", map[string]any{"version": 99}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected newer version to be rejected, got %d", rec.Code)
	}
}

func TestHostContextAndRoomChange(t *testing.T) {
	gen := &replyGenerator{reply: "what a twist [MOOD:surprised]"}
	s, e := newTestServer(t, gen)

	ctx := HostContext{
		RoomID:    "room-1",
		Character: &types.CharacterSheet{Name: "Aria", Personality: "stoic knight"},
		Messages:  []types.Message{{Role: types.RoleUser, Content: "Draw your sword."}},
	}
	if rec := do(t, s, http.MethodPut, "/api/host/context", ctx); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	rec := do(t, s, http.MethodPost, "/api/events/ai-response", aiResponseRequest{
		MessageID: "m1",
		Message:   types.Message{Name: "Aria", Content: "The blade sings."},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "The blade sings.") {
		t.Fatalf("reaction prompt missing latest message: %v", gen.prompts)
	}
	logs := e.Logs(chatlog.Filter{Family: chatlog.FamilyReaction})
	if len(logs) != 1 || logs[0].Key != "room-1" {
		t.Fatalf("unexpected reaction logs %+v", logs)
	}

	do(t, s, http.MethodPost, "/api/events/room-changed", roomChangedRequest{RoomID: "room-2"})
	if got := s.host.Snapshot(); got.RoomID != "room-2" || len(got.Messages) != 0 {
		t.Fatalf("room change not applied: %+v", got)
	}
}

func TestHostStateCapsMessages(t *testing.T) {
	h := NewHostState()
	for i := 0; i < maxHostMessages+10; i++ {
		h.AppendMessage(types.Message{Role: types.RoleUser, Content: fmt.Sprint(i)})
	}
	msgs := h.RecentMessages()
	if len(msgs) != maxHostMessages || msgs[0].Content != "10" {
		t.Fatalf("unexpected window: len=%d first=%s", len(msgs), msgs[0].Content)
	}
}

func TestWebsocketStreamsFrames(t *testing.T) {
	s, _ := newTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Frame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != FrameHello || hello.Moods[engine.Primary] != emotion.MoodIdle {
		t.Fatalf("unexpected hello %+v", hello)
	}

	resp, err := http.Post(srv.URL+"/api/pets/primary/pet", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	seen := map[string]bool{}
	for !seen[FrameSpeech] || !seen[FrameEffect] {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v (seen %v)", err, seen)
		}
		if f.Actor != engine.Primary {
			t.Fatalf("frame for wrong actor: %+v", f)
		}
		if f.Type == FrameMood && f.Mood != emotion.MoodShy {
			t.Fatalf("unexpected mood %s", f.Mood)
		}
		if f.Type == FrameEffect && f.Effect != engine.EffectHearts {
			t.Fatalf("unexpected effect %s", f.Effect)
		}
		seen[f.Type] = true
	}
}
