// Package server exposes the pet engine over HTTP and streams renderer frames over websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/engine"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/types"
)

const shutdownTimeout = 10 * time.Second

// ProfileLister lists the configured connection profiles.
type ProfileLister interface {
	ProfileNames() []string
}

// Server is the HTTP boundary for the host, renderers and the log viewer.
type Server struct {
	engine   *engine.Engine
	host     *HostState
	hub      *Hub
	profiles ProfileLister
	router   *gin.Engine

	// spawn runs model-bound engine calls off the request goroutine.
	spawn func(func())
}

// New builds the router. profiles may be nil.
func New(e *engine.Engine, host *HostState, hub *Hub, profiles ProfileLister) *Server {
	s := &Server{
		engine:   e,
		host:     host,
		hub:      hub,
		profiles: profiles,
		spawn:    func(f func()) { go f() },
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ws", gin.WrapH(s.hub))
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "renderers": s.hub.Clients()})
	})

	events := r.Group("/api/events")
	events.POST("/user-message", s.handleUserMessage)
	events.POST("/generation-start", s.handleGenerationStart)
	events.POST("/generation-end", s.handleGenerationEnd)
	events.POST("/ai-response", s.handleAIResponse)
	events.POST("/room-changed", s.handleRoomChanged)

	host := r.Group("/api/host")
	host.GET("/context", s.handleGetContext)
	host.PUT("/context", s.handlePutContext)
	host.POST("/messages", s.handleAppendMessage)

	pets := r.Group("/api/pets")
	pets.GET("", s.handleListPets)
	pet := pets.Group("/:id", s.requirePet)
	pet.GET("", s.handleGetPet)
	pet.POST("/click", s.interaction(s.engine.Click))
	pet.POST("/pet", s.interaction(s.engine.Pet))
	pet.POST("/drag-start", s.interaction(s.engine.DragStart))
	pet.POST("/drag-end", s.interaction(s.engine.DragEnd))
	pet.POST("/feed", s.interaction(s.engine.Feed))
	pet.POST("/trigger", s.handleTrigger)
	pet.POST("/talk", s.handleTalk)
	pet.POST("/bubble", s.handleBubble)
	pet.DELETE("/bubble", s.handleDismiss)

	logs := r.Group("/api/logs")
	logs.GET("", s.handleListLogs)
	logs.DELETE("", s.handleClearLogs)
	logs.DELETE("/:family/:timestamp", s.handleDeleteLog)

	r.GET("/api/settings", s.handleGetSettings)
	r.PATCH("/api/settings", s.handlePatchSettings)
	r.GET("/api/profiles", s.handleListProfiles)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindOptional decodes a JSON body into v, accepting an empty body.
func bindOptional(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// background detaches a model-bound call from the request lifetime.
func (s *Server) background(c *gin.Context, f func(ctx context.Context)) {
	ctx := context.WithoutCancel(c.Request.Context())
	s.spawn(func() { f(ctx) })
}

func (s *Server) handleUserMessage(c *gin.Context) {
	var msg types.Message
	if !bindOptional(c, &msg) {
		return
	}
	if strings.TrimSpace(msg.Content) != "" {
		if msg.Role == "" {
			msg.Role = types.RoleUser
		}
		s.host.AppendMessage(msg)
	}
	s.engine.OnUserMessage(c.Request.Context())
	c.Status(http.StatusAccepted)
}

type generationStartRequest struct {
	Kind   string `json:"kind"`
	DryRun bool   `json:"dry_run"`
}

func (s *Server) handleGenerationStart(c *gin.Context) {
	var req generationStartRequest
	if !bindOptional(c, &req) {
		return
	}
	s.engine.OnGenerationStart(req.Kind, req.DryRun)
	c.Status(http.StatusAccepted)
}

func (s *Server) handleGenerationEnd(c *gin.Context) {
	s.engine.OnGenerationEnd()
	c.Status(http.StatusAccepted)
}

type aiResponseRequest struct {
	MessageID string        `json:"message_id"`
	Message   types.Message `json:"message"`
}

func (s *Server) handleAIResponse(c *gin.Context) {
	var req aiResponseRequest
	if !bindOptional(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message.Content) != "" {
		if req.Message.Role == "" {
			req.Message.Role = types.RoleAssistant
		}
		s.host.AppendMessage(req.Message)
	}
	s.background(c, func(ctx context.Context) {
		s.engine.OnAIResponse(ctx, req.MessageID)
	})
	c.Status(http.StatusAccepted)
}

type roomChangedRequest struct {
	RoomID string `json:"room_id"`
}

func (s *Server) handleRoomChanged(c *gin.Context) {
	var req roomChangedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	s.host.SetRoom(req.RoomID)
	s.engine.OnRoomChanged()
	c.Status(http.StatusAccepted)
}

func (s *Server) handleGetContext(c *gin.Context) {
	c.JSON(http.StatusOK, s.host.Snapshot())
}

func (s *Server) handlePutContext(c *gin.Context) {
	var req HostContext
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if s.host.Replace(req) {
		s.engine.OnRoomChanged()
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAppendMessage(c *gin.Context) {
	var msg types.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		respondError(c, http.StatusBadRequest, "message content is required")
		return
	}
	s.host.AppendMessage(msg)
	c.Status(http.StatusNoContent)
}

type petView struct {
	ID     engine.ActorID `json:"id"`
	Name   string         `json:"name"`
	Mood   emotion.Mood   `json:"mood"`
	Busy   bool           `json:"busy"`
	Hunger int            `json:"hunger"`
}

func (s *Server) petView(id engine.ActorID) petView {
	cfg := s.engine.Settings()
	v := petView{
		ID:     id,
		Mood:   s.engine.CurrentMood(id),
		Busy:   s.engine.Busy(id),
		Hunger: s.engine.Hunger(id),
	}
	if p := cfg.Pet(string(id)); p != nil {
		v.Name = p.Name
	}
	return v
}

func (s *Server) handleListPets(c *gin.Context) {
	var out []petView
	for _, id := range s.engine.Actors() {
		out = append(out, s.petView(id))
	}
	c.JSON(http.StatusOK, gin.H{"pets": out})
}

const petKey = "pet"

// requirePet resolves :id to an existing pet.
func (s *Server) requirePet(c *gin.Context) {
	id := engine.ActorID(c.Param("id"))
	for _, known := range s.engine.Actors() {
		if known == id {
			c.Set(petKey, id)
			c.Next()
			return
		}
	}
	respondError(c, http.StatusNotFound, fmt.Sprintf("pet %q not found", id))
}

func petID(c *gin.Context) engine.ActorID {
	return c.MustGet(petKey).(engine.ActorID)
}

func (s *Server) handleGetPet(c *gin.Context) {
	c.JSON(http.StatusOK, s.petView(petID(c)))
}

func (s *Server) interaction(f func(context.Context, engine.ActorID)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := petID(c)
		f(c.Request.Context(), id)
		c.JSON(http.StatusOK, s.petView(id))
	}
}

type triggerRequest struct {
	Trigger engine.Trigger `json:"trigger" binding:"required"`
}

func (s *Server) handleTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	id := petID(c)
	s.background(c, func(ctx context.Context) {
		s.engine.TriggerReaction(ctx, req.Trigger, id)
	})
	c.Status(http.StatusAccepted)
}

type talkRequest struct {
	Text string `json:"text" binding:"required"`
	Dual bool   `json:"dual"`
}

func (s *Server) handleTalk(c *gin.Context) {
	var req talkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	id := petID(c)
	if s.engine.Busy(id) {
		respondError(c, http.StatusConflict, "pet is busy")
		return
	}
	s.background(c, func(ctx context.Context) {
		if !s.engine.TalkToPet(ctx, id, req.Text, req.Dual) {
			slog.Debug("talk rejected", "actor", id)
		}
	})
	c.Status(http.StatusAccepted)
}

type bubbleRequest struct {
	Text       string `json:"text" binding:"required"`
	DurationMS int64  `json:"duration_ms"`
	Priority   bool   `json:"priority"`
}

func (s *Server) handleBubble(c *gin.Context) {
	var req bubbleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	shown := s.engine.RequestSpeechBubble(petID(c), req.Text, time.Duration(req.DurationMS)*time.Millisecond, req.Priority)
	c.JSON(http.StatusOK, gin.H{"shown": shown})
}

func (s *Server) handleDismiss(c *gin.Context) {
	s.engine.DismissSpeech(petID(c))
	c.Status(http.StatusNoContent)
}

func parseFamily(raw string) (chatlog.Family, bool) {
	if raw == "" {
		return "", true
	}
	for _, f := range chatlog.Families {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}

func (s *Server) handleListLogs(c *gin.Context) {
	family, ok := parseFamily(c.Query("family"))
	if !ok {
		respondError(c, http.StatusBadRequest, "unknown log family")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries := s.engine.Logs(chatlog.Filter{Family: family, Key: c.Query("key"), Limit: limit})
	if c.Query("format") == "text" {
		c.JSON(http.StatusOK, gin.H{"lines": chatlog.FormatAll(entries)})
		return
	}
	if entries == nil {
		entries = []chatlog.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleClearLogs(c *gin.Context) {
	family, ok := parseFamily(c.Query("family"))
	if !ok {
		respondError(c, http.StatusBadRequest, "unknown log family")
		return
	}
	removed := s.engine.ClearLogs(family, c.Query("key"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleDeleteLog(c *gin.Context) {
	family, ok := parseFamily(c.Param("family"))
	if !ok || family == "" {
		respondError(c, http.StatusBadRequest, "unknown log family")
		return
	}
	ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "timestamp must be an integer")
		return
	}
	if !s.engine.DeleteLog(ts, family) {
		respondError(c, http.StatusNotFound, "log entry not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	cfg := s.engine.Settings()
	cfg.Logs = chatlog.Data{}
	c.JSON(http.StatusOK, cfg)
}

// handlePatchSettings merges the JSON body over the current settings. Logs are
// managed through the log endpoints and cannot be patched.
func (s *Server) handlePatchSettings(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid settings: %v", err))
		return
	}
	delete(fields, "logs")
	if body, err = json.Marshal(fields); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	candidate := s.engine.Settings()
	if err := json.Unmarshal(body, &candidate); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid settings: %v", err))
		return
	}
	if candidate.Version > settings.CurrentVersion {
		respondError(c, http.StatusBadRequest, settings.ErrUnsupportedVersion.Error())
		return
	}

	updated := s.engine.UpdateSettings(func(cfg *settings.Settings) {
		if err := json.Unmarshal(body, cfg); err != nil {
			slog.Error("failed to apply settings patch", "error", err.Error())
		}
		cfg.Version = settings.CurrentVersion
	})
	updated.Logs = chatlog.Data{}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleListProfiles(c *gin.Context) {
	names := []string{}
	if s.profiles != nil {
		names = append(names, s.profiles.ProfileNames()...)
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names})
}
