package server

import (
	"sync"

	"github.com/easeaico/project-pet/internal/types"
)

// maxHostMessages bounds the conversation history kept for prompts.
const maxHostMessages = 50

// HostContext is the host conversation state pushed by the host application.
type HostContext struct {
	RoomID        string                `json:"room_id"`
	Character     *types.CharacterSheet `json:"character,omitempty"`
	Persona       *types.Persona        `json:"persona,omitempty"`
	Messages      []types.Message       `json:"messages,omitempty"`
	WorldInfo     []types.WorldEntry    `json:"world_info,omitempty"`
	RoomWorldInfo []types.WorldEntry    `json:"room_world_info,omitempty"`
}

// HostState holds the latest host context. It implements engine.Host.
type HostState struct {
	mu  sync.RWMutex
	ctx HostContext
}

// NewHostState returns an empty host state.
func NewHostState() *HostState {
	return &HostState{}
}

// Replace swaps the whole context and reports whether the room changed.
func (h *HostState) Replace(ctx HostContext) bool {
	if len(ctx.Messages) > maxHostMessages {
		ctx.Messages = ctx.Messages[len(ctx.Messages)-maxHostMessages:]
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	changed := h.ctx.RoomID != ctx.RoomID
	h.ctx = ctx
	return changed
}

// SetRoom switches rooms, dropping room-scoped data. It reports whether the room changed.
func (h *HostState) SetRoom(roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.RoomID == roomID {
		return false
	}
	h.ctx.RoomID = roomID
	h.ctx.Messages = nil
	h.ctx.RoomWorldInfo = nil
	return true
}

// AppendMessage adds one message to the history.
func (h *HostState) AppendMessage(m types.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctx.Messages = append(h.ctx.Messages, m)
	if n := len(h.ctx.Messages); n > maxHostMessages {
		h.ctx.Messages = append([]types.Message(nil), h.ctx.Messages[n-maxHostMessages:]...)
	}
}

// Snapshot returns a copy of the current context.
func (h *HostState) Snapshot() HostContext {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := h.ctx
	out.Messages = append([]types.Message(nil), h.ctx.Messages...)
	out.WorldInfo = append([]types.WorldEntry(nil), h.ctx.WorldInfo...)
	out.RoomWorldInfo = append([]types.WorldEntry(nil), h.ctx.RoomWorldInfo...)
	return out
}

func (h *HostState) RoomID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx.RoomID
}

func (h *HostState) Character() *types.CharacterSheet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx.Character
}

func (h *HostState) Persona() *types.Persona {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx.Persona
}

func (h *HostState) RecentMessages() []types.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]types.Message(nil), h.ctx.Messages...)
}

func (h *HostState) WorldInfo() []types.WorldEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]types.WorldEntry(nil), h.ctx.WorldInfo...)
}

func (h *HostState) RoomWorldInfo() []types.WorldEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]types.WorldEntry(nil), h.ctx.RoomWorldInfo...)
}
