package engine

import (
	"context"
	"log/slog"
)

// Generation kinds the host reports that pets ignore.
const generationQuiet = "quiet"

// OnUserMessage bounces every pet when the user sends a message.
func (e *Engine) OnUserMessage(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || !e.cfg.Enabled {
		return
	}
	for _, a := range e.activeActors() {
		e.triggerLocked(ctx, TriggerUserMessage, a)
	}
}

// OnGenerationStart marks the host as generating. Quiet and dry-run generations are ignored.
func (e *Engine) OnGenerationStart(kind string, dryRun bool) {
	if dryRun || kind == generationQuiet {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hostGenerating = true
}

// OnGenerationEnd clears the host generating flag.
func (e *Engine) OnGenerationEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hostGenerating = false
}

// OnAIResponse lets a pet react to the host's new reply. If a pet is still
// generating, the reaction waits up to 15s and is dropped after that.
func (e *Engine) OnAIResponse(ctx context.Context, messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || !e.cfg.Enabled {
		return
	}
	if e.anyBusyLocked() {
		e.deferReactionLocked(messageID)
		return
	}
	e.dispatchAIResponseLocked(ctx)
}

// OnRoomChanged resets the reaction counter, drops a deferred reaction and re-arms idle timers.
func (e *Engine) OnRoomChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.reactionCount = 0
	e.cancelDeferredLocked()
	for _, a := range e.activeActors() {
		a.idle.Reset()
	}
	slog.Info("room changed", "room", e.host.RoomID())
}
