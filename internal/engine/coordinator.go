package engine

import (
	"context"
	"log/slog"

	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
)

func (e *Engine) anyBusyLocked() bool {
	for _, a := range e.activeActors() {
		if a.busy {
			return true
		}
	}
	return false
}

// deferReactionLocked polls every 2s until no pet is busy, then dispatches.
// A newer reply while one is pending shares the pending poll.
func (e *Engine) deferReactionLocked(messageID string) {
	if e.deferred != nil {
		slog.Debug("reaction already deferred", "message_id", messageID)
		return
	}
	e.deferGen++
	e.deferDeadline = e.clock.Now().Add(pollCeiling)
	slog.Debug("defer reaction until pets are free", "message_id", messageID)
	e.armDeferredLocked(messageID, e.deferGen)
}

// cancelDeferredLocked drops a pending reaction, including a poll already
// waiting for e.mu.
func (e *Engine) cancelDeferredLocked() {
	e.deferGen++
	e.deferred = clock.StopTimer(e.deferred)
}

func (e *Engine) armDeferredLocked(messageID string, gen uint64) {
	e.deferred = e.after("deferred reaction", pollInterval, func() { e.pollDeferred(messageID, gen) })
}

func (e *Engine) pollDeferred(messageID string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.deferGen {
		slog.Debug("stale deferred reaction", "message_id", messageID)
		return
	}
	e.deferred = nil
	if e.stopped || !e.cfg.Enabled {
		return
	}
	if !e.anyBusyLocked() {
		e.dispatchAIResponseLocked(e.ctx)
		return
	}
	if e.clock.Now().Add(pollInterval).After(e.deferDeadline) {
		slog.Warn("dropped deferred reaction, pets stayed busy", "message_id", messageID)
		return
	}
	e.armDeferredLocked(messageID, gen)
}

// dispatchAIResponseLocked picks the responding pet and runs the aiResponse
// trigger. With dual_reaction on and two pets, both answer from one call.
func (e *Engine) dispatchAIResponseLocked(ctx context.Context) {
	responder, second := e.actors[0], e.actors[1]
	if second != nil && e.rng.IntN(2) == 1 {
		responder, second = second, responder
	}
	if second != nil && e.cfg.DualReaction {
		e.reactDualLocked(ctx, responder, second)
		return
	}
	e.triggerLocked(ctx, TriggerAIResponse, responder)
}

// attachedLocked reports whether every given pet still exists and the engine is running.
func (e *Engine) attachedLocked(actors ...*actor) bool {
	if e.stopped {
		return false
	}
	for _, a := range actors {
		if e.actor(a.id) != a {
			return false
		}
	}
	return true
}

// complementLocked gives the non-responding pet a mood that fits the responder's.
func (e *Engine) complementLocked(responder *actor, mood emotion.Mood) {
	other := e.other(responder)
	if other == nil || other.busy {
		return
	}
	if m, ok := emotion.Complement(mood, e.rng); ok {
		other.setMood(m, false)
	}
}
