package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/speech"
)

// Click registers a click. The fifth click within three seconds counts as click spam.
func (e *Engine) Click(ctx context.Context, id ActorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped || !e.cfg.Enabled {
		return
	}

	now := e.clock.Now()
	recent := a.clicks[:0]
	for _, at := range a.clicks {
		if now.Sub(at) < clickWindow {
			recent = append(recent, at)
		}
	}
	a.clicks = append(recent, now)

	if len(a.clicks) >= clickSpamCount {
		a.clicks = nil
		e.triggerLocked(ctx, TriggerClickSpam, a)
		return
	}
	e.triggerLocked(ctx, TriggerClick, a)
}

// Pet strokes the pet.
func (e *Engine) Pet(ctx context.Context, id ActorID) {
	e.TriggerReaction(ctx, TriggerPetting, id)
}

// DragStart picks the pet up.
func (e *Engine) DragStart(ctx context.Context, id ActorID) {
	e.TriggerReaction(ctx, TriggerDragging, id)
}

// DragEnd puts the pet down and restores idle.
func (e *Engine) DragEnd(ctx context.Context, id ActorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped {
		return
	}
	if a.mood.Current() == emotion.MoodDragging {
		a.setMood(emotion.MoodIdle, true)
	}
	a.idle.Reset()
}

// Feed raises the pet's hunger meter and plays the feeding reaction.
func (e *Engine) Feed(ctx context.Context, id ActorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped || !e.cfg.Enabled {
		return
	}
	pet := e.pet(a)
	e.hungerLocked(a)
	pet.Hunger = min(pet.Hunger+feedAmount, settings.MaxHunger)
	pet.LastFed = e.clock.Now()
	e.persistLocked()
	e.triggerLocked(ctx, TriggerFeeding, a)
}

// Hunger returns the pet's current hunger meter, 100 being full.
func (e *Engine) Hunger(id ActorID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil {
		return 0
	}
	return e.hungerLocked(a)
}

// hungerLocked applies the decay accrued since the last update and returns the meter.
func (e *Engine) hungerLocked(a *actor) int {
	pet := e.pet(a)
	now := e.clock.Now()
	if pet.HungerUpdated.IsZero() {
		pet.HungerUpdated = now
		return pet.Hunger
	}
	interval := e.cfg.HungerDecayInterval.Std()
	if interval <= 0 {
		return pet.Hunger
	}
	steps := int(now.Sub(pet.HungerUpdated) / interval)
	if steps > 0 {
		pet.Hunger = max(pet.Hunger-steps, 0)
		pet.HungerUpdated = pet.HungerUpdated.Add(time.Duration(steps) * interval)
	}
	return pet.Hunger
}

func (e *Engine) onHungerTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || !e.cfg.Enabled {
		return
	}
	for _, a := range e.activeActors() {
		hunger := e.hungerLocked(a)
		if hunger > hungryHunger || a.busy || e.hostGenerating || a.mood.Current() != emotion.MoodIdle {
			continue
		}
		e.triggerLocked(e.ctx, TriggerHungry, a)
	}
	e.persistLocked()
}

// fallAsleepLocked shows the sleep effect and arms the one-shot dream timer.
func (e *Engine) fallAsleepLocked(a *actor) {
	a.sleepEffect = true
	e.renderer.Effect(a.id, EffectSleep)
	a.dreamTimer = clock.StopTimer(a.dreamTimer)
	a.dreamGen++
	gen := a.dreamGen
	a.dreamTimer = e.after("dream", dreamDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.attachedLocked(a) || a.dreamGen != gen {
			return
		}
		a.dreamTimer = nil
		if a.dreamed || a.mood.Current() != emotion.MoodSleeping {
			return
		}
		a.dreamed = true
		e.showStateSpeechLocked(a, speech.TypeDream)
	})
}

// RequestSpeechBubble shows text over the pet. A zero duration keeps a
// priority bubble up until DismissSpeech. It reports whether the bubble was shown.
func (e *Engine) RequestSpeechBubble(id ActorID, text string, duration time.Duration, priority bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped {
		return false
	}
	return e.bubbleLocked(a, text, duration, priority)
}

// DismissSpeech hides the pet's bubble and lifts priority blocking.
func (e *Engine) DismissSpeech(id ActorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil {
		return
	}
	a.priority = false
	a.priorityGen++
	a.priorityTimer = clock.StopTimer(a.priorityTimer)
	e.renderer.HideSpeech(id)
}

func (e *Engine) showStateSpeechLocked(a *actor, t speech.Type) {
	text := e.speech.Random(t, e.pet(a).CustomSpeech)
	e.bubbleLocked(a, text, e.cfg.BubbleDuration.Std(), false)
}

func (e *Engine) showFallbackLocked(a *actor, t speech.Type) {
	text := e.speech.Fallback(t, e.pet(a).FallbackMessages)
	e.bubbleLocked(a, text, e.cfg.BubbleDuration.Std(), true)
}

func (e *Engine) bubbleLocked(a *actor, text string, duration time.Duration, priority bool) bool {
	if text == "" {
		return false
	}
	if !priority && a.priority {
		slog.Debug("speech blocked by priority bubble", "actor", a.id)
		return false
	}
	if priority {
		a.priority = true
		a.priorityGen++
		a.priorityTimer = clock.StopTimer(a.priorityTimer)
		if duration > 0 {
			gen, id := a.priorityGen, a.id
			a.priorityTimer = e.after("priority bubble", duration, func() {
				e.mu.Lock()
				defer e.mu.Unlock()
				if a := e.actor(id); a != nil && a.priorityGen == gen {
					a.priority = false
					a.priorityTimer = nil
				}
			})
		}
	}
	e.renderer.ShowSpeech(a.id, text, duration, priority)
	return true
}
