package engine

import (
	"context"
	"log/slog"

	"github.com/easeaico/project-pet/internal/callback"
	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/scheduler"
	"github.com/easeaico/project-pet/internal/speech"
)

// reaction is the fixed mood and speech for a scripted trigger.
type reaction struct {
	mood   emotion.Mood
	speech speech.Type
}

var scripted = map[Trigger]reaction{
	TriggerIdle:        {emotion.MoodIdle, speech.TypeIdle},
	TriggerSleeping:    {emotion.MoodSleeping, speech.TypeSleeping},
	TriggerClick:       {emotion.MoodHappy, speech.TypeClick},
	TriggerClickSpam:   {emotion.MoodAngry, speech.TypeClickSpam},
	TriggerPetting:     {emotion.MoodShy, speech.TypePetting},
	TriggerGreeting:    {emotion.MoodHappy, speech.TypeGreeting},
	TriggerLateNight:   {emotion.MoodIdle, speech.TypeLateNight},
	TriggerMorning:     {emotion.MoodSleeping, speech.TypeMorning},
	TriggerLongAbsence: {emotion.MoodSurprised, speech.TypeLongAbsence},
	TriggerFeeding:     {emotion.MoodHappy, speech.TypeFeeding},
	TriggerHungry:      {emotion.MoodSad, speech.TypeHungry},
}

// hungerGated lists the triggers a starving pet may ignore.
var hungerGated = map[Trigger]bool{
	TriggerClick:     true,
	TriggerPetting:   true,
	TriggerClickSpam: true,
}

// TriggerReaction makes the pet react to t. It never fails; problems degrade
// to fallback moods and lines.
func (e *Engine) TriggerReaction(ctx context.Context, t Trigger, id ActorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped || !e.cfg.Enabled {
		return
	}
	e.triggerLocked(ctx, t, a)
}

// triggerLocked runs the dispatcher with e.mu held. The aiResponse and
// interPet paths release the lock while the model runs.
func (e *Engine) triggerLocked(ctx context.Context, t Trigger, a *actor) {
	if IsUserInteraction(t) {
		a.idle.Reset()
	}
	if t != TriggerIdle && t != TriggerSleeping {
		e.wakeLocked(a)
	}

	switch t {
	case TriggerAIResponse:
		if a.busy {
			slog.Debug("skip reaction, pet is busy", "actor", a.id)
			return
		}
		a.setMood(emotion.MoodHappy, false)
		e.reactLocked(ctx, a)
		return
	case TriggerInterPet:
		e.chatterLocked(ctx)
		return
	case TriggerUserMessage:
		e.renderer.Effect(a.id, EffectBounce)
		return
	}

	if a.busy {
		slog.Debug("skip scripted reaction, pet is busy", "actor", a.id, "trigger", t)
		return
	}

	hunger := e.hungerLocked(a)
	if hunger <= starvingHunger && hungerGated[t] && e.rng.IntN(2) == 0 {
		slog.Debug("pet too hungry to react", "actor", a.id, "trigger", t, "hunger", hunger)
		a.setMood(emotion.MoodSad, false)
		e.showStateSpeechLocked(a, speech.TypeHungry)
		return
	}

	if t == TriggerDragging {
		a.setMood(emotion.MoodDragging, true)
		e.showStateSpeechLocked(a, speech.TypeDragging)
		return
	}

	r, ok := scripted[t]
	if !ok {
		slog.Warn("unknown trigger", "actor", a.id, "trigger", t)
		r = scripted[TriggerIdle]
	}
	if hunger > starvingHunger && hunger <= hungryHunger && r.speech == speech.TypeIdle {
		r = scripted[TriggerHungry]
	}

	// Idle and sleep hold until something else happens; a hungry override of idle is transient.
	sticky := r.mood == emotion.MoodIdle || t == TriggerSleeping
	a.setMood(r.mood, sticky)

	switch t {
	case TriggerPetting:
		e.renderer.Effect(a.id, EffectHearts)
	case TriggerSleeping:
		e.fallAsleepLocked(a)
	}
	e.showStateSpeechLocked(a, r.speech)
}

// wakeLocked clears sleep visuals and cancels a pending dream.
func (e *Engine) wakeLocked(a *actor) {
	if a.sleepEffect {
		a.sleepEffect = false
		e.renderer.Effect(a.id, EffectWake)
	}
	a.dreamGen++
	a.dreamTimer = clock.StopTimer(a.dreamTimer)
	a.dreamed = false
}

func (e *Engine) onIdleEvent(a *actor, ev scheduler.Event) {
	defer callback.Recover("idle timer")
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.attachedLocked(a) || !e.cfg.Enabled {
		return
	}
	if a.busy || e.hostGenerating {
		slog.Debug("suppress idle timer", "actor", a.id, "event", ev, "busy", a.busy, "host_generating", e.hostGenerating)
		return
	}
	t := TriggerIdle
	if ev == scheduler.EventSleep {
		t = TriggerSleeping
	}
	e.triggerLocked(e.ctx, t, a)
}
