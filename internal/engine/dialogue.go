package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/prompt"
	"github.com/easeaico/project-pet/internal/speech"
	"github.com/easeaico/project-pet/internal/utils"
)

var errNoBackend = errors.New("no generation backend configured")

// ShowAIReaction has the pet comment on the host's latest reply.
func (e *Engine) ShowAIReaction(ctx context.Context, id ActorID) {
	e.TriggerReaction(ctx, TriggerAIResponse, id)
}

// reactLocked runs the reaction pipeline for a. Only every Nth host reply
// (reaction_interval) reaches the model; the others keep the scripted mood.
func (e *Engine) reactLocked(ctx context.Context, a *actor) {
	e.reactionCount++
	if e.reactionCount%e.cfg.ReactionInterval != 0 {
		e.complementLocked(a, emotion.MoodHappy)
		return
	}

	in := e.promptInputLocked(a)
	p, err := e.prompts.Reaction(in)
	if err != nil {
		slog.Error("failed to build reaction prompt", "actor", a.id, "error", err.Error())
		return
	}

	a.busy = true
	raw, err := e.generateUnlocked(ctx, p)
	a.busy = false
	if !e.attachedLocked(a) {
		return
	}
	if err != nil {
		slog.Warn("reaction generation failed", "actor", a.id, "error", err.Error())
		a.setMood(emotion.MoodIdle, true)
		e.showFallbackLocked(a, speech.TypeAPIError)
		return
	}

	parsed := utils.ParseResponse(raw)
	if parsed.Text == "" {
		slog.Debug("empty reaction, nothing to show", "actor", a.id)
		return
	}
	name := e.pet(a).Name
	if _, err := e.logs.AppendReaction(e.roomKey(), name, string(TriggerAIResponse), parsed.Text, string(parsed.Mood)); err != nil {
		slog.Error("failed to log reaction", "actor", a.id, "error", err.Error())
	}
	e.showLineLocked(a, parsed)
	e.complementLocked(a, parsed.Mood)
}

// reactDualLocked has both pets comment on the host's reply from one model
// call. a speaks first and b follows after the stagger.
func (e *Engine) reactDualLocked(ctx context.Context, a, b *actor) {
	for _, x := range []*actor{a, b} {
		x.idle.Reset()
		e.wakeLocked(x)
	}
	if a.busy || b.busy {
		slog.Debug("skip dual reaction, a pet is busy")
		return
	}
	a.setMood(emotion.MoodHappy, false)
	e.reactionCount++
	if e.reactionCount%e.cfg.ReactionInterval != 0 {
		e.complementLocked(a, emotion.MoodHappy)
		return
	}
	b.setMood(emotion.MoodHappy, false)

	p, err := e.prompts.Reaction(e.promptInputLocked(a, b))
	if err != nil {
		slog.Error("failed to build dual reaction prompt", "error", err.Error())
		return
	}

	a.busy, b.busy = true, true
	raw, err := e.generateUnlocked(ctx, p)
	if !e.attachedLocked(a, b) {
		e.releaseLocked(a, b)
		return
	}
	if err != nil {
		slog.Warn("dual reaction generation failed", "error", err.Error())
		e.releaseLocked(a, b)
		a.setMood(emotion.MoodIdle, true)
		e.showFallbackLocked(a, speech.TypeAPIError)
		return
	}

	nameA, nameB := e.pet(a).Name, e.pet(b).Name
	lineA, lineB := utils.ParseDualResponse(raw, nameA, nameB)
	if lineA.Text == "" && lineB.Text == "" {
		slog.Debug("empty dual reaction, nothing to show")
		e.releaseLocked(a, b)
		return
	}
	room := e.roomKey()
	for _, l := range []struct {
		name string
		line utils.Parsed
	}{{nameA, lineA}, {nameB, lineB}} {
		if l.line.Text == "" {
			continue
		}
		if _, err := e.logs.AppendReaction(room, l.name, string(TriggerAIResponse), l.line.Text, string(l.line.Mood)); err != nil {
			slog.Error("failed to log reaction", "pet", l.name, "error", err.Error())
		}
	}

	a.busy = false
	if lineA.Text != "" {
		e.showLineLocked(a, lineA)
	}
	e.staggerLocked(b, lineB)
}

// TalkToPet sends the user's words to the pet. With dual set and two pets,
// both answer from one model call; the second answer follows after 5s.
// It reports whether the request was accepted.
func (e *Engine) TalkToPet(ctx context.Context, id ActorID, userText string, dual bool) bool {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil || e.stopped || !e.cfg.Enabled {
		return false
	}
	other := e.other(a)
	if dual && other != nil {
		if a.busy || other.busy {
			return false
		}
		e.talkDualLocked(ctx, a, other, userText)
		return true
	}
	if a.busy {
		return false
	}
	e.talkSingleLocked(ctx, a, userText)
	return true
}

func (e *Engine) talkSingleLocked(ctx context.Context, a *actor, userText string) {
	a.idle.Reset()
	e.wakeLocked(a)

	in := e.promptInputLocked(a)
	in.UserText = userText
	p, err := e.prompts.DirectTalk(in)
	if err != nil {
		slog.Error("failed to build talk prompt", "actor", a.id, "error", err.Error())
		return
	}

	a.busy = true
	a.setMood(emotion.MoodThinking, true)
	raw, err := e.generateUnlocked(ctx, p)
	a.busy = false
	if !e.attachedLocked(a) {
		return
	}
	if err != nil {
		slog.Warn("talk generation failed", "actor", a.id, "error", err.Error())
		a.setMood(emotion.MoodIdle, true)
		e.showFallbackLocked(a, speech.TypeAPIError)
		return
	}

	parsed := utils.ParseResponse(raw)
	if parsed.Text == "" {
		a.setMood(emotion.MoodIdle, true)
		e.showFallbackLocked(a, speech.TypeNoResponse)
		return
	}
	name := e.pet(a).Name
	if _, err := e.logs.AppendDirect(name, userText, parsed.Text, string(parsed.Mood)); err != nil {
		slog.Error("failed to log talk", "actor", a.id, "error", err.Error())
	}
	e.showLineLocked(a, parsed)
}

func (e *Engine) talkDualLocked(ctx context.Context, a, b *actor, userText string) {
	for _, x := range []*actor{a, b} {
		x.idle.Reset()
		e.wakeLocked(x)
	}

	in := e.promptInputLocked(a, b)
	in.UserText = userText
	p, err := e.prompts.DirectTalk(in)
	if err != nil {
		slog.Error("failed to build dual talk prompt", "error", err.Error())
		return
	}

	a.busy, b.busy = true, true
	a.setMood(emotion.MoodThinking, true)
	b.setMood(emotion.MoodThinking, true)
	raw, err := e.generateUnlocked(ctx, p)
	if !e.attachedLocked(a, b) {
		e.releaseLocked(a, b)
		return
	}
	if err != nil {
		slog.Warn("dual talk generation failed", "error", err.Error())
		e.releaseLocked(a, b)
		e.showFallbackLocked(a, speech.TypeAPIError)
		return
	}

	nameA, nameB := e.pet(a).Name, e.pet(b).Name
	lineA, lineB := utils.ParseDualResponse(raw, nameA, nameB)
	if lineA.Text == "" && lineB.Text == "" {
		e.releaseLocked(a, b)
		e.showFallbackLocked(a, speech.TypeNoResponse)
		return
	}
	for _, l := range []struct {
		speaker string
		line    utils.Parsed
	}{{nameA, lineA}, {nameB, lineB}} {
		if l.line.Text == "" {
			continue
		}
		if _, err := e.logs.AppendDirectDual(nameA, nameB, l.speaker, userText, l.line.Text, string(l.line.Mood)); err != nil {
			slog.Error("failed to log dual talk", "speaker", l.speaker, "error", err.Error())
		}
	}

	a.busy = false
	if lineA.Text == "" {
		a.setMood(emotion.MoodIdle, true)
	} else {
		e.showLineLocked(a, lineA)
	}
	e.staggerLocked(b, lineB)
}

// chatterLocked has the two pets talk to each other.
func (e *Engine) chatterLocked(ctx context.Context) {
	a, b := e.actors[0], e.actors[1]
	if b == nil {
		return
	}
	if a.busy || b.busy || e.hostGenerating {
		slog.Debug("skip chatter, pets or host busy")
		return
	}
	if a.mood.Current() == emotion.MoodSleeping || b.mood.Current() == emotion.MoodSleeping {
		slog.Debug("skip chatter, a pet is asleep")
		return
	}

	if e.rng.IntN(2) == 1 {
		a, b = b, a
	}
	p, err := e.prompts.Chatter(e.promptInputLocked(a, b))
	if err != nil {
		slog.Error("failed to build chatter prompt", "error", err.Error())
		return
	}

	a.busy, b.busy = true, true
	raw, err := e.generateUnlocked(ctx, p)
	if !e.attachedLocked(a, b) {
		a.busy, b.busy = false, false
		return
	}
	if err != nil {
		slog.Warn("chatter generation failed", "error", err.Error())
		a.busy, b.busy = false, false
		return
	}

	nameA, nameB := e.pet(a).Name, e.pet(b).Name
	lineA, lineB := utils.ParseDualResponse(raw, nameA, nameB)
	if lineA.Text == "" {
		slog.Debug("empty chatter, nothing to show")
		a.busy, b.busy = false, false
		return
	}
	if _, err := e.logs.AppendInterPet(nameA, lineA.Text, string(lineA.Mood), nameB, lineB.Text); err != nil {
		slog.Error("failed to log chatter", "error", err.Error())
	}
	a.busy = false
	e.showLineLocked(a, lineA)
	e.staggerLocked(b, lineB)
}

func (e *Engine) onChatterTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || !e.cfg.Enabled || e.actors[1] == nil {
		return
	}
	e.chatterLocked(e.ctx)
}

// staggerLocked keeps b busy and shows its line after the turn-taking delay.
func (e *Engine) staggerLocked(b *actor, line utils.Parsed) {
	b.stagger = e.after("stagger", staggerDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.actor(b.id) != b {
			return
		}
		b.stagger = nil
		b.busy = false
		if e.stopped {
			return
		}
		if line.Text == "" {
			if b.mood.Current() == emotion.MoodThinking {
				b.setMood(emotion.MoodIdle, true)
			}
			return
		}
		e.showLineLocked(b, line)
	})
}

// releaseLocked clears busy flags and any thinking mood on every given pet.
// Pets removed in the meantime only lose their flags.
func (e *Engine) releaseLocked(actors ...*actor) {
	for _, x := range actors {
		x.busy = false
		x.stagger = clock.StopTimer(x.stagger)
		if e.actor(x.id) == x && x.mood.Current() == emotion.MoodThinking {
			x.setMood(emotion.MoodIdle, true)
		}
	}
}

func (e *Engine) showLineLocked(a *actor, line utils.Parsed) {
	mood := line.Mood
	if mood == "" {
		mood = emotion.MoodHappy
	}
	a.mood.Set(mood, max(e.cfg.BubbleDuration.Std(), transientMood))
	e.bubbleLocked(a, line.Text, e.cfg.BubbleDuration.Std(), true)
}

// generateUnlocked releases e.mu across the model call.
func (e *Engine) generateUnlocked(ctx context.Context, p string) (string, error) {
	if e.backends == nil {
		return "", errNoBackend
	}
	gen := e.backends.Select(e.cfg.Backend, e.cfg.ConnectionProfile)
	if gen == nil {
		return "", errNoBackend
	}
	maxTokens := e.cfg.MaxTokens

	e.mu.Unlock()
	defer e.mu.Lock()
	out, err := gen.Generate(ctx, p, maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate: %w", err)
	}
	return out, nil
}

// promptInputLocked snapshots the host context and logs for the given pets.
func (e *Engine) promptInputLocked(pets ...*actor) prompt.Input {
	in := prompt.Input{
		Mode:         e.cfg.PromptMode,
		Character:    e.host.Character(),
		Persona:      e.host.Persona(),
		History:      e.host.RecentMessages(),
		HistoryCount: e.cfg.HistoryCount,
	}
	if e.cfg.WorldInfoEnabled {
		in.WorldInfo = prompt.MergeWorldInfo(e.host.WorldInfo(), e.host.RoomWorldInfo())
	}
	var names []string
	for _, a := range pets {
		pet := e.pet(a)
		names = append(names, pet.Name)
		in.Pets = append(in.Pets, prompt.Pet{
			Name:          pet.Name,
			Personality:   pet.Personality,
			RelationLabel: pet.RelationLabel,
			Mood:          a.mood.Current(),
			Hungry:        e.hungerLocked(a) <= hungryHunger,
		})
	}
	in.Logs = e.logs.Recent(names, e.roomKey(), logContextEntries)
	return in
}

// roomKey is the reaction log key for the current room.
func (e *Engine) roomKey() string {
	if id := strings.TrimSpace(e.host.RoomID()); id != "" {
		return id
	}
	return "default"
}

// Logs returns log entries matching f, oldest first.
func (e *Engine) Logs(f chatlog.Filter) []chatlog.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logs.Query(f)
}

// ClearLogs removes logs in family (all families if empty), limited to key when set.
func (e *Engine) ClearLogs(family chatlog.Family, key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logs.Clear(family, key)
}

// DeleteLog removes one entry by timestamp.
func (e *Engine) DeleteLog(timestamp int64, family chatlog.Family) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logs.DeleteOne(timestamp, family)
}
