// Package engine drives the pets: it routes host events and interactions to
// moods, scripted speech and model-generated dialogue.
package engine

import (
	"time"

	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/models"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/types"
)

// ActorID identifies a pet.
type ActorID string

const (
	Primary   ActorID = settings.PetPrimary
	Secondary ActorID = settings.PetSecondary
)

// Trigger is an event a pet reacts to.
type Trigger string

const (
	TriggerUserMessage Trigger = "userMessage"
	TriggerAIResponse  Trigger = "aiResponse"
	TriggerIdle        Trigger = "idle"
	TriggerSleeping    Trigger = "sleeping"
	TriggerDragging    Trigger = "dragging"
	TriggerClick       Trigger = "click"
	TriggerClickSpam   Trigger = "clickSpam"
	TriggerPetting     Trigger = "petting"
	TriggerGreeting    Trigger = "greeting"
	TriggerLateNight   Trigger = "latenight"
	TriggerMorning     Trigger = "morning"
	TriggerLongAbsence Trigger = "longAbsence"
	TriggerFeeding     Trigger = "feeding"
	TriggerHungry      Trigger = "hungry"
	TriggerInterPet    Trigger = "interPet"
)

// userInteraction lists the triggers that restart a pet's idle and sleep timers.
var userInteraction = map[Trigger]bool{
	TriggerClick:       true,
	TriggerClickSpam:   true,
	TriggerPetting:     true,
	TriggerDragging:    true,
	TriggerFeeding:     true,
	TriggerAIResponse:  true,
	TriggerUserMessage: true,
	TriggerGreeting:    true,
	TriggerLongAbsence: true,
}

// IsUserInteraction reports whether t resets the idle and sleep timers.
func IsUserInteraction(t Trigger) bool {
	return userInteraction[t]
}

// Visual effects requested from the renderer.
const (
	EffectBounce = "bounce"
	EffectHearts = "hearts"
	EffectSleep  = "sleep"
	EffectWake   = "wake"
)

const (
	transientMood     = 2000 * time.Millisecond
	pollInterval      = 2000 * time.Millisecond
	pollCeiling       = 15000 * time.Millisecond
	staggerDelay      = 5000 * time.Millisecond
	dreamDelay        = 60 * time.Second
	clickWindow       = 3 * time.Second
	clickSpamCount    = 5
	starvingHunger    = 10
	hungryHunger      = 30
	feedAmount        = 30
	longAbsenceAfter  = 24 * time.Hour
	logContextEntries = 10
	persistTimeout    = 5 * time.Second
)

// Host provides the host conversation's data. Calls happen with the engine
// locked, so implementations must not call back into the engine.
type Host interface {
	RoomID() string
	Character() *types.CharacterSheet
	Persona() *types.Persona
	RecentMessages() []types.Message
	WorldInfo() []types.WorldEntry
	RoomWorldInfo() []types.WorldEntry
}

// Renderer displays the pets. Most calls happen with the engine locked, but
// mood reverts arrive from timer goroutines, so implementations must be safe
// for concurrent use and must not call back into the engine.
type Renderer interface {
	ShowSpeech(id ActorID, text string, duration time.Duration, priority bool)
	HideSpeech(id ActorID)
	MoodChanged(id ActorID, mood emotion.Mood)
	Effect(id ActorID, effect string)
	LogsChanged()
}

// Backends picks the generator for the configured backend.
type Backends interface {
	Select(backend settings.Backend, profile string) models.Generator
}

type nopRenderer struct{}

func (nopRenderer) ShowSpeech(ActorID, string, time.Duration, bool) {}
func (nopRenderer) HideSpeech(ActorID)                              {}
func (nopRenderer) MoodChanged(ActorID, emotion.Mood)               {}
func (nopRenderer) Effect(ActorID, string)                          {}
func (nopRenderer) LogsChanged()                                    {}

type nopHost struct{}

func (nopHost) RoomID() string                    { return "" }
func (nopHost) Character() *types.CharacterSheet  { return nil }
func (nopHost) Persona() *types.Persona           { return nil }
func (nopHost) RecentMessages() []types.Message   { return nil }
func (nopHost) WorldInfo() []types.WorldEntry     { return nil }
func (nopHost) RoomWorldInfo() []types.WorldEntry { return nil }
