// Package settings defines the persisted pet settings and their migrations.
package settings

import (
	"strings"
	"time"

	"github.com/easeaico/project-pet/internal/chatlog"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 2

// PromptMode selects how a pet frames its reaction prompt.
type PromptMode string

const (
	PromptObserver  PromptMode = "observer"
	PromptCharacter PromptMode = "character"
)

// Backend selects the generator implementation.
type Backend string

const (
	BackendDefault Backend = "default"
	BackendProfile Backend = "profile"
)

// Pet ids.
const (
	PetPrimary   = "primary"
	PetSecondary = "secondary"
)

const (
	MaxHunger         = 100
	minHistoryCount   = 1
	maxHistoryCount   = 20
	defaultMaxTokens  = 200
	defaultHistory    = 5
	defaultIdle       = 300 * time.Second
	defaultSleep      = 900 * time.Second
	defaultChatter    = 600 * time.Second
	defaultHungerTick = 10 * time.Minute
	defaultBubble     = 5 * time.Second
)

// Settings is everything the engine reads from and writes back to the host.
type Settings struct {
	Version int `json:"version"`

	Enabled           bool       `json:"enabled"`
	MultiPet          bool       `json:"multi_pet"`
	PromptMode        PromptMode `json:"prompt_mode"`
	Backend           Backend    `json:"backend"`
	ConnectionProfile string     `json:"connection_profile,omitempty"`

	IdleTimeout         Duration `json:"idle_timeout"`
	SleepTimeout        Duration `json:"sleep_timeout"`
	HistoryCount        int      `json:"history_count"`
	MaxLogs             int      `json:"max_logs"`
	MaxTokens           int      `json:"max_tokens"`
	WorldInfoEnabled    bool     `json:"world_info_enabled"`
	ReactionInterval    int      `json:"reaction_interval"`
	DualReaction        bool     `json:"dual_reaction"`
	ChatterInterval     Duration `json:"chatter_interval"`
	HungerDecayInterval Duration `json:"hunger_decay_interval"`
	BubbleDuration      Duration `json:"bubble_duration"`

	Pets Pets         `json:"pets"`
	Logs chatlog.Data `json:"logs"`
}

// Pets holds the per-pet settings by id.
type Pets struct {
	Primary   PetSettings `json:"primary"`
	Secondary PetSettings `json:"secondary"`
}

// PetSettings is the persisted part of one pet.
type PetSettings struct {
	Name             string              `json:"name"`
	Personality      string              `json:"personality,omitempty"`
	RelationLabel    string              `json:"relation_label,omitempty"`
	CustomSpeech     map[string][]string `json:"custom_speech,omitempty"`
	FallbackMessages map[string]string   `json:"fallback_messages,omitempty"`

	Hunger        int       `json:"hunger"`
	HungerUpdated time.Time `json:"hunger_updated,omitzero"`
	LastFed       time.Time `json:"last_fed,omitzero"`
	LastVisit     time.Time `json:"last_visit,omitzero"`
}

// Defaults returns the settings used for a fresh install.
func Defaults() Settings {
	return Settings{
		Version:             CurrentVersion,
		Enabled:             true,
		PromptMode:          PromptObserver,
		Backend:             BackendDefault,
		IdleTimeout:         Duration(defaultIdle),
		SleepTimeout:        Duration(defaultSleep),
		HistoryCount:        defaultHistory,
		MaxLogs:             chatlog.DefaultMaxLogs,
		MaxTokens:           defaultMaxTokens,
		WorldInfoEnabled:    true,
		ReactionInterval:    1,
		ChatterInterval:     Duration(defaultChatter),
		HungerDecayInterval: Duration(defaultHungerTick),
		BubbleDuration:      Duration(defaultBubble),
		Pets: Pets{
			Primary:   PetSettings{Name: "Mochi", Hunger: MaxHunger},
			Secondary: PetSettings{Name: "Bori", Hunger: MaxHunger},
		},
		Logs: chatlog.NewData(),
	}
}

// Pet returns the settings for the pet id, or nil for an unknown id.
func (s *Settings) Pet(id string) *PetSettings {
	switch id {
	case PetPrimary:
		return &s.Pets.Primary
	case PetSecondary:
		return &s.Pets.Secondary
	default:
		return nil
	}
}

// Normalize replaces out-of-range values with defaults or clamps them.
func (s *Settings) Normalize() {
	def := Defaults()

	switch s.PromptMode {
	case PromptObserver, PromptCharacter:
	default:
		s.PromptMode = def.PromptMode
	}
	switch s.Backend {
	case BackendDefault, BackendProfile:
	default:
		s.Backend = def.Backend
	}
	s.ConnectionProfile = strings.TrimSpace(s.ConnectionProfile)

	if s.IdleTimeout <= 0 {
		s.IdleTimeout = def.IdleTimeout
	}
	if s.SleepTimeout <= 0 {
		s.SleepTimeout = def.SleepTimeout
	}
	s.HistoryCount = clamp(s.HistoryCount, minHistoryCount, maxHistoryCount)
	if s.MaxLogs <= 0 {
		s.MaxLogs = def.MaxLogs
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = def.MaxTokens
	}
	if s.ReactionInterval < 1 {
		s.ReactionInterval = 1
	}
	if s.ChatterInterval < 0 {
		s.ChatterInterval = 0
	}
	if s.HungerDecayInterval <= 0 {
		s.HungerDecayInterval = def.HungerDecayInterval
	}
	if s.BubbleDuration <= 0 {
		s.BubbleDuration = def.BubbleDuration
	}

	s.Pets.Primary.normalize(def.Pets.Primary.Name)
	s.Pets.Secondary.normalize(def.Pets.Secondary.Name)

	if s.Logs.Direct == nil {
		s.Logs.Direct = map[string][]chatlog.Entry{}
	}
	if s.Logs.Room == nil {
		s.Logs.Room = map[string][]chatlog.Entry{}
	}
	if s.Logs.InterPet == nil {
		s.Logs.InterPet = map[string][]chatlog.Entry{}
	}
}

func (p *PetSettings) normalize(defaultName string) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = defaultName
	}
	p.Hunger = clamp(p.Hunger, 0, MaxHunger)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
