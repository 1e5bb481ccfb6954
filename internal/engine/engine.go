package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/easeaico/project-pet/internal/callback"
	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/prompt"
	"github.com/easeaico/project-pet/internal/scheduler"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/speech"
)

// Options configures an Engine. Only Settings is required.
type Options struct {
	Settings settings.Settings
	Store    settings.Store
	Clock    clock.Clock
	Rand     *rand.Rand
	Host     Host
	Renderer Renderer
	Backends Backends
}

// Engine owns the pets of one session. All entry points are safe for
// concurrent use; they serialize on one mutex that is released only while
// waiting for the model.
type Engine struct {
	clock    clock.Clock
	rng      *rand.Rand
	host     Host
	renderer Renderer
	backends Backends
	store    settings.Store
	speech   *speech.Selector
	prompts  *prompt.Builder

	mu             sync.Mutex
	cfg            settings.Settings
	logs           *chatlog.Store
	actors         [2]*actor
	hostGenerating bool
	reactionCount  int
	deferred       clock.Timer
	deferGen       uint64
	deferDeadline  time.Time
	chatter        *scheduler.Ticker
	hunger         *scheduler.Ticker
	started        bool
	stopped        bool
	ctx            context.Context
	cancel         context.CancelFunc
}

// New builds an engine with the primary pet and, in multi-pet mode, the secondary one.
func New(opts Options) *Engine {
	e := &Engine{
		clock:    opts.Clock,
		rng:      opts.Rand,
		host:     opts.Host,
		renderer: opts.Renderer,
		backends: opts.Backends,
		store:    opts.Store,
		prompts:  prompt.NewBuilder(),
		cfg:      opts.Settings,
	}
	if e.clock == nil {
		e.clock = clock.NewReal()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.host == nil {
		e.host = nopHost{}
	}
	if e.renderer == nil {
		e.renderer = nopRenderer{}
	}
	e.speech = speech.NewSelector(e.rng)
	e.cfg.Normalize()
	e.logs = chatlog.NewStore(&e.cfg.Logs, func() int { return e.cfg.MaxLogs }, e.clock.Now)
	e.logs.SetOnChange(func() {
		e.renderer.LogsChanged()
		e.persistLocked()
	})
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.actors[0] = e.newActor(Primary)
	e.syncActorsLocked()
	return e
}

// Start greets the user, arms idle timers and starts the hunger and chatter tickers.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true

	now := e.clock.Now()
	for _, a := range e.activeActors() {
		pet := e.pet(a)
		trigger := greetingFor(pet.LastVisit, now)
		slog.Info("pet greeting", "actor", a.id, "trigger", trigger)
		e.triggerLocked(e.ctx, trigger, a)
		pet.LastVisit = now
	}
	e.persistLocked()

	e.hunger = scheduler.NewTicker(e.clock,
		func() time.Duration { return e.cfg.HungerDecayInterval.Std() },
		callback.Guard("hunger tick", e.onHungerTick))
	e.chatter = scheduler.NewTicker(e.clock,
		func() time.Duration { return e.cfg.ChatterInterval.Std() },
		callback.Guard("chatter tick", e.onChatterTick))
}

// Stop cancels every timer and any in-flight generation. The engine cannot be restarted.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	e.cancel()
	e.cancelDeferredLocked()
	if e.hunger != nil {
		e.hunger.Stop()
	}
	if e.chatter != nil {
		e.chatter.Stop()
	}
	for _, a := range e.activeActors() {
		a.stop()
	}
	e.persistLocked()
}

// CurrentMood returns the pet's mood, or idle for a pet that does not exist.
func (e *Engine) CurrentMood(id ActorID) emotion.Mood {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	if a == nil {
		return emotion.MoodIdle
	}
	return a.mood.Current()
}

// Busy reports whether the pet is waiting for the model.
func (e *Engine) Busy(id ActorID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.actor(id)
	return a != nil && a.busy
}

// Actors lists the ids of the pets that exist.
func (e *Engine) Actors() []ActorID {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []ActorID
	for _, a := range e.activeActors() {
		ids = append(ids, a.id)
	}
	return ids
}

// Settings returns a deep copy of the current settings.
func (e *Engine) Settings() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// UpdateSettings applies fn, normalizes the result, adds or removes the
// secondary pet as needed and persists. fn must not replace Logs.
func (e *Engine) UpdateSettings(fn func(*settings.Settings)) settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	logs := e.cfg.Logs
	fn(&e.cfg)
	e.cfg.Logs = logs
	e.cfg.Normalize()
	e.syncActorsLocked()
	e.persistLocked()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() settings.Settings {
	buf, err := settings.Encode(e.cfg)
	if err != nil {
		slog.Error("failed to snapshot settings", "error", err.Error())
		return e.cfg
	}
	var out settings.Settings
	if err := json.Unmarshal(buf, &out); err != nil {
		slog.Error("failed to snapshot settings", "error", err.Error())
		return e.cfg
	}
	return out
}

// syncActorsLocked creates or tears down the secondary pet to match MultiPet.
func (e *Engine) syncActorsLocked() {
	switch {
	case e.cfg.MultiPet && e.actors[1] == nil:
		a := e.newActor(Secondary)
		e.actors[1] = a
		if e.started && !e.stopped {
			a.idle.Reset()
		}
	case !e.cfg.MultiPet && e.actors[1] != nil:
		e.actors[1].stop()
		e.actors[1] = nil
	}
}

func (e *Engine) actor(id ActorID) *actor {
	switch id {
	case Primary:
		return e.actors[0]
	case Secondary:
		return e.actors[1]
	default:
		return nil
	}
}

func (e *Engine) activeActors() []*actor {
	out := make([]*actor, 0, len(e.actors))
	for _, a := range e.actors {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// other returns the pet that is not a, or nil in single-pet mode.
func (e *Engine) other(a *actor) *actor {
	if a.id == Primary {
		return e.actors[1]
	}
	return e.actors[0]
}

func (e *Engine) pet(a *actor) *settings.PetSettings {
	return e.cfg.Pet(string(a.id))
}

func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := settings.Save(ctx, e.store, e.cfg); err != nil {
		slog.Error("failed to persist settings", "error", err.Error())
	}
}

func (e *Engine) after(name string, d time.Duration, f func()) clock.Timer {
	return e.clock.AfterFunc(d, callback.Guard(name, f))
}

func greetingFor(lastVisit, now time.Time) Trigger {
	if !lastVisit.IsZero() && now.Sub(lastVisit) > longAbsenceAfter {
		return TriggerLongAbsence
	}
	switch h := now.Hour(); {
	case h < 5:
		return TriggerLateNight
	case h < 9:
		return TriggerMorning
	default:
		return TriggerGreeting
	}
}
