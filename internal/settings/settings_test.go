package settings

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestDecodeEmptyReturnsDefaults(t *testing.T) {
	s, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.IdleTimeout.Std() != 300*time.Second || s.SleepTimeout.Std() != 900*time.Second {
		t.Fatalf("unexpected timeouts %v/%v", s.IdleTimeout.Std(), s.SleepTimeout.Std())
	}
	if s.HistoryCount != 5 || s.MaxLogs != 100 || s.Pets.Primary.Hunger != MaxHunger {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestDecodeV0LiftsAndKeysLogs(t *testing.T) {
	raw := []byte(`{
		"enabled": true,
		"idle_timeout_sec": 60,
		"sleep_timeout_sec": 120,
		"direct_logs": [{"timestamp": 1, "userText": "hi", "petResponse": "yo", "mood": "happy", "speaker": "Mochi"}],
		"inter_pet_logs": [{"timestamp": 2, "petAName": "Mochi", "petAText": "a", "petBName": "Bori", "petBText": "b"}]
	}`)

	s, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, s.Version)
	}
	if s.IdleTimeout.Std() != time.Minute || s.SleepTimeout.Std() != 2*time.Minute {
		t.Fatalf("seconds fields not folded: %v/%v", s.IdleTimeout.Std(), s.SleepTimeout.Std())
	}
	if len(s.Logs.Direct["Mochi"]) != 1 {
		t.Fatalf("direct logs not keyed: %+v", s.Logs.Direct)
	}
	if len(s.Logs.InterPet["Bori_Mochi"]) != 1 {
		t.Fatalf("inter-pet logs not keyed: %+v", s.Logs.InterPet)
	}
}

func TestDecodeIsStableAcrossRoundTrip(t *testing.T) {
	raw := []byte(`{"version":1,"idle_timeout_sec":42,"history_count":50,"logs":{"direct_logs":[{"timestamp":1,"speaker":"Mochi"}]}}`)
	first, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded, err := Encode(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	again, err := Encode(second)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if !bytes.Equal(encoded, again) {
		t.Fatalf("round trip not stable:\n%s\n%s", encoded, again)
	}
	if first.HistoryCount != 20 {
		t.Fatalf("history count not clamped: %d", first.HistoryCount)
	}
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	s := Settings{
		PromptMode:       "weird",
		Backend:          "nope",
		HistoryCount:     0,
		ReactionInterval: -3,
		ChatterInterval:  Duration(-time.Second),
		Pets: Pets{
			Primary:   PetSettings{Name: "  ", Hunger: 150},
			Secondary: PetSettings{Name: "Bori", Hunger: -4},
		},
	}
	s.Normalize()

	if s.PromptMode != PromptObserver || s.Backend != BackendDefault {
		t.Fatalf("enums not reset: %s %s", s.PromptMode, s.Backend)
	}
	if s.HistoryCount != 1 || s.ReactionInterval != 1 || s.ChatterInterval != 0 {
		t.Fatalf("ranges not clamped: %+v", s)
	}
	if s.Pets.Primary.Name != "Mochi" || s.Pets.Primary.Hunger != 100 || s.Pets.Secondary.Hunger != 0 {
		t.Fatalf("pets not normalized: %+v", s.Pets)
	}
	if s.Logs.Direct == nil || s.Logs.Room == nil || s.Logs.InterPet == nil {
		t.Fatalf("log maps not initialized")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	s, err := Load(ctx, store)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	s.Pets.Primary.Name = "Dubu"
	s.MultiPet = true
	if err := Save(ctx, store, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(ctx, store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Pets.Primary.Name != "Dubu" || !loaded.MultiPet {
		t.Fatalf("settings not persisted: %+v", loaded)
	}
	if loaded.Pet(PetSecondary) == nil || loaded.Pet("third") != nil {
		t.Fatalf("unexpected pet lookup")
	}
}
