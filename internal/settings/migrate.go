package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/easeaico/project-pet/internal/chatlog"
)

// ErrUnsupportedVersion is returned for settings written by a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported settings version")

var logFamilyKeys = []string{"direct_logs", "room_logs", "inter_pet_logs"}

// secondsFields maps v1 integer-second fields to their v2 duration fields.
var secondsFields = map[string]string{
	"idle_timeout_sec":  "idle_timeout",
	"sleep_timeout_sec": "sleep_timeout",
}

// Decode parses persisted settings of any known version, migrates them to the
// current schema and normalizes the result. Empty input yields Defaults.
func Decode(raw []byte) (Settings, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return Defaults(), nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	version := 0
	if v, ok := top["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return Settings{}, fmt.Errorf("failed to decode settings version: %w", err)
		}
	}
	if version > CurrentVersion {
		return Settings{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if version < 1 {
		if err := liftLogs(top); err != nil {
			return Settings{}, err
		}
	}
	if logs, ok := top["logs"]; ok {
		migrated, err := chatlog.MigrateLegacy(logs)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to migrate logs: %w", err)
		}
		top["logs"] = migrated
	}
	if version < 2 {
		foldSeconds(top)
	}
	delete(top, "version")

	buf, err := json.Marshal(top)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to encode migrated settings: %w", err)
	}
	s := Defaults()
	if err := json.Unmarshal(buf, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.Version = CurrentVersion
	s.Normalize()
	return s, nil
}

// Encode serializes s at the current schema version.
func Encode(s Settings) ([]byte, error) {
	s.Version = CurrentVersion
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return buf, nil
}

// liftLogs moves v0 top-level log families under "logs".
func liftLogs(top map[string]json.RawMessage) error {
	var found bool
	for _, k := range logFamilyKeys {
		if _, ok := top[k]; ok {
			found = true
		}
	}
	if !found {
		return nil
	}

	logs := map[string]json.RawMessage{}
	if existing, ok := top["logs"]; ok {
		if err := json.Unmarshal(existing, &logs); err != nil {
			return fmt.Errorf("failed to decode logs: %w", err)
		}
	}
	for _, k := range logFamilyKeys {
		v, ok := top[k]
		if !ok {
			continue
		}
		if _, exists := logs[k]; !exists {
			logs[k] = v
		}
		delete(top, k)
	}
	buf, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("failed to encode logs: %w", err)
	}
	top["logs"] = buf
	return nil
}

func foldSeconds(top map[string]json.RawMessage) {
	for old, current := range secondsFields {
		v, ok := top[old]
		if !ok {
			continue
		}
		if _, exists := top[current]; !exists {
			top[current] = v
		}
		delete(top, old)
	}
}
