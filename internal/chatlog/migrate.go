package chatlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// legacyKey is used when a legacy list carries no names to infer a key from.
const legacyKey = "legacy"

// MigrateLegacy converts a persisted logs object whose direct_logs or inter_pet_logs
// were saved as flat lists into the keyed-map schema. The key is inferred from the
// first entry. Input already in the keyed schema is returned unchanged, so running
// it again is a no-op.
func MigrateLegacy(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode logs object: %w", err)
	}

	changed := false
	if migrated, ok, err := migrateList(fields["direct_logs"], FamilyDirect, directKey); err != nil {
		return nil, err
	} else if ok {
		fields["direct_logs"] = migrated
		changed = true
	}
	if migrated, ok, err := migrateList(fields["inter_pet_logs"], FamilyInterPet, interPetKey); err != nil {
		return nil, err
	} else if ok {
		fields["inter_pet_logs"] = migrated
		changed = true
	}
	if !changed {
		return raw, nil
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migrated logs: %w", err)
	}
	return out, nil
}

// NeedsMigration reports whether raw still holds a legacy flat list.
func NeedsMigration(raw []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	return isArray(fields["direct_logs"]) || isArray(fields["inter_pet_logs"])
}

func migrateList(raw json.RawMessage, family Family, keyOf func(Entry) string) (json.RawMessage, bool, error) {
	if !isArray(raw) {
		return nil, false, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode legacy %s logs: %w", family, err)
	}

	keyed := map[string][]Entry{}
	if len(entries) > 0 {
		key := keyOf(entries[0])
		for i := range entries {
			if entries[i].Type == "" {
				entries[i].Type = family
			}
			entries[i].Key = ""
		}
		keyed[key] = entries
	}

	out, err := json.Marshal(keyed)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode %s logs: %w", family, err)
	}
	return out, true, nil
}

func directKey(e Entry) string {
	for _, name := range []string{e.Speaker, e.PetName} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return legacyKey
}

func interPetKey(e Entry) string {
	a, b := strings.TrimSpace(e.PetAName), strings.TrimSpace(e.PetBName)
	if a == "" || b == "" {
		return legacyKey
	}
	return CompositeKey(a, b)
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
