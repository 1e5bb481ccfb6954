package chatlog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Filter selects entries for Query. Zero values mean "any".
type Filter struct {
	Family Family
	Key    string
	// Limit keeps only the newest Limit entries after sorting.
	Limit int
}

// Store applies retention and keying rules to a Data value it does not own.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	data     *Data
	maxLogs  func() int
	now      func() time.Time
	onChange func()
	lastTS   int64
}

// NewStore wraps data. maxLogs is read on every append.
func NewStore(data *Data, maxLogs func() int, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{data: data, maxLogs: maxLogs, now: now}
	for _, f := range Families {
		for _, list := range data.family(f) {
			for _, e := range list {
				if e.Timestamp > s.lastTS {
					s.lastTS = e.Timestamp
				}
			}
		}
	}
	return s
}

// SetOnChange registers a callback run after every mutation.
func (s *Store) SetOnChange(f func()) {
	s.onChange = f
}

// Append adds e under key, stamping it if needed and evicting the oldest entries past the cap.
func (s *Store) Append(key string, e Entry) (Entry, error) {
	m := s.data.family(e.Type)
	if m == nil {
		return Entry{}, fmt.Errorf("unknown log family %q", e.Type)
	}
	if strings.TrimSpace(key) == "" {
		return Entry{}, fmt.Errorf("log key cannot be empty")
	}
	if e.Timestamp == 0 {
		e.Timestamp = s.now().UnixMilli()
	}
	// Timestamps double as entry ids for DeleteOne.
	if e.Timestamp <= s.lastTS {
		e.Timestamp = s.lastTS + 1
	}
	s.lastTS = e.Timestamp
	e.Key = ""

	list := append(m[key], e)
	limit := s.limit()
	if len(list) > limit {
		list = append([]Entry(nil), list[len(list)-limit:]...)
	}
	m[key] = list
	s.changed()

	e.Key = key
	return e, nil
}

// AppendDirect logs a single-pet direct talk exchange under the pet's name.
func (s *Store) AppendDirect(petName, userText, response, mood string) (Entry, error) {
	return s.Append(petName, Entry{
		Type:        FamilyDirect,
		UserText:    userText,
		PetResponse: response,
		Mood:        mood,
		Speaker:     petName,
		Mode:        ModeSingle,
	})
}

// AppendDirectDual logs one pet's line from a dual direct talk under the pair key.
func (s *Store) AppendDirectDual(nameA, nameB, speaker, userText, response, mood string) (Entry, error) {
	return s.Append(CompositeKey(nameA, nameB), Entry{
		Type:        FamilyDirect,
		UserText:    userText,
		PetResponse: response,
		Mood:        mood,
		Speaker:     speaker,
		Mode:        ModeDual,
	})
}

// AppendReaction logs a pet's comment on the host conversation under the room id.
func (s *Store) AppendReaction(roomID, petName, trigger, response, mood string) (Entry, error) {
	return s.Append(roomID, Entry{
		Type:        FamilyReaction,
		PetResponse: response,
		Mood:        mood,
		Trigger:     trigger,
		PetName:     petName,
	})
}

// AppendInterPet logs an exchange between the two pets under the pair key.
func (s *Store) AppendInterPet(nameA, textA, moodA, nameB, textB string) (Entry, error) {
	return s.Append(CompositeKey(nameA, nameB), Entry{
		Type:     FamilyInterPet,
		PetAName: nameA,
		PetAText: textA,
		PetAMood: moodA,
		PetBName: nameB,
		PetBText: textB,
	})
}

// Query returns matching entries sorted by timestamp, oldest first.
func (s *Store) Query(f Filter) []Entry {
	var out []Entry
	for _, fam := range Families {
		if f.Family != "" && f.Family != fam {
			continue
		}
		for key, list := range s.data.family(fam) {
			if f.Key != "" && f.Key != key {
				continue
			}
			for _, e := range list {
				e.Key = key
				out = append(out, e)
			}
		}
	}
	sortEntries(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// Recent returns the newest entries relevant to the given pets and room across all families.
func (s *Store) Recent(petNames []string, roomID string, limit int) []Entry {
	involves := func(key string) bool {
		for _, name := range petNames {
			if name != "" && keyInvolves(key, name) {
				return true
			}
		}
		return false
	}

	var out []Entry
	for key, list := range s.data.family(FamilyDirect) {
		if involves(key) {
			out = appendKeyed(out, key, list)
		}
	}
	for key, list := range s.data.family(FamilyInterPet) {
		if involves(key) {
			out = appendKeyed(out, key, list)
		}
	}
	if roomID != "" {
		out = appendKeyed(out, roomID, s.data.family(FamilyReaction)[roomID])
	}
	sortEntries(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Clear removes every list in the family, or a single keyed list when key is set.
// An empty family clears everything. It returns how many entries were removed.
func (s *Store) Clear(family Family, key string) int {
	removed := 0
	for _, fam := range Families {
		if family != "" && family != fam {
			continue
		}
		m := s.data.family(fam)
		for k, list := range m {
			if key != "" && key != k {
				continue
			}
			removed += len(list)
			delete(m, k)
		}
	}
	if removed > 0 {
		s.changed()
	}
	return removed
}

// DeleteOne removes the entry with the given timestamp from family. It reports whether one was found.
func (s *Store) DeleteOne(timestamp int64, family Family) bool {
	m := s.data.family(family)
	for key, list := range m {
		for i, e := range list {
			if e.Timestamp != timestamp {
				continue
			}
			list = append(list[:i:i], list[i+1:]...)
			if len(list) == 0 {
				delete(m, key)
			} else {
				m[key] = list
			}
			s.changed()
			return true
		}
	}
	return false
}

// keyInvolves reports whether key is name's own key or a pair key that includes name.
// Names may contain the separator, so the remainder is checked against CompositeKey.
func keyInvolves(key, name string) bool {
	if key == name {
		return true
	}
	if rest, ok := strings.CutPrefix(key, name+"_"); ok && CompositeKey(name, rest) == key {
		return true
	}
	if rest, ok := strings.CutSuffix(key, "_"+name); ok && CompositeKey(rest, name) == key {
		return true
	}
	return false
}

func (s *Store) limit() int {
	if s.maxLogs != nil {
		if n := s.maxLogs(); n > 0 {
			return n
		}
	}
	return DefaultMaxLogs
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func appendKeyed(out []Entry, key string, list []Entry) []Entry {
	for _, e := range list {
		e.Key = key
		out = append(out, e)
	}
	return out
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
}
