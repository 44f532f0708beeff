package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlevchik/mnemo/internal/entities"
)

// OnDuplicate is the session-wide policy for records whose duplicate key
// matches an existing note.
type OnDuplicate int

const (
	// DuplicateSkip leaves the existing note untouched and counts the
	// record as skipped.
	DuplicateSkip OnDuplicate = iota
	// DuplicateUpdate overwrites the existing note's fields and merges
	// its tags.
	DuplicateUpdate
	// DuplicateAllow inserts a new note even on a key match. Used for
	// formats with no reliable uniqueness key.
	DuplicateAllow
)

// ParseOnDuplicate maps the wire/CLI spelling to a policy value.
func ParseOnDuplicate(s string) (OnDuplicate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return DuplicateSkip, nil
	case "update":
		return DuplicateUpdate, nil
	case "allow", "duplicate", "allow-duplicate":
		return DuplicateAllow, nil
	}
	return DuplicateSkip, fmt.Errorf("unknown duplicate policy %q", s)
}

func (p OnDuplicate) String() string {
	switch p {
	case DuplicateUpdate:
		return "update"
	case DuplicateAllow:
		return "allow"
	default:
		return "skip"
	}
}

// Action is what the merge executor should do with a record.
type Action int

const (
	ActionInsert Action = iota
	ActionUpdate
	ActionSkip
)

// Decision is the resolver's verdict for one normalized record. Existing
// is set for update/skip decisions; Warning carries a non-fatal note when
// the match was ambiguous.
type Decision struct {
	Action   Action
	Existing *entities.Note
	Warning  string
}

// DuplicateIndex maps duplicate keys to the existing notes that carry
// them. Built once per session over all notes of the target note type and
// updated immediately after every applied insert, so records later in the
// same batch see notes inserted earlier.
type DuplicateIndex struct {
	byKey map[string][]*entities.Note
}

// NewDuplicateIndex builds the index from a snapshot of existing notes.
// Keys are recomputed from each note's uniqueness field under the session
// policy, so a case-folding session matches notes stored with either
// casing. Buckets are kept sorted by note ID so multi-match tie-breaks
// are deterministic.
func NewDuplicateIndex(existing []*entities.Note, keyOrd int, policy KeyPolicy) *DuplicateIndex {
	ix := &DuplicateIndex{byKey: make(map[string][]*entities.Note, len(existing))}
	for _, n := range existing {
		key := n.DupeKey
		if fields := n.FieldValues(); keyOrd >= 0 && keyOrd < len(fields) {
			key = NormalizeKey(fields[keyOrd], policy)
		}
		ix.byKey[key] = append(ix.byKey[key], n)
	}
	for _, bucket := range ix.byKey {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
	}
	return ix
}

// Add registers a freshly inserted note under its session-policy key. New
// notes get ascending IDs so appending keeps buckets sorted.
func (ix *DuplicateIndex) Add(n *entities.Note) {
	ix.byKey[n.DupeKey] = append(ix.byKey[n.DupeKey], n)
}

// Lookup returns the existing notes for a key, lowest ID first.
func (ix *DuplicateIndex) Lookup(key string) []*entities.Note {
	return ix.byKey[key]
}

// Len returns the number of distinct keys, used for stats and tests.
func (ix *DuplicateIndex) Len() int {
	return len(ix.byKey)
}

// Resolve decides whether a normalized record is a new note, an update to
// an existing one, or a duplicate to skip. O(1) per call.
func Resolve(note *NormalizedNote, ix *DuplicateIndex, policy OnDuplicate) Decision {
	matches := ix.Lookup(note.DupeKey)
	if len(matches) == 0 || policy == DuplicateAllow {
		return Decision{Action: ActionInsert}
	}

	// Pre-existing collection inconsistency: several notes share the
	// key. Pick the lowest ID and surface a warning.
	var warning string
	if len(matches) > 1 {
		warning = fmt.Sprintf("duplicate key %q matches %d notes, using note %d",
			note.DupeKey, len(matches), matches[0].ID)
	}

	if policy == DuplicateUpdate {
		return Decision{Action: ActionUpdate, Existing: matches[0], Warning: warning}
	}
	return Decision{Action: ActionSkip, Existing: matches[0], Warning: warning}
}
