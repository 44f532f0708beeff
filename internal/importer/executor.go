package importer

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/entities"
)

// Executor applies resolver decisions against the collection. It is the
// only component that mutates persistent state, and it always operates
// inside the session's transaction so a fatal error rolls back the whole
// batch.
type Executor struct {
	tx          *gorm.DB
	noteType    *entities.NoteType
	replaceTags bool
}

// AppliedResult reports what a single Apply call did.
type AppliedResult struct {
	Note    *entities.Note
	Created bool
}

func NewExecutor(tx *gorm.DB, noteType *entities.NoteType, replaceTags bool) *Executor {
	return &Executor{tx: tx, noteType: noteType, replaceTags: replaceTags}
}

// Apply executes one decision. Insert failures and update failures are
// returned as *StorageError and abort the session.
func (e *Executor) Apply(decision Decision, note *NormalizedNote) (*AppliedResult, error) {
	switch decision.Action {
	case ActionInsert:
		return e.insert(note)
	case ActionUpdate:
		return e.update(decision.Existing, note)
	default:
		// SkipDuplicate: no mutation, still counted by the session.
		return &AppliedResult{Note: decision.Existing}, nil
	}
}

// insert creates a new note with its tags and one card per template of
// the note type.
func (e *Executor) insert(note *NormalizedNote) (*AppliedResult, error) {
	tags, err := e.tagEntities(note.Tags)
	if err != nil {
		return nil, err
	}

	cards := make([]entities.Card, len(e.noteType.Templates))
	for i, tmpl := range e.noteType.Templates {
		cards[i] = entities.Card{
			TemplateOrd: tmpl.Ord,
			Queue:       entities.QueueNew,
		}
	}

	row := &entities.Note{
		GUID:       uuid.NewString(),
		NoteTypeID: e.noteType.ID,
		SortField:  note.SortField,
		DupeKey:    note.DupeKey,
		Cards:      cards,
		Tags:       tags,
	}
	row.SetFieldValues(note.Fields)

	if err := e.tx.Create(row).Error; err != nil {
		return nil, &StorageError{Op: "insert note", Err: err}
	}
	return &AppliedResult{Note: row, Created: true}, nil
}

// update overwrites the existing note's field content and merges tags.
// Cards are deliberately not touched: scheduling state must survive
// updates bit-identically.
func (e *Executor) update(existing *entities.Note, note *NormalizedNote) (*AppliedResult, error) {
	existing.SetFieldValues(note.Fields)
	existing.SortField = note.SortField
	existing.DupeKey = note.DupeKey

	updates := map[string]any{
		"flds":       existing.Flds,
		"sort_field": existing.SortField,
		"dupe_key":   existing.DupeKey,
	}
	if err := e.tx.Model(&entities.Note{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, &StorageError{Op: "update note", Err: err}
	}

	tags, err := e.tagEntities(note.Tags)
	if err != nil {
		return nil, err
	}
	assoc := e.tx.Model(existing).Association("Tags")
	if e.replaceTags {
		if err := assoc.Replace(toAnySlice(tags)...); err != nil {
			return nil, &StorageError{Op: "replace tags", Err: err}
		}
		existing.Tags = tags
	} else if len(tags) > 0 {
		if err := assoc.Append(toAnySlice(tags)...); err != nil {
			return nil, &StorageError{Op: "merge tags", Err: err}
		}
		existing.Tags = unionTags(existing.Tags, tags)
	}

	return &AppliedResult{Note: existing}, nil
}

func (e *Executor) tagEntities(names []string) ([]entities.Tag, error) {
	tags := make([]entities.Tag, 0, len(names))
	for _, name := range names {
		tag, err := notes.GetOrCreateTag(e.tx, name)
		if err != nil {
			return nil, &StorageError{Op: "resolve tag", Err: err}
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func toAnySlice(tags []entities.Tag) []any {
	out := make([]any, len(tags))
	for i := range tags {
		out[i] = &tags[i]
	}
	return out
}

func unionTags(existing, incoming []entities.Tag) []entities.Tag {
	seen := make(map[uint]struct{}, len(existing))
	out := append([]entities.Tag(nil), existing...)
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}
	for _, t := range incoming {
		if _, ok := seen[t.ID]; !ok {
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
