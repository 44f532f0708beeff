package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// FieldSeparator joins note field values into the single flds column.
// Legacy collections use the ASCII unit separator, so imported and
// native notes share the same layout.
const FieldSeparator = "\x1f"

// CardQueue describes where a card sits in the review cycle.
type CardQueue int

const (
	QueueSuspended CardQueue = -1
	QueueNew       CardQueue = 0
	QueueLearning  CardQueue = 1
	QueueReview    CardQueue = 2
)

// NoteType identifies the schema a note conforms to: an ordered list of
// named fields, the ordinal of the uniqueness-key field, and the card
// templates used to generate cards for new notes.
type NoteType struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;size:100" json:"name"`
	KeyFieldOrd int             `gorm:"default:0" json:"key_field_ord"`
	Fields      []NoteTypeField `gorm:"foreignKey:NoteTypeID" json:"fields,omitempty"`
	Templates   []CardTemplate  `gorm:"foreignKey:NoteTypeID" json:"templates,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FieldNames returns the field names in schema order.
func (nt *NoteType) FieldNames() []string {
	names := make([]string, len(nt.Fields))
	for i, f := range nt.Fields {
		names[i] = f.Name
	}
	return names
}

type NoteTypeField struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	NoteTypeID uint   `gorm:"index" json:"note_type_id"`
	Ord        int    `json:"ord"`
	Name       string `gorm:"size:100" json:"name"`
}

// CardTemplate drives card generation: one card per template is created
// for every new note of the owning note type.
type CardTemplate struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	NoteTypeID uint   `gorm:"index" json:"note_type_id"`
	Ord        int    `json:"ord"`
	Name       string `gorm:"size:100" json:"name"`
}

// Note is a unit of study content. Field values are stored joined by
// FieldSeparator; SortField mirrors the key field for display ordering and
// DupeKey holds the normalized duplicate-lookup value.
type Note struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	GUID       string         `gorm:"uniqueIndex;size:36" json:"guid"`
	NoteTypeID uint           `gorm:"index" json:"note_type_id"`
	Flds       string         `gorm:"type:text" json:"-"`
	SortField  string         `gorm:"index;size:512" json:"sort_field"`
	DupeKey    string         `gorm:"index;size:512" json:"-"`
	NoteType   NoteType       `gorm:"foreignKey:NoteTypeID" json:"-"`
	Cards      []Card         `gorm:"foreignKey:NoteID" json:"cards,omitempty"`
	Tags       []Tag          `gorm:"many2many:note_tags;" json:"tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// FieldValues splits the joined flds column back into per-field values.
func (n *Note) FieldValues() []string {
	if n.Flds == "" {
		return nil
	}
	return strings.Split(n.Flds, FieldSeparator)
}

// SetFieldValues stores values into the joined flds column.
func (n *Note) SetFieldValues(values []string) {
	n.Flds = strings.Join(values, FieldSeparator)
}

// TagNames returns the note's tag names in stored order.
func (n *Note) TagNames() []string {
	names := make([]string, len(n.Tags))
	for i, t := range n.Tags {
		names[i] = t.Name
	}
	return names
}

// Card is one schedulable review item generated from a note. Scheduling
// state lives here and must survive note updates unchanged.
type Card struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	NoteID      uint      `gorm:"index" json:"note_id"`
	TemplateOrd int       `json:"template_ord"`
	Queue       CardQueue `gorm:"default:0" json:"queue"`
	Due         int       `gorm:"default:0" json:"due"`
	Interval    int       `gorm:"default:0" json:"interval"`
	EaseFactor  int       `gorm:"default:2500" json:"ease_factor"`
	Reps        int       `gorm:"default:0" json:"reps"`
	Lapses      int       `gorm:"default:0" json:"lapses"`
	Note        Note      `gorm:"foreignKey:NoteID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Notes     []Note    `gorm:"many2many:note_tags;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (NoteType) TableName() string {
	return "note_types"
}

func (NoteTypeField) TableName() string {
	return "note_type_fields"
}

func (CardTemplate) TableName() string {
	return "card_templates"
}

func (Tag) TableName() string {
	return "tags"
}
