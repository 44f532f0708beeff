package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/entities"
)

type NotesController struct {
	repo *notes.Repository
}

func NewNotesController(repo *notes.Repository) *NotesController {
	return &NotesController{repo: repo}
}

// noteTypeView is the API shape of a note type.
type noteTypeView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	KeyField    string   `json:"key_field"`
	KeyFieldOrd int      `json:"key_field_ord"`
}

// noteView is the API shape of a note.
type noteView struct {
	ID        uint       `json:"id"`
	GUID      string     `json:"guid"`
	Fields    []string   `json:"fields"`
	SortField string     `json:"sort_field"`
	Tags      []string   `json:"tags"`
	Cards     []cardView `json:"cards,omitempty"`
}

type cardView struct {
	ID          uint `json:"id"`
	TemplateOrd int  `json:"template_ord"`
	Queue       int  `json:"queue"`
	Due         int  `json:"due"`
	Interval    int  `json:"interval"`
	EaseFactor  int  `json:"ease_factor"`
	Reps        int  `json:"reps"`
	Lapses      int  `json:"lapses"`
}

// ListNoteTypes returns every note type with its field layout.
func (nc *NotesController) ListNoteTypes(c *gin.Context) {
	types, err := nc.repo.AllNoteTypes()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]noteTypeView, 0, len(types))
	for i := range types {
		views = append(views, toNoteTypeView(&types[i]))
	}
	c.JSON(http.StatusOK, gin.H{"note_types": views})
}

// ListNotes lists notes of one note type, optionally filtered by a
// substring match on the sort field.
func (nc *NotesController) ListNotes(c *gin.Context) {
	typeName := c.Query("note_type")
	if typeName == "" {
		typeName = "Basic"
	}

	noteType, err := nc.repo.NoteTypeByName(typeName)
	if err != nil {
		errorJSON(c, http.StatusNotFound, "unknown note type: "+typeName)
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	found, err := nc.repo.SearchNotes(noteType.ID, c.Query("q"), limit, offset)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]noteView, 0, len(found))
	for i := range found {
		views = append(views, toNoteView(&found[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"note_type": noteType.Name,
		"notes":     views,
	})
}

// GetNote returns one note with its tags and cards.
func (nc *NotesController) GetNote(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "invalid note id")
		return
	}

	note, err := nc.repo.NoteByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errorJSON(c, http.StatusNotFound, "note not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, toNoteView(note))
}

func toNoteTypeView(nt *entities.NoteType) noteTypeView {
	fields := make([]string, 0, len(nt.Fields))
	for _, f := range nt.Fields {
		fields = append(fields, f.Name)
	}
	keyField := ""
	if nt.KeyFieldOrd >= 0 && nt.KeyFieldOrd < len(fields) {
		keyField = fields[nt.KeyFieldOrd]
	}
	return noteTypeView{
		ID:          nt.ID,
		Name:        nt.Name,
		Fields:      fields,
		KeyField:    keyField,
		KeyFieldOrd: nt.KeyFieldOrd,
	}
}

func toNoteView(n *entities.Note) noteView {
	view := noteView{
		ID:        n.ID,
		GUID:      n.GUID,
		Fields:    n.FieldValues(),
		SortField: n.SortField,
		Tags:      n.TagNames(),
	}
	for _, card := range n.Cards {
		view.Cards = append(view.Cards, cardView{
			ID:          card.ID,
			TemplateOrd: card.TemplateOrd,
			Queue:       int(card.Queue),
			Due:         card.Due,
			Interval:    card.Interval,
			EaseFactor:  card.EaseFactor,
			Reps:        card.Reps,
			Lapses:      card.Lapses,
		})
	}
	return view
}
