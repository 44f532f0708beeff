package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

type SessionsController struct {
	repo    *sessions.Repository
	service importProgress
}

// importProgress is the slice of the import service the controller needs.
type importProgress interface {
	Progress(sessionID uint) *importer.Report
	Cancel(sessionID uint) bool
}

func NewSessionsController(repo *sessions.Repository, service importProgress) *SessionsController {
	return &SessionsController{repo: repo, service: service}
}

// sessionView is the API shape of an import session. For running sessions
// the counters come from the live report, not the persisted row.
type sessionView struct {
	ID          uint                  `json:"id"`
	SourceName  string                `json:"source_name"`
	NoteTypeID  uint                  `json:"note_type_id"`
	Status      entities.ImportStatus `json:"status"`
	Added       int                   `json:"added"`
	Updated     int                   `json:"updated"`
	Skipped     int                   `json:"skipped"`
	Errored     int                   `json:"errored"`
	Problems    []importer.Problem    `json:"problems,omitempty"`
	FatalError  string                `json:"fatal_error,omitempty"`
	StartedAt   string                `json:"started_at"`
	CompletedAt string                `json:"completed_at,omitempty"`
}

// List returns recent import sessions, newest first.
func (sc *SessionsController) List(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	recent, err := sc.repo.Recent(limit)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]sessionView, 0, len(recent))
	for i := range recent {
		views = append(views, sc.toView(&recent[i]))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}

// Get returns one import session; running sessions include a live
// progress snapshot.
func (sc *SessionsController) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := sc.repo.ByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errorJSON(c, http.StatusNotFound, "session not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, sc.toView(session))
}

// Cancel requests cooperative cancellation of a running session. The
// session aborts at its next record boundary and rolls back.
func (sc *SessionsController) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "invalid session id")
		return
	}

	if !sc.service.Cancel(id) {
		errorJSON(c, http.StatusConflict, "session is not running")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "cancel requested"})
}

func (sc *SessionsController) toView(session *entities.ImportSession) sessionView {
	view := sessionView{
		ID:         session.ID,
		SourceName: session.SourceName,
		NoteTypeID: session.NoteTypeID,
		Status:     session.Status,
		Added:      session.Added,
		Updated:    session.Updated,
		Skipped:    session.Skipped,
		Errored:    session.Errored,
		FatalError: session.FatalError,
		StartedAt:  session.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if session.CompletedAt != nil {
		view.CompletedAt = session.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if session.Problems != "" {
		// Best effort; a malformed row just omits problems.
		_ = json.Unmarshal([]byte(session.Problems), &view.Problems)
	}

	if session.Status == entities.ImportStatusRunning {
		if live := sc.service.Progress(session.ID); live != nil {
			view.Added = live.Added
			view.Updated = live.Updated
			view.Skipped = live.Skipped
			view.Errored = live.Errored
			view.Problems = live.Problems
		}
	}
	return view
}
