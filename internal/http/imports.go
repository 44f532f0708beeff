package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mlevchik/mnemo/internal/adapters/pack"
	"github.com/mlevchik/mnemo/internal/adapters/textfile"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
	"github.com/mlevchik/mnemo/internal/tasks"
)

type ImportController struct {
	cfg        *config.Config
	service    *services.ImportService
	taskClient *tasks.Client
}

func NewImportController(cfg *config.Config, service *services.ImportService, taskClient *tasks.Client) *ImportController {
	return &ImportController{cfg: cfg, service: service, taskClient: taskClient}
}

// ImportResponse is returned by the synchronous import endpoints.
type ImportResponse struct {
	SessionID uint             `json:"session_id"`
	Status    string           `json:"status"`
	Report    *importer.Report `json:"report"`
}

// importOptions are the shared form fields of the import endpoints.
type importOptions struct {
	NoteType    string `form:"note_type"`
	OnDuplicate string `form:"on_duplicate"`
	TagsColumn  int    `form:"tags_column,default=-1"`
	CaseFold    bool   `form:"case_fold"`
	ReplaceTags bool   `form:"replace_tags"`
	DryRun      bool   `form:"dry_run"`
	Async       bool   `form:"async"`
}

// ImportText imports a delimited text file. With async=1 the file is
// spooled and processed by the task queue; otherwise the session runs
// within the request and the full report is returned.
func (ic *ImportController) ImportText(c *gin.Context) {
	var opts importOptions
	if err := c.ShouldBind(&opts); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid options: %v", err))
		return
	}
	if opts.NoteType == "" {
		opts.NoteType = "Basic"
	}

	onDuplicate, err := importer.ParseOnDuplicate(opts.OnDuplicate)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if opts.Async {
		ic.enqueue(c, file, header.Filename, tasks.FormatText, opts)
		return
	}

	adapter, err := textfile.Open(file)
	if err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ic.run(c, adapter, services.Options{
		SourceName:  header.Filename,
		NoteType:    opts.NoteType,
		TagsColumn:  opts.TagsColumn,
		OnDuplicate: onDuplicate,
		CaseFold:    opts.CaseFold,
		ReplaceTags: opts.ReplaceTags,
		DryRun:      opts.DryRun,
	})
}

// ImportPack imports a zipped deck pack. The manifest's note-type hint is
// used unless the request overrides it.
func (ic *ImportController) ImportPack(c *gin.Context) {
	var opts importOptions
	if err := c.ShouldBind(&opts); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid options: %v", err))
		return
	}

	onDuplicate, err := importer.ParseOnDuplicate(opts.OnDuplicate)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if opts.Async {
		ic.enqueue(c, file, header.Filename, tasks.FormatPack, opts)
		return
	}

	// The zip reader needs a file on disk.
	tmpPath, err := saveUpload(file, header.Filename)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tmpPath)

	adapter, err := pack.Open(tmpPath)
	if err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	defer adapter.Close()

	hints := adapter.Hints()
	noteType := opts.NoteType
	if noteType == "" {
		noteType = hints.NoteType
	}
	if noteType == "" {
		noteType = "Basic"
	}

	ic.run(c, adapter, services.Options{
		SourceName:  header.Filename,
		NoteType:    noteType,
		Mapping:     hints.Mapping,
		TagsColumn:  -1,
		OnDuplicate: onDuplicate,
		CaseFold:    opts.CaseFold,
		ReplaceTags: opts.ReplaceTags,
		DryRun:      opts.DryRun,
	})
}

func (ic *ImportController) run(c *gin.Context, src importer.RecordSource, opts services.Options) {
	report, session, err := ic.service.ImportStream(c.Request.Context(), src, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if services.IsCanceled(err) {
			status = http.StatusConflict
		}
		var id uint
		if session != nil {
			id = session.ID
		}
		c.JSON(status, gin.H{
			"error":      err.Error(),
			"session_id": id,
			"report":     report,
		})
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		SessionID: session.ID,
		Status:    "completed",
		Report:    report,
	})
}

// enqueue spools the upload and hands it to the task queue.
func (ic *ImportController) enqueue(c *gin.Context, file multipart.File, filename, format string, opts importOptions) {
	if ic.taskClient == nil {
		errorJSON(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	spooled, err := saveUpload(file, filename)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	task := tasks.ImportFileTask{
		Path:        spooled,
		Format:      format,
		NoteType:    opts.NoteType,
		OnDuplicate: opts.OnDuplicate,
		CaseFold:    opts.CaseFold,
		ReplaceTags: opts.ReplaceTags,
		DeleteAfter: true,
	}
	if _, err := ic.taskClient.Add(task).Save(); err != nil {
		os.Remove(spooled)
		errorJSON(c, http.StatusInternalServerError, fmt.Sprintf("failed to enqueue import: %v", err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "file": filename})
}

func saveUpload(file multipart.File, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "mnemo-upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", fmt.Errorf("failed to spool upload: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to spool upload: %w", err)
	}
	return tmp.Name(), nil
}
