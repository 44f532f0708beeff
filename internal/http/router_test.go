package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/auth"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/database/users"
	"github.com/mlevchik/mnemo/internal/services"
)

type testEnv struct {
	router *gin.Engine
	notes  *notes.Repository
	users  *users.Repository
}

func setupRouter(t *testing.T, authMode config.AuthMode) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	noteRepo := notes.NewRepository(db.DB)
	sessionRepo := sessions.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	cfg := &config.Config{}
	cfg.Auth.Mode = authMode

	router := NewRouter(RouterConfig{
		Config:        cfg,
		Notes:         noteRepo,
		Sessions:      sessionRepo,
		Users:         userRepo,
		ImportService: services.NewImportService(noteRepo, sessionRepo),
	})
	return &testEnv{router: router, notes: noteRepo, users: userRepo}
}

func uploadRequest(t *testing.T, url, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestImportTextEndpoint(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	req := uploadRequest(t, "/api/import/text", "deck.tsv",
		"hello\tbonjour\ngoodbye\tau revoir\n", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Added)
	assert.NotZero(t, resp.SessionID)

	// The imported notes are browsable.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes?note_type=Basic", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bonjour")
}

func TestImportTextRejectsBadPolicy(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	req := uploadRequest(t, "/api/import/text", "deck.tsv", "a\tb\n",
		map[string]string{"on_duplicate": "bogus"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportTextRequiresFile(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/import/text", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNoteTypes(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notetypes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Basic (reversed)")
	assert.Contains(t, body, "Vocabulary")
}

func TestSessionsEndpoints(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	req := uploadRequest(t, "/api/import/text", "deck.tsv", "a\tb\n", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deck.tsv")

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	// Finished sessions cannot be canceled.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/1/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetNoteNotFound(t *testing.T) {
	env := setupRouter(t, config.AuthModeNone)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenAuthGuardsAPI(t *testing.T) {
	env := setupRouter(t, config.AuthModeToken)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notetypes", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	hash, err := auth.HashPassword("a long enough password", 4)
	require.NoError(t, err)
	user, err := env.users.Create("alice", hash)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notetypes", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueToken(t *testing.T) {
	env := setupRouter(t, config.AuthModeToken)

	hash, err := auth.HashPassword("a long enough password", 4)
	require.NoError(t, err)
	user, err := env.users.Create("alice", hash)
	require.NoError(t, err)
	oldToken := user.Token

	body := bytes.NewBufferString(`{"username":"alice","password":"a long enough password"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.NotEqual(t, oldToken, resp["token"])

	// Wrong password is rejected without detail.
	body = bytes.NewBufferString(`{"username":"alice","password":"wrong password!!"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/auth/token", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
