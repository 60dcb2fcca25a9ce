package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"law-reports-backend/internal/archive"
	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/config"
	"law-reports-backend/internal/repository"
	"law-reports-backend/internal/services/datamanager"
)

const janeCSV = "Name,Total Calls,Completed Calls,Avg Call Time\nJane Doe,10,8,5m\nJane Doe,5,5,3m\n"

type api struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Users = []config.User{{Username: "jdoe", Name: "Jane Doe", PasswordHash: string(hash)}}
	cfg.Rosters.Staff = config.RosterConfig{
		Allowed:    []string{"Jane Doe"},
		Categories: map[string]string{"Jane Doe": "Intake"},
	}

	data := datamanager.New(repository.NewMemoryStore(), nil, nil)
	require.NoError(t, data.EnsureSheets(context.Background()))

	r := gin.New()
	RegisterRoutes(r, Deps{
		Config:   cfg,
		Data:     data,
		Revoker:  auth.NewMemoryRevoker(),
		Archiver: archive.Nop{},
		Log:      zap.NewNop(),
	})
	return &api{t: t, router: r}
}

func (a *api) do(req *http.Request) *httptest.ResponseRecorder {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) json(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *api) login() {
	w := a.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "jdoe", "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res))
	a.token = res.Token
}

func (a *api) upload(report, content string, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", report+".csv")
	require.NoError(a.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/"+report, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

var january = map[string]string{"period_start": "2024-01-01", "period_end": "2024-01-31"}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthIsPublic(t *testing.T) {
	a := newAPI(t)
	w := a.json(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", decode(t, w)["store"])
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/api/batches", "/api/reports/calls", "/api/auth/me"} {
		w := a.json(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := a.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "jdoe", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadReportAndRemove(t *testing.T) {
	a := newAPI(t)
	a.login()

	w := a.upload("calls", janeCSV, january)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	batch := decode(t, w)["batch"].(map[string]any)
	batchID := batch["id"].(string)
	assert.True(t, strings.HasPrefix(batchID, "batch_"))

	w = a.upload("calls", janeCSV, january)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, batchID, decode(t, w)["existing_batch_id"])

	w = a.json(http.MethodGet, "/api/reports/calls?group_by=name", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	totals := decode(t, w)["totals"].(map[string]any)
	assert.Equal(t, 15.0, totals["total"])
	assert.Equal(t, 86.67, totals["completion_pct"])

	w = a.json(http.MethodGet, "/api/reports/calls/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Name,Category,Total Calls"))

	w = a.json(http.MethodGet, "/api/reports/calls/charts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["charts"], 4)

	w = a.json(http.MethodGet, "/api/batches?report=calls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = a.json(http.MethodDelete, "/api/batches/calls/"+batchID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["rows_removed"])

	w = a.json(http.MethodDelete, "/api/batches/calls/"+batchID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["rows_removed"])
}

func TestUploadRejections(t *testing.T) {
	a := newAPI(t)
	a.login()

	tests := []struct {
		name    string
		report  string
		content string
		fields  map[string]string
		want    int
	}{
		{"unknown report", "payroll", janeCSV, january, http.StatusBadRequest},
		{"missing period", "calls", janeCSV, nil, http.StatusBadRequest},
		{"two months", "calls", janeCSV, map[string]string{"period_start": "2024-01-01", "period_end": "2024-02-01"}, http.StatusUnprocessableEntity},
		{"missing columns", "calls", "Name,Total Calls\nJane Doe,3\n", january, http.StatusUnprocessableEntity},
		{"empty", "calls", "", january, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.upload(tt.report, tt.content, tt.fields)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	a := newAPI(t)
	a.login()
	require.Equal(t, http.StatusCreated, a.upload("calls", janeCSV, january).Code)

	w := a.json(http.MethodPost, "/api/admin/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["unchanged"], 5)

	w = a.json(http.MethodPost, "/api/admin/reset", map[string]string{"confirm": "yes"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.json(http.MethodPost, "/api/admin/reset", map[string]string{"confirm": "RESET"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.json(http.MethodGet, "/api/batches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	w = a.json(http.MethodPost, "/api/batches/calls/orphans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["rows_assigned"])
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newAPI(t)
	a.login()

	require.Equal(t, http.StatusOK, a.json(http.MethodGet, "/api/auth/me", nil).Code)
	require.Equal(t, http.StatusOK, a.json(http.MethodPost, "/api/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.json(http.MethodGet, "/api/auth/me", nil).Code)
}

func TestWeeks(t *testing.T) {
	a := newAPI(t)
	a.login()

	w := a.json(http.MethodGet, "/api/reports/weeks?month=2024-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["weeks"], 5)

	w = a.json(http.MethodGet, "/api/reports/weeks?month=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
