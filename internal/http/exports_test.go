package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/database"
	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/exporters"
)

type stubSource struct {
	result *entities.ExportResult
	err    error

	courseIDs []int64
}

func (s *stubSource) Parse(_ context.Context, courseIDs []int64) (*entities.ExportResult, error) {
	s.courseIDs = courseIDs
	return s.result, s.err
}

type routerFixture struct {
	router *gin.Engine
	db     *database.Database
	source *stubSource
}

func newRouterFixture(t *testing.T, cfg RouterConfig) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	source := &stubSource{result: &entities.ExportResult{
		Assets:      []entities.Asset{{UID: "asset-uid-1"}},
		Collections: []entities.Collection{{UID: "collection-uid-1", AssetUIDs: []string{"asset-uid-1"}}},
	}}

	cfg.Database = db
	cfg.ExportService = exporters.NewService(source, db, db, "canvas", zap.NewNop())
	cfg.Logger = zap.NewNop()

	return &routerFixture{
		router: NewRouter(cfg),
		db:     db,
		source: source,
	}
}

func (f *routerFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestTrigger_SynchronousRun(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	w := f.do(http.MethodPost, "/api/export", "", ExportTriggerRequest{CourseIDs: []int64{5013}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExportTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Queued)
	assert.Equal(t, []int64{5013}, resp.CourseIDs)
	require.NotNil(t, resp.Report)
	assert.Equal(t, entities.RunStatusCompleted, resp.Report.Status)
	assert.Equal(t, 1, resp.Report.Assets)

	assert.Equal(t, []int64{5013}, f.source.courseIDs)
}

func TestTrigger_FallsBackToConfiguredCourses(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{DefaultCourseIDs: []int64{7, 8}})

	w := f.do(http.MethodPost, "/api/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{7, 8}, f.source.courseIDs)
}

func TestTrigger_NoCourseIDsAnywhere(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	w := f.do(http.MethodPost, "/api/export", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no course ids")
}

func TestTrigger_FailedRunReturnsBadGateway(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})
	f.source.result = nil
	f.source.err = context.DeadlineExceeded

	w := f.do(http.MethodPost, "/api/export", "", ExportTriggerRequest{CourseIDs: []int64{5013}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAuthorization(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{APIToken: "secret"})

	t.Run("missing token is rejected", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/exports", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/export", "wrong", ExportTriggerRequest{CourseIDs: []int64{1}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("correct token is accepted", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/exports", "secret", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestListAndGetRuns(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	w := f.do(http.MethodPost, "/api/export", "", ExportTriggerRequest{CourseIDs: []int64{5013}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/exports", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Runs []entities.ExportRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Runs, 1)
	runID := listResp.Runs[0].ID

	w = f.do(http.MethodGet, "/api/exports/"+strconv.FormatUint(uint64(runID), 10), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var getResp struct {
		Run         entities.ExportRun    `json:"run"`
		Assets      []entities.Asset      `json:"assets"`
		Collections []entities.Collection `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &getResp))
	assert.Equal(t, runID, getResp.Run.ID)
	assert.Len(t, getResp.Assets, 1)
	assert.Len(t, getResp.Collections, 1)
}

func TestGetRun_Invalid(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	w := f.do(http.MethodGet, "/api/exports/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/exports/99999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthcheck(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{Version: "test"})

	w := f.do(http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "ok", resp.Checks["database"])
}
