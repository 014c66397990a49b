package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media"
	"github.com/mamadbah2/kebunku/internal/media/local"
	"github.com/mamadbah2/kebunku/internal/repository/memory"
	"github.com/mamadbah2/kebunku/internal/server/handlers"
	"github.com/mamadbah2/kebunku/internal/service/activity"
	"github.com/mamadbah2/kebunku/internal/service/plants"
	"github.com/mamadbah2/kebunku/internal/service/preferences"
	"github.com/mamadbah2/kebunku/internal/service/timeline"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// nameUploader fails files whose name contains "fail" and otherwise returns
// a URL derived from the name.
type nameUploader struct{}

func (nameUploader) Upload(_ context.Context, _ string, f media.File, onProgress media.ProgressFunc) (string, error) {
	onProgress(100)
	if strings.Contains(f.Name, "fail") {
		return "", errors.New("media host rejected upload")
	}
	return "https://cdn.test/" + f.Name, nil
}

type harness struct {
	t     *testing.T
	store *memory.Store
	http  http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	photos, err := local.NewStore(t.TempDir(), "http://localhost/media", nil)
	require.NoError(t, err)

	actSvc := activity.NewService(store, store, nameUploader{}, activity.Options{}, nil, nil)
	h := Handlers{
		Plants:      handlers.NewPlantHandler(plants.NewService(store, nil), nil),
		Activities:  handlers.NewActivityHandler(actSvc, timeline.NewService(store, nil, nil), activity.NewRegistry(), 1<<20, nil),
		Preferences: handlers.NewPreferencesHandler(preferences.NewService(store, nil), nil),
		Media:       handlers.NewMediaHandler(photos, nil),
	}
	return &harness{t: t, store: store, http: New(h, nil)}
}

func (h *harness) do(method, path, owner string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if owner != "" {
		req.Header.Set(handlers.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	h.http.ServeHTTP(rec, req)
	return rec
}

func (h *harness) json(method, path string, payload any) *httptest.ResponseRecorder {
	h.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(h.t, err)
	return h.do(method, path, "u1", bytes.NewBuffer(raw), "application/json")
}

type part struct {
	field string
	value string
}

func (h *harness) multipart(method, path string, fields []part, files ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range fields {
		require.NoError(h.t, mw.WriteField(f.field, f.value))
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile("photos[]", name)
		require.NoError(h.t, err)
		_, err = fw.Write(pngBytes)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	return h.do(method, path, "u1", body, mw.FormDataContentType())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type submitResponse struct {
	SubmissionID string          `json:"submissionId"`
	Result       activity.Result `json:"result"`
}

func (h *harness) createPlant() models.Plant {
	rec := h.json(http.MethodPost, "/api/plants", map[string]string{"categoryId": "Anggur", "variety": "Jupiter", "groupId": "buah"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Plant](h.t, rec)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil, "").Code)

	rec := h.do(http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresOwner(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/plants", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlantRoutes(t *testing.T) {
	h := newHarness(t)
	p := h.createPlant()

	rec := h.json(http.MethodPost, "/api/plants", map[string]string{"categoryId": "anggur", "variety": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/catalog/categories", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Anggur"}, decode[map[string][]string](t, rec)["categories"])

	rec = h.json(http.MethodPost, "/api/plants/recategorize", map[string]string{"from": "ANGGUR", "to": "Vitis"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["updated"])

	rec = h.do(http.MethodGet, "/api/plants/search?q=jup", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"vitis"`)

	rec = h.do(http.MethodDelete, "/api/plants/"+p.ID, "u2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodDelete, "/api/plants/"+p.ID, "u1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateActivityRejectsMissingPlant(t *testing.T) {
	h := newHarness(t)
	rec := h.multipart(http.MethodPost, "/api/activities", []part{
		{"target_scope", "variety"},
		{"type", "monitor"},
		{"date", "2024-01-01"},
	}, "a.png")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[map[string]string](t, rec)["kind"])

	list, err := h.store.ListActivities(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateActivitySkipsFailedUpload(t *testing.T) {
	h := newHarness(t)
	p := h.createPlant()

	rec := h.multipart(http.MethodPost, "/api/activities", []part{
		{"target_scope", "variety"},
		{"plant_id", p.ID},
		{"type", "pupuk"},
		{"product_name", "Urea"},
		{"dosis", "1g/l"},
		{"volume", "5l"},
		{"method", "spray"},
		{"date", "2024-03-10"},
		{"on_upload_failure", "skip"},
	}, "one.png", "fail.png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[submitResponse](t, rec)
	assert.NotEmpty(t, res.SubmissionID)
	a := res.Result.Activity
	assert.Equal(t, "1 gr/ltr", a.Dosis)
	assert.Equal(t, "5 ltr", a.Volume)
	assert.Equal(t, []string{"https://cdn.test/one.png"}, a.PhotoURLs)
	assert.Equal(t, "https://cdn.test/one.png", a.PhotoURL)
	assert.Equal(t, "Anggur - Jupiter", a.TargetValue)
}

func TestCreateActivityAbortsByDefault(t *testing.T) {
	h := newHarness(t)
	p := h.createPlant()

	rec := h.multipart(http.MethodPost, "/api/activities", []part{
		{"plant_id", p.ID},
		{"type", "monitor"},
		{"date", "2024-03-10"},
	}, "fail.png")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upload", decode[map[string]string](t, rec)["kind"])
}

func TestUpdateActivityAndTimeline(t *testing.T) {
	h := newHarness(t)

	rec := h.multipart(http.MethodPost, "/api/activities", []part{
		{"target_scope", "category"},
		{"target_value", "Anggur"},
		{"type", "monitor"},
		{"date", "2024-01-01"},
	}, "old.png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[submitResponse](t, rec).Result

	rec = h.multipart(http.MethodPost, "/api/activities", []part{
		{"target_scope", "group"},
		{"target_value", "buah"},
		{"type", "pangkas"},
		{"date", "2024-02-01"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.multipart(http.MethodPut, "/api/activities/"+first.ID, []part{
		{"description", "daun menguning"},
		{"keep_photos[]", ""},
	}, "new.png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[submitResponse](t, rec).Result.Activity
	assert.Equal(t, []string{"https://cdn.test/new.png"}, updated.PhotoURLs)
	assert.Equal(t, "daun menguning", updated.Description)
	assert.Equal(t, models.ScopeCategory, updated.TargetScope)

	rec = h.do(http.MethodGet, "/api/activities?type=all&page=1&page_size=10", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[timeline.Page](t, rec)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "Kelompok: buah", page.Entries[0].Label)
	assert.Equal(t, "Kategori: Anggur", page.Entries[1].Label)

	rec = h.do(http.MethodGet, "/api/activities?type=dance", "u1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodDelete, "/api/activities/"+first.ID, "u1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSubmissionControlUnknownID(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/submissions/nope", "u1", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/submissions/nope/skip", "u1", nil, "").Code)
}

func TestPreferencesRoutes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/preferences", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ThemeOrange, decode[models.Preferences](t, rec).Theme)

	rec = h.json(http.MethodPut, "/api/preferences", map[string]string{"theme": "slate"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ThemeSlate, decode[models.Preferences](t, rec).Theme)

	rec = h.json(http.MethodPut, "/api/preferences", map[string]string{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaRouteRejectsTraversal(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/media/activities/u1/missing.png", "", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/media/..%2f..%2fetc%2fpasswd", "", nil, "").Code)
}
