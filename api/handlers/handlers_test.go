package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

type fakeAcquisitions struct {
	mu        sync.Mutex
	submitted []domain.DownloadRequest
	progress  map[int]domain.DownloadProgress
	running   map[int]bool
	submitErr error
}

func newFakeAcquisitions() *fakeAcquisitions {
	return &fakeAcquisitions{progress: map[int]domain.DownloadProgress{}, running: map[int]bool{}}
}

func (f *fakeAcquisitions) Submit(ctx context.Context, req domain.DownloadRequest) (domain.Acceptance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return domain.Acceptance{}, f.submitErr
	}
	if err := req.Validate(); err != nil {
		return domain.Acceptance{}, err
	}
	if f.running[req.ContentID] {
		return domain.Acceptance{}, domain.ErrAlreadyInProgress
	}
	f.running[req.ContentID] = true
	f.submitted = append(f.submitted, req)
	p := domain.NewDownloadProgress(req.ContentID, req.Title)
	f.progress[req.ContentID] = p
	return domain.Acceptance{RequestID: p.RequestID, ContentID: req.ContentID}, nil
}

func (f *fakeAcquisitions) Progress(contentID int) (domain.DownloadProgress, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[contentID]
	return p, ok
}

func (f *fakeAcquisitions) List() []domain.DownloadProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DownloadProgress, 0, len(f.progress))
	for _, p := range f.progress {
		out = append(out, p)
	}
	return out
}

func (f *fakeAcquisitions) Cancel(contentID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[contentID] {
		return false
	}
	delete(f.running, contentID)
	return true
}

func (f *fakeAcquisitions) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.running)
}

type fakeLibrary struct {
	tracks map[string]domain.PersistedTrack
	err    error
}

func (l *fakeLibrary) Tracks(ctx context.Context) ([]domain.PersistedTrack, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []domain.PersistedTrack
	for _, t := range l.tracks {
		out = append(out, t)
	}
	return out, nil
}

func (l *fakeLibrary) Track(ctx context.Context, id string) (*domain.PersistedTrack, error) {
	if t, ok := l.tracks[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (l *fakeLibrary) Remove(ctx context.Context, id string) (bool, error) {
	if _, ok := l.tracks[id]; !ok {
		return false, nil
	}
	delete(l.tracks, id)
	return true, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func acquisitionRouter(service AcquisitionService) *gin.Engine {
	h := NewAcquisitionHandler(service, zap.NewNop())
	r := gin.New()
	r.POST("/acquisitions", h.Acquire)
	r.GET("/acquisitions", h.ListAcquisitions)
	r.GET("/acquisitions/:id", h.GetAcquisition)
	r.DELETE("/acquisitions/:id", h.CancelAcquisition)
	return r
}

func perform(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAcquisitionHandler_Acquire(t *testing.T) {
	service := newFakeAcquisitions()
	r := acquisitionRouter(service)

	w := perform(r, http.MethodPost, "/acquisitions", `{"content_id":42,"title":"Song"}`,
		map[string]string{"Authorization": "Bearer secret"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var acceptance domain.Acceptance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acceptance))
	assert.Equal(t, 42, acceptance.ContentID)
	assert.NotEmpty(t, acceptance.RequestID)
	assert.Equal(t, "secret", service.submitted[0].AccessToken)

	w = perform(r, http.MethodPost, "/acquisitions", `{"content_id":42,"title":"Song"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"already in progress"}`, w.Body.String())
}

func TestAcquisitionHandler_BodyTokenWins(t *testing.T) {
	service := newFakeAcquisitions()
	r := acquisitionRouter(service)

	w := perform(r, http.MethodPost, "/acquisitions", `{"content_id":1,"access_token":"from-body"}`,
		map[string]string{"Authorization": "Bearer from-header"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "from-body", service.submitted[0].AccessToken)
}

func TestAcquisitionHandler_BadRequests(t *testing.T) {
	r := acquisitionRouter(newFakeAcquisitions())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"content_id":`},
		{"missing id", `{"title":"x"}`},
		{"negative id", `{"content_id":-5}`},
		{"wrong type", `{"content_id":"abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/acquisitions", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAcquisitionHandler_SubmitFailure(t *testing.T) {
	service := newFakeAcquisitions()
	service.submitErr = errors.New("orchestrator is shutting down")
	r := acquisitionRouter(service)

	w := perform(r, http.MethodPost, "/acquisitions", `{"content_id":3}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shutting down")
}

func TestAcquisitionHandler_GetListCancel(t *testing.T) {
	service := newFakeAcquisitions()
	r := acquisitionRouter(service)
	perform(r, http.MethodPost, "/acquisitions", `{"content_id":7,"title":"Seven"}`, nil)

	w := perform(r, http.MethodGet, "/acquisitions/7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress domain.DownloadProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, "Seven", progress.Title)
	assert.Equal(t, domain.StatusDownloading, progress.Status)

	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/acquisitions/8", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/acquisitions/abc", "", nil).Code)

	w = perform(r, http.MethodGet, "/acquisitions?status=downloading", "", nil)
	var list []domain.DownloadProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = perform(r, http.MethodGet, "/acquisitions?status=completed", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodDelete, "/acquisitions/7", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodDelete, "/acquisitions/7", "", nil).Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}

func TestTrackHandler(t *testing.T) {
	library := &fakeLibrary{tracks: map[string]domain.PersistedTrack{
		"beatmap-1-a-b": {ID: "beatmap-1-a-b", ContentID: 1, Title: "a"},
	}}
	h := NewTrackHandler(library, zap.NewNop())
	r := gin.New()
	r.GET("/tracks", h.ListTracks)
	r.GET("/tracks/:id", h.GetTrack)
	r.DELETE("/tracks/:id", h.DeleteTrack)

	w := perform(r, http.MethodGet, "/tracks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tracks []domain.PersistedTrack
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tracks))
	assert.Len(t, tracks, 1)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/tracks/beatmap-1-a-b", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/tracks/nope", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodDelete, "/tracks/beatmap-1-a-b", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodDelete, "/tracks/beatmap-1-a-b", "", nil).Code)

	w = perform(r, http.MethodGet, "/tracks", "", nil)
	assert.Equal(t, "[]", w.Body.String())

	library.err = errors.New("database is locked")
	assert.Equal(t, http.StatusInternalServerError, perform(r, http.MethodGet, "/tracks", "", nil).Code)
}

func TestHealthHandler(t *testing.T) {
	service := newFakeAcquisitions()
	service.running[1] = true

	h := NewHealthHandler(fakePinger{}, service)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	w := perform(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Acquisitions.Active)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ready", "", nil).Code)

	h = NewHealthHandler(fakePinger{err: errors.New("disk I/O error")}, service)
	r = gin.New()
	r.GET("/ready", h.Ready)
	w = perform(r, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "disk I/O error")
}
