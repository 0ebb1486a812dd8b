package handler_test

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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityhub/utilityhub/internal/ai"
	"github.com/utilityhub/utilityhub/internal/api/handler"
	mw "github.com/utilityhub/utilityhub/internal/api/middleware"
	"github.com/utilityhub/utilityhub/internal/apps"
	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/runner"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

var testOwnerID = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")

// --- fakes ---

type fakeStore struct {
	store.Store

	files     map[uuid.UUID]*models.File
	jobs      map[uuid.UUID]*models.Job
	keys      map[uuid.UUID]*models.APIKey
	events    []*models.UsageEvent
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files: make(map[uuid.UUID]*models.File),
		jobs:  make(map[uuid.UUID]*models.Job),
		keys:  make(map[uuid.UUID]*models.APIKey),
	}
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) CreateFile(_ context.Context, file *models.File) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.files[file.ID] = file
	return nil
}

func (s *fakeStore) GetFile(_ context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	f, ok := s.files[id]
	if !ok || f.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (s *fakeStore) CreateJob(_ context.Context, job *models.Job) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, id, ownerID uuid.UUID) (*models.Job, error) {
	j, ok := s.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) ListRecentJobs(_ context.Context, ownerID uuid.UUID, limit int) ([]*models.Job, error) {
	var out []*models.Job
	for _, j := range s.jobs {
		if j.OwnerID == ownerID {
			out = append(out, j)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.keys[key.ID] = key
	return nil
}

func (s *fakeStore) ListAPIKeys(_ context.Context, ownerID uuid.UUID) ([]*models.APIKey, error) {
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.OwnerID == ownerID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *fakeStore) RevokeAPIKey(_ context.Context, id, ownerID uuid.UUID) error {
	k, ok := s.keys[id]
	if !ok || k.OwnerID != ownerID {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	return nil
}

func (s *fakeStore) CreateUsageEvent(_ context.Context, event *models.UsageEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fakeBlob struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func (b *fakeBlob) Get(_ context.Context, key string) (any, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (b *fakeBlob) Put(_ context.Context, key string, data []byte, _ string, _ map[string]string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlob) Ping(_ context.Context) error { return nil }

// fakeCache keeps cached jobs in a map so tests can seed hits and
// inspect what the handlers primed.
type fakeCache struct {
	cache.Cache

	jobs map[uuid.UUID]*models.Job
}

func (c *fakeCache) SetJob(_ context.Context, job *models.Job, _ time.Duration) error {
	if c.jobs == nil {
		c.jobs = make(map[uuid.UUID]*models.Job)
	}
	c.jobs[job.ID] = job
	return nil
}

func (c *fakeCache) GetJob(_ context.Context, jobID uuid.UUID) (*models.Job, bool, error) {
	j, ok := c.jobs[jobID]
	return j, ok, nil
}

type failingPinger struct{}

func (failingPinger) Ping(_ context.Context) error { return errors.New("down") }

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

type fakeRunner struct {
	outcomes  []runner.Outcome
	err       error
	lastLimit int
}

func (r *fakeRunner) RunBatch(_ context.Context, limit int) ([]runner.Outcome, error) {
	r.lastLimit = limit
	return r.outcomes, r.err
}

type fakeExplainer struct {
	resp *ai.ExplainResponse
	err  error
}

func (e *fakeExplainer) Explain(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ uuid.UUID) (*ai.ExplainResponse, error) {
	return e.resp, e.err
}

// --- helpers ---

func authed(req *http.Request) *http.Request {
	ctx := mw.SetOwnerID(req.Context(), testOwnerID)
	keyID := uuid.New()
	ctx = mw.SetAPIKeyID(ctx, keyID)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data envelope, got %s", w.Body.String())
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return errBody
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	part, err := mp.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mp.Close())
	return &buf, mp.FormDataContentType()
}

func seedFile(s *fakeStore, b *fakeBlob, ownerID uuid.UUID) *models.File {
	file := &models.File{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		StorageKey:  "seed/" + uuid.NewString(),
		Filename:    "people.csv",
		ContentType: "text/csv",
		Source:      models.FileSourceUpload,
	}
	s.files[file.ID] = file
	if b != nil {
		b.objects[file.StorageKey] = []byte("Name\nAlice\n")
	}
	return file
}

// --- health ---

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(okPinger{}, okPinger{}, okPinger{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "ok", data["status"])
}

func TestHealthHandlerDegraded(t *testing.T) {
	h := handler.NewHealthHandler(okPinger{}, failingPinger{}, okPinger{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "degraded", data["status"])
	checks := data["checks"].(map[string]any)
	assert.Equal(t, "unreachable", checks["cache"])
}

// --- files ---

func TestUploadFile(t *testing.T) {
	st := newFakeStore()
	bl := newFakeBlob()
	h := handler.NewUploadFileHandler(st, bl, 1<<20)

	body, contentType := multipartUpload(t, "people.csv", []byte("Name\nAlice\n"))
	req := authed(httptest.NewRequest("POST", "/api/v1/files", body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "people.csv", data["filename"])
	assert.Equal(t, "text/csv", data["content_type"])
	assert.Equal(t, "upload", data["source"])
	assert.NotEmpty(t, data["sha256"])
	// Storage key never leaks to clients.
	_, exposed := data["storage_key"]
	assert.False(t, exposed)

	require.Len(t, st.files, 1)
	require.Len(t, bl.objects, 1)
	require.Len(t, st.events, 1)
	assert.Equal(t, models.EventUpload, st.events[0].EventType)
	assert.False(t, st.events[0].CreatedAt.IsZero())
}

func TestUploadFileMissingPart(t *testing.T) {
	h := handler.NewUploadFileHandler(newFakeStore(), newFakeBlob(), 1<<20)

	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	require.NoError(t, mp.WriteField("other", "value"))
	require.NoError(t, mp.Close())

	req := authed(httptest.NewRequest("POST", "/api/v1/files", &buf))
	req.Header.Set("Content-Type", mp.FormDataContentType())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadFileTooLarge(t *testing.T) {
	h := handler.NewUploadFileHandler(newFakeStore(), newFakeBlob(), 16)

	body, contentType := multipartUpload(t, "big.csv", bytes.Repeat([]byte("x"), 1024))
	req := authed(httptest.NewRequest("POST", "/api/v1/files", body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, w)["code"])
}

func TestGetFileNotFound(t *testing.T) {
	h := handler.NewGetFileHandler(newFakeStore())

	req := authed(httptest.NewRequest("GET", "/api/v1/files/x", nil))
	req = withURLParam(req, "fileID", uuid.NewString())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadFile(t *testing.T) {
	st := newFakeStore()
	bl := newFakeBlob()
	file := seedFile(st, bl, testOwnerID)

	h := handler.NewDownloadFileHandler(st, bl)

	req := authed(httptest.NewRequest("GET", "/api/v1/files/x/download", nil))
	req = withURLParam(req, "fileID", file.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "people.csv")
	assert.Equal(t, "Name\nAlice\n", w.Body.String())
}

func TestDownloadFileOtherOwner(t *testing.T) {
	st := newFakeStore()
	bl := newFakeBlob()
	file := seedFile(st, bl, uuid.New()) // different owner

	h := handler.NewDownloadFileHandler(st, bl)

	req := authed(httptest.NewRequest("GET", "/api/v1/files/x/download", nil))
	req = withURLParam(req, "fileID", file.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- jobs ---

func createJobRequest(t *testing.T, body map[string]any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := authed(httptest.NewRequest("POST", "/api/v1/jobs", bytes.NewReader(data)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateJob(t *testing.T) {
	st := newFakeStore()
	ca := &fakeCache{}
	file := seedFile(st, nil, testOwnerID)
	h := handler.NewCreateJobHandler(st, ca, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, createJobRequest(t, map[string]any{
		"app_id":        apps.CSVProfilerID,
		"input_file_id": file.ID.String(),
		"options":       map[string]any{"removeDuplicateRows": true},
	}))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, float64(0), data["progress"])
	assert.Equal(t, apps.CSVProfilerID, data["app_id"])

	require.Len(t, st.jobs, 1)
	require.Len(t, st.events, 1)
	assert.Equal(t, models.EventJobCreated, st.events[0].EventType)
	assert.False(t, st.events[0].CreatedAt.IsZero())

	// The fresh row is primed for the first poll.
	assert.Len(t, ca.jobs, 1)
}

func TestCreateJobUnknownApp(t *testing.T) {
	st := newFakeStore()
	file := seedFile(st, nil, testOwnerID)
	h := handler.NewCreateJobHandler(st, &fakeCache{}, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, createJobRequest(t, map[string]any{
		"app_id":        "pdf_merger",
		"input_file_id": file.ID.String(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_APP", decodeError(t, w)["code"])
	assert.Empty(t, st.jobs)
}

func TestCreateJobInvalidOptions(t *testing.T) {
	st := newFakeStore()
	file := seedFile(st, nil, testOwnerID)
	h := handler.NewCreateJobHandler(st, &fakeCache{}, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, createJobRequest(t, map[string]any{
		"app_id":        apps.CSVProfilerID,
		"input_file_id": file.ID.String(),
		"options":       map[string]any{"removeDuplicateRows": "yes"},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_OPTIONS", decodeError(t, w)["code"])
}

func TestCreateJobUnsupportedContentType(t *testing.T) {
	st := newFakeStore()
	file := seedFile(st, nil, testOwnerID)
	file.ContentType = "application/pdf"
	h := handler.NewCreateJobHandler(st, &fakeCache{}, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, createJobRequest(t, map[string]any{
		"app_id":        apps.CSVProfilerID,
		"input_file_id": file.ID.String(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_CONTENT_TYPE", decodeError(t, w)["code"])
	assert.Empty(t, st.jobs)
}

func TestCreateJobInputFileNotFound(t *testing.T) {
	h := handler.NewCreateJobHandler(newFakeStore(), &fakeCache{}, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, createJobRequest(t, map[string]any{
		"app_id":        apps.CSVProfilerID,
		"input_file_id": uuid.NewString(),
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob(t *testing.T) {
	st := newFakeStore()
	ca := &fakeCache{}
	job := &models.Job{ID: uuid.New(), OwnerID: testOwnerID, Status: models.JobStatusProcessing, Progress: 55}
	st.jobs[job.ID] = job

	h := handler.NewGetJobHandler(st, ca)

	req := authed(httptest.NewRequest("GET", "/api/v1/jobs/x", nil))
	req = withURLParam(req, "jobID", job.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, float64(55), data["progress"])

	// A miss primes the cache for the next poll.
	cached, found, err := ca.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, job.ID, cached.ID)
}

func TestGetJobServedFromCache(t *testing.T) {
	// The job exists only in the cache; a 200 proves the handler never
	// reached the store.
	ca := &fakeCache{}
	job := &models.Job{ID: uuid.New(), OwnerID: testOwnerID, Status: models.JobStatusProcessing, Progress: 20}
	require.NoError(t, ca.SetJob(context.Background(), job, time.Second))

	h := handler.NewGetJobHandler(newFakeStore(), ca)

	req := authed(httptest.NewRequest("GET", "/api/v1/jobs/x", nil))
	req = withURLParam(req, "jobID", job.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, float64(20), data["progress"])
}

func TestGetJobCachedOtherOwnerNotFound(t *testing.T) {
	ca := &fakeCache{}
	job := &models.Job{ID: uuid.New(), OwnerID: uuid.New(), Status: models.JobStatusCompleted, Progress: 100}
	require.NoError(t, ca.SetJob(context.Background(), job, time.Second))

	h := handler.NewGetJobHandler(newFakeStore(), ca)

	req := authed(httptest.NewRequest("GET", "/api/v1/jobs/x", nil))
	req = withURLParam(req, "jobID", job.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobsInvalidLimit(t *testing.T) {
	h := handler.NewListJobsHandler(newFakeStore())

	req := authed(httptest.NewRequest("GET", "/api/v1/jobs?limit=-3", nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- batch run ---

func TestRunBatchDefaults(t *testing.T) {
	fr := &fakeRunner{outcomes: []runner.Outcome{{JobID: uuid.New(), Status: models.JobStatusCompleted}}}
	h := handler.NewRunBatchHandler(fr)

	req := authed(httptest.NewRequest("POST", "/api/v1/internal/jobs/run", strings.NewReader("")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, fr.lastLimit)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["count"])
}

func TestRunBatchLimitOutOfRange(t *testing.T) {
	h := handler.NewRunBatchHandler(&fakeRunner{})

	req := authed(httptest.NewRequest("POST", "/api/v1/internal/jobs/run", strings.NewReader(`{"limit": 50}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunBatchCustomLimit(t *testing.T) {
	fr := &fakeRunner{}
	h := handler.NewRunBatchHandler(fr)

	req := authed(httptest.NewRequest("POST", "/api/v1/internal/jobs/run", strings.NewReader(`{"limit": 5}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, fr.lastLimit)
}

// --- ai explain ---

func TestExplainSuccess(t *testing.T) {
	fe := &fakeExplainer{resp: &ai.ExplainResponse{Summary: "Clean dataset", Provider: "mock"}}
	h := handler.NewExplainHandler(fe)

	req := authed(httptest.NewRequest("POST", "/api/v1/ai/explain",
		strings.NewReader(`{"job_id": "`+uuid.NewString()+`"}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Clean dataset", data["summary"])
}

func TestExplainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"disabled", ai.ErrDisabled, http.StatusServiceUnavailable, "AI_DISABLED"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"not completed", ai.ErrJobNotCompleted, http.StatusConflict, "JOB_NOT_COMPLETED"},
		{"rate limited", ai.ErrRateLimited, http.StatusTooManyRequests, "AI_RATE_LIMIT_EXCEEDED"},
		{"daily cap", ai.ErrDailyCapExceeded, http.StatusTooManyRequests, "AI_DAILY_CAP_EXCEEDED"},
		{"provider down", models.ErrProviderUnavailable, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE"},
		{"timeout", models.ErrInferenceTimeout, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewExplainHandler(&fakeExplainer{err: tt.err})

			req := authed(httptest.NewRequest("POST", "/api/v1/ai/explain",
				strings.NewReader(`{"job_id": "`+uuid.NewString()+`"}`)))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w)["code"])
		})
	}
}

// --- admin keys ---

func TestCreateKey(t *testing.T) {
	st := newFakeStore()
	h := handler.NewCreateKeyHandler(st)

	req := authed(httptest.NewRequest("POST", "/api/v1/admin/keys",
		strings.NewReader(`{"name": "ci", "scopes": ["jobs", "service"]}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)

	rawKey := data["key"].(string)
	assert.True(t, strings.HasPrefix(rawKey, "uh_live_"))
	assert.Equal(t, rawKey[:16], data["key_prefix"])

	require.Len(t, st.keys, 1)
	for _, stored := range st.keys {
		// The raw key is never persisted.
		assert.NotEqual(t, rawKey, stored.KeyHash)
		assert.NotEmpty(t, stored.KeyHash)
	}
}

func TestCreateKeyInvalidScope(t *testing.T) {
	h := handler.NewCreateKeyHandler(newFakeStore())

	req := authed(httptest.NewRequest("POST", "/api/v1/admin/keys",
		strings.NewReader(`{"name": "ci", "scopes": ["root"]}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokeKey(t *testing.T) {
	st := newFakeStore()
	key := &models.APIKey{ID: uuid.New(), OwnerID: testOwnerID}
	st.keys[key.ID] = key

	h := handler.NewRevokeKeyHandler(st)

	req := authed(httptest.NewRequest("DELETE", "/api/v1/admin/keys/x", nil))
	req = withURLParam(req, "keyID", key.ID.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotNil(t, st.keys[key.ID].RevokedAt)
}

func TestRevokeKeyNotFound(t *testing.T) {
	h := handler.NewRevokeKeyHandler(newFakeStore())

	req := authed(httptest.NewRequest("DELETE", "/api/v1/admin/keys/x", nil))
	req = withURLParam(req, "keyID", uuid.NewString())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
