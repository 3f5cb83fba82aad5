// internal/httpserver/server_test.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/cache"
	"loanflow/internal/common/logger"
	"loanflow/internal/intake"
	"loanflow/internal/models"
	"loanflow/internal/status"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePublisher struct {
	published [][]byte
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, _, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, value)
	return nil
}

type testEnv struct {
	router    http.Handler
	publisher *fakePublisher
	store     *cache.Store
}

func setupTestServer(t *testing.T) *testEnv {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := cache.NewStore(client, cache.DefaultKeyPrefix, time.Hour)

	log := logger.NewTestLogger(t)
	pub := &fakePublisher{}
	srv := New(intake.NewService(pub, log), status.NewLookup(store, log), log)

	return &testEnv{router: srv.Router(), publisher: pub, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// ==========================
// Submit Endpoint Tests
// ==========================

func TestServer_Submit_Accepted(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, http.MethodPost, "/api/v1/applications",
		`{"applicantId":"u1","amount":5000,"termMonths":12}`)

	require.Equal(t, http.StatusAccepted, rr.Code)

	var app models.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "u1", app.ApplicantID)
	assert.Equal(t, models.StatusPending, app.Status)

	assert.Len(t, env.publisher.published, 1)
}

func TestServer_Submit_ValidationFailure(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "zero amount", body: `{"applicantId":"u1","amount":0,"termMonths":12}`},
		{name: "missing applicant id", body: `{"amount":5000,"termMonths":12}`},
		{name: "term out of range", body: `{"applicantId":"u1","amount":5000,"termMonths":120}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/v1/applications", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
	assert.Empty(t, env.publisher.published)
}

func TestServer_Submit_MalformedBody(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, http.MethodPost, "/api/v1/applications", `{not-json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Submit_DispatchFailure(t *testing.T) {
	env := setupTestServer(t)
	env.publisher.err = errors.New("broker unreachable")

	rr := env.do(t, http.MethodPost, "/api/v1/applications",
		`{"applicantId":"u1","amount":5000,"termMonths":12}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

// ==========================
// Status Endpoint Tests
// ==========================

func TestServer_GetStatus_ReturnsDecision(t *testing.T) {
	env := setupTestServer(t)

	require.NoError(t, env.store.Put(context.Background(), &models.DecisionRecord{
		ApplicantID: "u1",
		Amount:      5000,
		TermMonths:  12,
		Status:      models.StatusApproved,
		DecidedAt:   time.Now().UTC(),
	}))

	rr := env.do(t, http.MethodGet, "/api/v1/applications/u1", "")

	require.Equal(t, http.StatusOK, rr.Code)

	var rec models.DecisionRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "u1", rec.ApplicantID)
	assert.Equal(t, models.StatusApproved, rec.Status)
}

func TestServer_GetStatus_UnknownApplicant(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, http.MethodGet, "/api/v1/applications/never_submitted", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "no application found")
}

// ==========================
// Health Endpoint Tests
// ==========================

func TestServer_Health(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
