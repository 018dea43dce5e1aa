package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artsync/internal/artsync"
	"artsync/internal/testutil"
)

const principalHeader = "X-Principal-ID"

type stubSyncer struct {
	res   *artsync.Result
	info  *artsync.RepositoryInfo
	err   error
	panic bool

	scopes []artsync.Scope
}

func (s *stubSyncer) Sync(_ context.Context, scope artsync.Scope) (*artsync.Result, error) {
	if s.panic {
		panic("boom")
	}
	s.scopes = append(s.scopes, scope)
	return s.res, s.err
}

func (s *stubSyncer) TestConnection(_ context.Context, scope artsync.Scope) (*artsync.RepositoryInfo, error) {
	s.scopes = append(s.scopes, scope)
	return s.info, s.err
}

func post(t *testing.T, h http.Handler, principal, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(body))
	if principal != "" {
		req.Header.Set(principalHeader, principal)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return rec, out
}

func TestHandleSync_Success(t *testing.T) {
	t.Parallel()

	syncer := &stubSyncer{res: &artsync.Result{FilesUpdated: 3, CommitHash: "abc123"}}
	srv := NewServer(":0", principalHeader, syncer, artsync.NewNopLogger())

	rec, out := post(t, srv.Handler(), "alice", `{"scope":"team:t1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"success": true, "filesUpdated": float64(3), "commitHash": "abc123"}, out)
	assert.Equal(t, []artsync.Scope{{PrincipalID: "alice", TeamID: "t1"}}, syncer.scopes)
}

func TestHandleSync_NoOp(t *testing.T) {
	t.Parallel()

	syncer := &stubSyncer{res: &artsync.Result{NoOp: true}}
	srv := NewServer(":0", principalHeader, syncer, artsync.NewNopLogger())

	rec, out := post(t, srv.Handler(), "alice", `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "no artefacts to sync"}, out)
	assert.Equal(t, []artsync.Scope{{PrincipalID: "alice"}}, syncer.scopes)
}

func TestHandleSync_TestConnection(t *testing.T) {
	t.Parallel()

	syncer := &stubSyncer{info: &artsync.RepositoryInfo{FullName: "acme/library"}}
	srv := NewServer(":0", principalHeader, syncer, artsync.NewNopLogger())

	rec, out := post(t, srv.Handler(), "alice", `{"scope":"personal","testConnection":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "acme/library", out["repository"])
}

func TestHandleSync_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal string
		body      string
		err       error
		wantCode  int
		wantError string
	}{
		{
			name:      "missing principal",
			body:      `{}`,
			wantCode:  http.StatusUnauthorized,
			wantError: "not signed in",
		},
		{
			name:      "malformed body",
			principal: "alice",
			body:      `{"scope":`,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "unknown field",
			principal: "alice",
			body:      `{"scopes":"personal"}`,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "bad scope",
			principal: "alice",
			body:      `{"scope":"org:1"}`,
			wantCode:  http.StatusBadRequest,
			wantError: `unknown scope "org:1"`,
		},
		{
			name:      "config error",
			principal: "alice",
			body:      `{}`,
			err:       &artsync.ConfigError{Msg: "no access token configured"},
			wantCode:  http.StatusBadRequest,
			wantError: "no access token configured",
		},
		{
			name:      "serialization error",
			principal: "alice",
			body:      `{}`,
			err:       &artsync.SerializationError{Kind: artsync.KindWorkflow, RecordID: "w1", Err: errors.New("bad json")},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "serializing workflow w1: bad json",
		},
		{
			name:      "conflict",
			principal: "alice",
			body:      `{}`,
			err:       &artsync.UpstreamError{Step: "update ref", Err: artsync.ErrConflict},
			wantCode:  http.StatusConflict,
			wantError: "update ref: branch was updated by another sync",
		},
		{
			name:      "upstream error",
			principal: "alice",
			body:      `{}`,
			err:       &artsync.UpstreamError{Step: "create tree", Err: errors.New("502 Bad Gateway")},
			wantCode:  http.StatusBadGateway,
			wantError: "create tree: 502 Bad Gateway",
		},
		{
			name:      "internal error is not echoed",
			principal: "alice",
			body:      `{}`,
			err:       fmt.Errorf("listing prompt records: %w", errors.New("disk I/O error")),
			wantCode:  http.StatusInternalServerError,
			wantError: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			syncer := &stubSyncer{err: tt.err}
			srv := NewServer(":0", principalHeader, syncer, artsync.NewNopLogger())

			rec, out := post(t, srv.Handler(), tt.principal, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotContains(t, out, "success")
			require.Contains(t, out, "error")
			if tt.wantError != "" {
				assert.Contains(t, out["error"], tt.wantError)
			}
		})
	}
}

func TestHandleSync_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	logger := testutil.NewRecordingLogger()
	srv := NewServer(":0", principalHeader, &stubSyncer{panic: true}, logger)

	rec, out := post(t, srv.Handler(), "alice", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", out["error"])
	assert.True(t, logger.Has("ERROR", "handler panicked"))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(":0", principalHeader, &stubSyncer{}, artsync.NewNopLogger())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSyncRoute_RejectsGet(t *testing.T) {
	t.Parallel()

	srv := NewServer(":0", principalHeader, &stubSyncer{}, artsync.NewNopLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
