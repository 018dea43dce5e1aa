package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"artsync/internal/artsync"
)

func TestNewOperation(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60))
	op := NewOperation("Sync", now)

	if op.Name != "Sync" {
		t.Errorf("Name = %q, want %q", op.Name, "Sync")
	}
	if op.ID != "20240615T123045Z" {
		t.Errorf("ID = %q, want %q", op.ID, "20240615T123045Z")
	}
}

func TestFinishRun(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)

	tests := []struct {
		name       string
		res        *artsync.Result
		err        error
		wantStatus string
		wantFiles  int
		wantCommit string
		wantMsg    string
	}{
		{
			name:       "published",
			res:        &artsync.Result{FilesUpdated: 4, CommitHash: "c0ffee"},
			wantStatus: artsync.RunStatusSuccess,
			wantFiles:  4,
			wantCommit: "c0ffee",
		},
		{
			name:       "nothing to sync",
			res:        &artsync.Result{NoOp: true},
			wantStatus: artsync.RunStatusSuccess,
			wantMsg:    "no artefacts to sync",
		},
		{
			name:       "unchanged",
			res:        &artsync.Result{FilesUpdated: 2, CommitHash: "base", Unchanged: true},
			wantStatus: artsync.RunStatusSuccess,
			wantFiles:  2,
			wantCommit: "base",
			wantMsg:    "tree unchanged",
		},
		{
			name:       "failed",
			err:        &artsync.ConfigError{Msg: "no access token configured"},
			wantStatus: artsync.RunStatusError,
			wantMsg:    "no access token configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := finishRun(&artsync.SyncRun{ID: 7, StartedAt: start}, tt.res, tt.err, end)

			if run.ID != 7 || !run.FinishedAt.Equal(end) {
				t.Errorf("run = %+v", run)
			}
			if run.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", run.Status, tt.wantStatus)
			}
			if run.FilesUpdated != tt.wantFiles {
				t.Errorf("FilesUpdated = %d, want %d", run.FilesUpdated, tt.wantFiles)
			}
			if run.CommitHash != tt.wantCommit {
				t.Errorf("CommitHash = %q, want %q", run.CommitHash, tt.wantCommit)
			}
			if run.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", run.Message, tt.wantMsg)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&artsync.ConfigError{Msg: "x"}, "config"},
		{fmt.Errorf("wrapped: %w", &artsync.SerializationError{Kind: artsync.KindWorkflow, RecordID: "w1", Err: errors.New("bad")}), "serialization"},
		{&artsync.UpstreamError{Step: "create tree", Err: errors.New("502")}, "upstream"},
		{&artsync.UpstreamError{Step: "update ref", Err: artsync.ErrConflict}, "conflict"},
		{errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
