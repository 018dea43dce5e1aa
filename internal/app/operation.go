package app

import (
	"errors"
	"time"

	"artsync/internal/artsync"
)

// Operation identifies one CLI command or server process in the log.
// ID is derived from the start time and prefixes every log line.
type Operation struct {
	ID   string
	Name string
}

// NewOperation creates an Operation started at now.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:   now.UTC().Format("20060102T150405Z"),
		Name: name,
	}
}

// finishRun records the outcome of a sync on run and returns it.
func finishRun(run *artsync.SyncRun, res *artsync.Result, err error, now time.Time) *artsync.SyncRun {
	run.FinishedAt = now
	if err != nil {
		run.Status = artsync.RunStatusError
		run.Message = err.Error()
		return run
	}

	run.Status = artsync.RunStatusSuccess
	if res == nil {
		return run
	}
	run.FilesUpdated = res.FilesUpdated
	run.CommitHash = res.CommitHash
	switch {
	case res.NoOp:
		run.Message = "no artefacts to sync"
	case res.Unchanged:
		run.Message = "tree unchanged"
	}
	return run
}

// ErrorKind names the class of a sync error for display.
func ErrorKind(err error) string {
	var (
		cfgErr *artsync.ConfigError
		serErr *artsync.SerializationError
		upErr  *artsync.UpstreamError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, artsync.ErrConflict):
		return "conflict"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &serErr):
		return "serialization"
	case errors.As(err, &upErr):
		return "upstream"
	}
	return "internal"
}
