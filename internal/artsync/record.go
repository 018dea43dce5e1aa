package artsync

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one of the three content record types.
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindSkill    Kind = "skill"
	KindWorkflow Kind = "workflow"
)

// Kinds lists every record kind in canonical sync order.
var Kinds = []Kind{KindPrompt, KindSkill, KindWorkflow}

// Plural returns the directory name used for records of this kind.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Owner references the single user or team a record belongs to.
// Exactly one of UserID and TeamID is set.
type Owner struct {
	UserID string
	TeamID string
}

// Validate checks the mutually exclusive ownership rule.
func (o Owner) Validate() error {
	switch {
	case o.UserID == "" && o.TeamID == "":
		return fmt.Errorf("record has no owner")
	case o.UserID != "" && o.TeamID != "":
		return fmt.Errorf("record is owned by both user %s and team %s", o.UserID, o.TeamID)
	}
	return nil
}

// Record is a prompt, skill or workflow as read from the record store.
// Body holds the prompt text or skill instructions; Document holds the
// structured workflow definition and is only set for workflows.
type Record struct {
	Kind          Kind
	ID            string
	Title         string
	Slug          string
	Description   string
	Body          string
	Document      json.RawMessage
	Category      string
	Tags          []string
	IsPublic      bool
	RatingAverage float64
	RatingCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Owner         Owner
}

// File is a serialized record: its repository path and file content.
type File struct {
	Path     string
	Content  []byte
	Kind     Kind
	RecordID string
}
