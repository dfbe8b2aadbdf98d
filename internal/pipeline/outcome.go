package pipeline

import (
	"fmt"

	"github.com/Guliveer/sysinv/internal/models"
)

// Stage is a state of a run.
type Stage string

const (
	StageIdle       Stage = "Idle"
	StageCollecting Stage = "Collecting"
	StageAssembling Stage = "Assembling"
	StagePersisting Stage = "Persisting"
	StageDone       Stage = "Done"
)

// Outcome is the terminal result of one run: either Success with the
// persisted record, or Failed at Stage with Err as the cause.
type Outcome struct {
	RunID string
	// Stage is StageDone on success, otherwise the stage that failed.
	Stage Stage
	// States lists every state the run entered, in order.
	States []Stage

	Snapshot models.Snapshot
	// Path is the JSON file written, empty if the run failed before writing it.
	Path   string
	Record models.PersistedRecord
	Err    error
}

// Success reports whether the run reached Done.
func (o Outcome) Success() bool {
	return o.Err == nil && o.Stage == StageDone
}

// Cause names the failed stage and the reason, e.g.
// "Persisting: connect timeout after 5s". It is empty on success.
func (o Outcome) Cause() string {
	if o.Success() {
		return ""
	}
	if o.Err == nil {
		return string(o.Stage)
	}
	return fmt.Sprintf("%s: %v", o.Stage, o.Err)
}

func (o Outcome) String() string {
	if o.Success() {
		return fmt.Sprintf("Success(%s, id=%d)", o.Record.Snapshot.Hostname, o.Record.ID)
	}
	return fmt.Sprintf("Failed(%s, %v)", o.Stage, o.Err)
}
