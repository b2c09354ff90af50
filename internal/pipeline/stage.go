package pipeline

import (
	"fmt"
	"time"
)

// Stage names one unit of the deployment pipeline.
type Stage string

const (
	StageProvision          Stage = "Provision"
	StageAwaitNetwork       Stage = "AwaitNetwork"
	StageRetrieveCredential Stage = "RetrieveCredential"
	StagePatchInventory     Stage = "PatchInventory"
	StageConfigure          Stage = "Configure"
	StageDestroy            Stage = "Destroy"
)

// fullRunStages is the fixed order of a full deployment. Each stage's input
// is the previous stage's output, so the sequence doubles as the
// prerequisite declaration: a stage runs only once everything before it has
// succeeded or been skipped.
var fullRunStages = []Stage{
	StageProvision,
	StageAwaitNetwork,
	StageRetrieveCredential,
	StagePatchInventory,
	StageConfigure,
}

// Status is the lifecycle state of a stage within one run.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusSkipped   Status = "Skipped"
)

// StageResult records the final status of one stage.
type StageResult struct {
	Stage    Stage
	Status   Status
	Err      error
	Duration time.Duration
}

// Report is the sole artifact a run returns: the ordered stage outcomes.
// It is append-only while the run executes and immutable afterwards.
type Report struct {
	stages []StageResult
}

// NewReport builds a report from pre-recorded stage results.
func NewReport(stages ...StageResult) *Report {
	r := &Report{}
	r.stages = append(r.stages, stages...)
	return r
}

// append records a completed stage. Secrets never appear here: stage errors
// are constructed without credential or key material.
func (r *Report) append(result StageResult) {
	r.stages = append(r.stages, result)
}

// Stages returns the recorded stage outcomes in execution order.
func (r *Report) Stages() []StageResult {
	out := make([]StageResult, len(r.stages))
	copy(out, r.stages)
	return out
}

// StageStatus returns the recorded status for a stage, or StatusPending if
// the stage was never reached.
func (r *Report) StageStatus(stage Stage) Status {
	for _, s := range r.stages {
		if s.Stage == stage {
			return s.Status
		}
	}
	return StatusPending
}

// Failed returns the first failed stage and its error, if any.
func (r *Report) Failed() (Stage, error, bool) {
	for _, s := range r.stages {
		if s.Status == StatusFailed {
			return s.Stage, s.Err, true
		}
	}
	return "", nil, false
}

// Succeeded reports whether every recorded stage either succeeded or was
// deliberately skipped.
func (r *Report) Succeeded() bool {
	for _, s := range r.stages {
		if s.Status != StatusSucceeded && s.Status != StatusSkipped {
			return false
		}
	}
	return len(r.stages) > 0
}

// String renders a one-line-per-stage summary.
func (r *Report) String() string {
	out := ""
	for _, s := range r.stages {
		line := fmt.Sprintf("%-20s %s", s.Stage, s.Status)
		if s.Err != nil {
			line += fmt.Sprintf(" (%v)", s.Err)
		}
		out += line + "\n"
	}
	return out
}
