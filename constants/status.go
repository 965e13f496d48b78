package constants

// RunState is the canonical state of a pipeline run.
type RunState string

// Stable values (store these exact strings in DB).
const (
	RunStateQueued    RunState = "QUEUED"    // accepted, waiting for the worker
	RunStateRunning   RunState = "RUNNING"   // in progress
	RunStateSucceeded RunState = "SUCCEEDED" // workbook and CSV written
	RunStatePartial   RunState = "PARTIAL"   // CSV written, workbook failed
	RunStateFailed    RunState = "FAILED"    // terminal failure, no report
)

// Terminal reports whether no further transitions happen from s.
func (s RunState) Terminal() bool {
	switch s {
	case RunStateSucceeded, RunStatePartial, RunStateFailed:
		return true
	}
	return false
}

// Stage identifies a pipeline step for progress reporting.
type Stage string

const (
	StageCup      Stage = "cup"
	StagePlunger  Stage = "plunger"
	StageWorkbook Stage = "workbook"
	StageDone     Stage = "done"
)

// StagePercent is the progress shown when a stage starts.
var StagePercent = map[Stage]int{
	StageCup:      10,
	StagePlunger:  33,
	StageWorkbook: 66,
	StageDone:     100,
}
