package model

import "time"

// Step identifies a pipeline component
type Step string

const (
	StepResolve       Step = "resolve"
	StepBuild         Step = "build"
	StepPackage       Step = "package"
	StepPublish       Step = "publish"
	StepUpdateFormula Step = "update_formula"
)

// Steps is the strict execution order of the pipeline
var Steps = []Step{StepResolve, StepBuild, StepPackage, StepPublish, StepUpdateFormula}

// State is the pipeline level state
type State string

const (
	StateResolving       State = "resolving"
	StateBuilding        State = "building"
	StatePackaging       State = "packaging"
	StatePublishing      State = "publishing"
	StateUpdatingFormula State = "updating_formula"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// State returns the pipeline state while the step is running
func (s Step) State() State {
	switch s {
	case StepResolve:
		return StateResolving
	case StepBuild:
		return StateBuilding
	case StepPackage:
		return StatePackaging
	case StepPublish:
		return StatePublishing
	case StepUpdateFormula:
		return StateUpdatingFormula
	default:
		return StateFailed
	}
}

// StepStatus is the outcome of a single step
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult records what happened to one step in a run
type StepResult struct {
	Step     Step
	Status   StepStatus
	Duration time.Duration
	Error    string
}

// RunReport is the operator visible outcome of a pipeline run
type RunReport struct {
	RunID      string
	Ref        string
	Tag        ReleaseTag
	State      State
	FailedStep Step
	Error      string
	DryRun     bool
	Steps      []*StepResult
	Artifact   *BuildArtifact
	Release    *ReleaseRecord
	Formula    *FormulaUpdateRequest
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRunReport returns a report with every step pending
func NewRunReport(runID, ref string) *RunReport {
	report := &RunReport{
		RunID:     runID,
		Ref:       ref,
		State:     StateResolving,
		StartedAt: time.Now(),
	}
	for _, step := range Steps {
		report.Steps = append(report.Steps, &StepResult{Step: step, Status: StepPending})
	}
	return report
}

// Result returns the entry of step
func (r *RunReport) Result(step Step) *StepResult {
	for _, result := range r.Steps {
		if result.Step == step {
			return result
		}
	}
	return nil
}

// Succeeded reports whether the run reached the terminal Done state
func (r *RunReport) Succeeded() bool {
	return r.State == StateDone
}

// Process exit codes. A failed run exits with the code of its failing step.
const (
	ExitSuccess             = 0
	ExitFailure             = 1
	ExitMalformedReference  = 10
	ExitBuildStepFailed     = 11
	ExitPackagingFailed     = 12
	ExitPublishFailed       = 13
	ExitFormulaUpdateFailed = 14
)

// ExitCode maps a failing step to the process exit code
func ExitCode(step Step) int {
	switch step {
	case StepResolve:
		return ExitMalformedReference
	case StepBuild:
		return ExitBuildStepFailed
	case StepPackage:
		return ExitPackagingFailed
	case StepPublish:
		return ExitPublishFailed
	case StepUpdateFormula:
		return ExitFormulaUpdateFailed
	default:
		return ExitFailure
	}
}
