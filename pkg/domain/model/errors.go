package model

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Error tags classifying pipeline failures. Every failure returned by a
// pipeline component carries exactly one of them.
var (
	ErrTagMalformedReference   = goerr.NewTag("malformed_reference")
	ErrTagBuildStepFailed      = goerr.NewTag("build_step_failed")
	ErrTagPackagingFailed      = goerr.NewTag("packaging_failed")
	ErrTagReleaseCreateFailed  = goerr.NewTag("release_create_failed")
	ErrTagAssetUploadFailed    = goerr.NewTag("asset_upload_failed")
	ErrTagFormulaUpdateFailed  = goerr.NewTag("formula_update_failed")
	ErrTagInvalidConfiguration = goerr.NewTag("invalid_configuration")
)

// StepError is the terminal failure of a pipeline run. It identifies the step
// that failed and keeps the original cause.
type StepError struct {
	Step  Step
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// FailedStep returns the step identity of a pipeline failure
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}

// FailedPhase returns the build phase attached to a BuildStepFailed error
func FailedPhase(err error) (Phase, bool) {
	if !goerr.HasTag(err, ErrTagBuildStepFailed) {
		return "", false
	}

	var gErr *goerr.Error
	if !errors.As(err, &gErr) {
		return "", false
	}

	phase, ok := gErr.Values()["phase"].(Phase)
	return phase, ok
}
