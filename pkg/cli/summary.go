package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

var (
	colorOK     = color.New(color.FgGreen, color.Bold)
	colorFailed = color.New(color.FgRed, color.Bold)
	colorMuted  = color.New(color.FgHiBlack)
	colorLabel  = color.New(color.Bold)
)

// printSummary writes the outcome of a run for the operator
func printSummary(w io.Writer, report *model.RunReport) {
	if report == nil {
		return
	}

	title := "tagship run " + report.RunID
	if report.DryRun {
		title += " (dry run)"
	}
	colorLabel.Fprintln(w, title)

	for _, result := range report.Steps {
		name := fmt.Sprintf("%-15s", result.Step)
		switch result.Status {
		case model.StepSucceeded:
			fmt.Fprintf(w, "  %s %s %s\n", colorOK.Sprint("ok  "), name, result.Duration.Round(time.Millisecond))
		case model.StepFailed:
			fmt.Fprintf(w, "  %s %s %s\n", colorFailed.Sprint("FAIL"), name, result.Duration.Round(time.Millisecond))
			if result.Error != "" {
				fmt.Fprintf(w, "       %s\n", result.Error)
			}
		case model.StepSkipped:
			fmt.Fprintf(w, "  %s %s\n", colorMuted.Sprint("skip"), name)
		default:
			fmt.Fprintf(w, "  %s %s\n", colorMuted.Sprint("-   "), name)
		}
	}

	if report.Artifact != nil {
		fmt.Fprintf(w, "%s %s (sha256 %s)\n", colorLabel.Sprint("Archive:"), report.Artifact.ArchiveName, report.Artifact.Checksum)
	}
	if report.Release != nil && report.Release.HTMLURL != "" {
		fmt.Fprintf(w, "%s %s\n", colorLabel.Sprint("Release:"), report.Release.HTMLURL)
	}
	if report.Formula != nil {
		fmt.Fprintf(w, "%s %s %s\n", colorLabel.Sprint("Formula:"), report.Formula.Formula, report.Formula.Version)
	}

	switch {
	case report.Succeeded() && report.DryRun:
		colorOK.Fprintf(w, "Built %s, nothing published\n", report.Tag)
		return
	case report.Succeeded():
		colorOK.Fprintf(w, "Released %s\n", report.Tag)
		return
	}
	colorFailed.Fprintf(w, "Failed at %s (exit %d)\n", report.FailedStep, model.ExitCode(report.FailedStep))
}
