// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Stage identifies one step of the install pipeline. Stages run in the
// order listed by Stages and never re-enter an earlier stage; a failed
// run is resolved by re-invoking the whole tool, which re-derives every
// decision from disk and service-manager state.
type Stage string

const (
	StageDetect      Stage = "detect"
	StageResolve     Stage = "resolve"
	StageFetch       Stage = "fetch"
	StageConfigFile  Stage = "config-file"
	StageServiceUnit Stage = "service-unit"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageDetect, StageResolve, StageFetch, StageConfigFile, StageServiceUnit}
}

// Outcome classifies what a stage did to the host.
type Outcome string

const (
	// OutcomeOK marks a read-only stage that completed (detect, resolve).
	OutcomeOK Outcome = "ok"

	// OutcomeCreated marks an artifact written where none existed.
	OutcomeCreated Outcome = "created"

	// OutcomeLeftExisting marks an artifact found on disk and left
	// byte-for-byte untouched.
	OutcomeLeftExisting Outcome = "left-existing"

	// OutcomeRecreated marks an existing artifact replaced wholesale
	// (forced unit rewrite).
	OutcomeRecreated Outcome = "recreated"

	// OutcomeRefreshed marks the binary overwrite that happens on
	// every run regardless of what was installed before.
	OutcomeRefreshed Outcome = "refreshed"

	// OutcomeFailed marks the stage that aborted the run.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped marks stages after the failed one.
	OutcomeSkipped Outcome = "skipped"
)

// StageResult is the recorded outcome of one stage.
type StageResult struct {
	Stage   Stage   `json:"stage"            desc:"pipeline stage"`
	Outcome Outcome `json:"outcome"          desc:"what the stage did"`
	Detail  string  `json:"detail,omitempty" desc:"human-readable stage detail"`
}

// Report is the per-invocation outcome summary returned to the caller.
// It is never persisted: the durable record of an install is the disk
// and service-manager state itself.
type Report struct {
	Mode           Mode          `json:"mode"                      desc:"install mode"`
	Architecture   string        `json:"architecture,omitempty"    desc:"detected host architecture"`
	ServiceManager string        `json:"service_manager,omitempty" desc:"detected service manager"`
	Version        string        `json:"version,omitempty"         desc:"release version installed"`
	Paths          Paths         `json:"paths"                     desc:"resolved filesystem layout"`
	DryRun         bool          `json:"dry_run,omitempty"         desc:"true when no writes were performed"`
	Stages         []StageResult `json:"stages"                    desc:"per-stage outcomes in execution order"`
}

// Record appends a stage outcome.
func (r *Report) Record(stage Stage, outcome Outcome, detail string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, Outcome: outcome, Detail: detail})
}

// RecordFailure appends the failing stage and marks every remaining
// pipeline stage as skipped.
func (r *Report) RecordFailure(stage Stage, err error) {
	r.Record(stage, OutcomeFailed, err.Error())
	remaining := false
	for _, s := range Stages() {
		if remaining {
			r.Record(s, OutcomeSkipped, "")
		}
		if s == stage {
			remaining = true
		}
	}
}

// Failed reports whether any stage failed.
func (r *Report) Failed() bool {
	for _, result := range r.Stages {
		if result.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// FailedStage returns the failing stage, or "" if the run converged.
func (r *Report) FailedStage() Stage {
	for _, result := range r.Stages {
		if result.Outcome == OutcomeFailed {
			return result.Stage
		}
	}
	return ""
}

// Outcome returns the recorded outcome for stage, or "" if the stage
// was never recorded.
func (r *Report) Outcome(stage Stage) Outcome {
	for _, result := range r.Stages {
		if result.Stage == stage {
			return result.Outcome
		}
	}
	return ""
}

// Render writes the human-readable report: one aligned row per stage,
// then a one-line verdict.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "mode: %s", r.Mode)
	if r.Architecture != "" {
		fmt.Fprintf(w, "  architecture: %s", r.Architecture)
	}
	if r.Version != "" {
		fmt.Fprintf(w, "  version: %s", r.Version)
	}
	if r.DryRun {
		fmt.Fprintf(w, "  (dry run)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, result := range r.Stages {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", result.Stage, result.Outcome, result.Detail)
	}
	tw.Flush()
	fmt.Fprintln(w)

	if stage := r.FailedStage(); stage != "" {
		fmt.Fprintf(w, "install failed at stage %s\n", stage)
		return
	}
	if r.DryRun {
		fmt.Fprintln(w, "dry run complete; no changes were made")
		return
	}
	fmt.Fprintf(w, "host converged on %s %s\n", BinaryName, r.Version)
}
