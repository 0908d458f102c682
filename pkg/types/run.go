// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	"github.com/google/uuid"
)

// RunItem records one successfully harvested article within a batch.
type RunItem struct {
	Title       string `json:"title" yaml:"title"`
	Address     string `json:"address" yaml:"address"`
	WordCount   int    `json:"word_count" yaml:"word_count"`
	StoragePath string `json:"storage_path" yaml:"storage_path"`
}

// RunResult summarizes one batch invocation. It is owned by the
// orchestrator for the lifetime of a single run and handed to the caller
// at the end; the corpus store remains the source of truth for what was
// actually persisted.
type RunResult struct {
	// RunID identifies this batch invocation in logs and exports.
	RunID uuid.UUID `json:"run_id" yaml:"run_id"`

	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`

	// Elapsed is the wall-clock duration of the batch, pacing included.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Items lists the succeeded articles in processing order.
	Items []RunItem `json:"items" yaml:"items"`
}

// NewRunResult creates an empty result for a fresh batch.
func NewRunResult() RunResult {
	return RunResult{RunID: uuid.New()}
}

// Total returns the number of titles processed.
func (r RunResult) Total() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// HasFailures reports whether any item failed.
func (r RunResult) HasFailures() bool {
	return r.Failed > 0
}
