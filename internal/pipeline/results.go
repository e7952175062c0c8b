package pipeline

import (
	"gamesync/internal/media"
	"gamesync/internal/services"
)

// Failure names one item that could not be processed and why.
type Failure struct {
	SourcePath string
	Platform   media.Platform
	Kind       string
	Err        error
}

// BatchResult aggregates the outcome of one run.
type BatchResult struct {
	Succeeded int
	Skipped   int
	Failed    []Failure

	// Uploaded counts the subset of succeeded items confirmed by the
	// server as new assets.
	Uploaded int
	// Duplicates counts items the server already held.
	Duplicates int
	// Bytes totals the content size of succeeded items.
	Bytes int64
}

// Total returns the number of items the run attempted.
func (r *BatchResult) Total() int {
	return r.Succeeded + r.Skipped + len(r.Failed)
}

// HasFailures reports whether any item failed. The process exit code is
// derived from this.
func (r *BatchResult) HasFailures() bool {
	return len(r.Failed) > 0
}

func (r *BatchResult) merge(other BatchResult) {
	r.Succeeded += other.Succeeded
	r.Skipped += other.Skipped
	r.Failed = append(r.Failed, other.Failed...)
	r.Uploaded += other.Uploaded
	r.Duplicates += other.Duplicates
	r.Bytes += other.Bytes
}

func failureFor(item media.RawItem, err error) Failure {
	return Failure{
		SourcePath: item.SourcePath,
		Platform:   item.Platform,
		Kind:       services.Kind(err),
		Err:        err,
	}
}
