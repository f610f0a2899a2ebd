package metadata

import (
	"fmt"

	"github.com/cinescope/cinescope/internal/metadata/ratings"
	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

// Stage names a step of the aggregation pipeline.
type Stage string

const (
	StageFetchingPrimary    Stage = "fetching_primary"
	StageResolvingReference Stage = "resolving_reference"
	StageFetchingSecondary  Stage = "fetching_secondary"
	StageNormalizing        Stage = "normalizing"
	StageDone               Stage = "done"
)

// RatingsStatus tells the consumer how to interpret AggregatedView.Ratings.
type RatingsStatus string

const (
	// RatingsAvailable means the secondary provider answered; individual
	// fields may still be absent.
	RatingsAvailable RatingsStatus = "available"
	// RatingsUnavailable means the secondary lookup failed.
	RatingsUnavailable RatingsStatus = "unavailable"
	// RatingsUnlinked means the primary record has no cross-reference id.
	RatingsUnlinked RatingsStatus = "unlinked"
)

// AggregatedView is the detail view of a title: the primary record plus
// whatever secondary ratings could be attached.
type AggregatedView struct {
	tmdb.TitleRecord
	Ratings       ratings.Secondary `json:"ratings"`
	RatingsStatus RatingsStatus     `json:"ratingsStatus"`
}

// ViewOptions are the caller preferences injected into a pipeline run.
type ViewOptions struct {
	Language     string
	Region       string
	IncludeAdult bool
}

func (o ViewOptions) requestOptions() tmdb.RequestOptions {
	return tmdb.RequestOptions{
		Language:     o.Language,
		Region:       o.Region,
		IncludeAdult: o.IncludeAdult,
	}
}

// ListEntry is one result of AggregateMany. Exactly one of View and Error is set.
type ListEntry struct {
	ID    int             `json:"id"`
	View  *AggregatedView `json:"view,omitempty"`
	Error string          `json:"error,omitempty"`
	Err   error           `json:"-"`
}

// PipelineError records the stage a fatal failure happened in.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
