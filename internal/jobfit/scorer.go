package jobfit

import (
	"context"

	"github.com/spigell/star-interviewer/internal/star"
)

// Request is the input of a job-fit scoring step.
type Request struct {
	Narrative   string
	Fingerprint string
	Job         Job
	// Sections is the STAR view of the narrative when the caller already has
	// one. Scorers parse Narrative when it is zero.
	Sections star.Sections
}

// Scorer computes a 0..100 fit score for a narrative and a job.
type Scorer interface {
	Score(ctx context.Context, req Request) (int, error)
}

const (
	localBase  = 70
	localRange = 26
)

// LocalScorer derives a fixed score in [70,95] from the fingerprint and job id.
// It needs no network and is stable for the same pair.
type LocalScorer struct{}

func (LocalScorer) Score(_ context.Context, req Request) (int, error) {
	fp := req.Fingerprint
	if fp == "" {
		fp = Fingerprint(req.Narrative)
	}
	return localBase + int(rollingHash(fp+":"+req.Job.ID)%localRange), nil
}
