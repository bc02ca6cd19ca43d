package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage names a step of the orchestration pipeline.
type Stage string

const (
	// StageExtraction discovers candidate keywords for a site.
	StageExtraction Stage = "extraction"
	// StageResearch refreshes the competitive snapshot per keyword.
	StageResearch Stage = "research"
	// StageGeneration produces a content artifact per keyword.
	StageGeneration Stage = "generation"
	// StageOptimization applies link insertion and on-page fixes.
	StageOptimization Stage = "optimization"
	// StagePublishing pushes artifacts to the configured channels.
	StagePublishing Stage = "publishing"
	// StageRankTracking records a fresh rank observation per keyword.
	StageRankTracking Stage = "rank_tracking"
	// StageOutreach sends tracked outreach emails. Independent track.
	StageOutreach Stage = "outreach"
)

// pipelineStageCount is the number of stages in the content track.
const pipelineStageCount = 6

// PipelineStages returns the content-track stages in execution order.
func PipelineStages() []Stage {
	stages := make([]Stage, 0, pipelineStageCount)
	stages = append(stages,
		StageExtraction, StageResearch, StageGeneration,
		StageOptimization, StagePublishing, StageRankTracking,
	)
	return stages
}

// StageError records one item failure, contained at the stage boundary.
type StageError struct {
	Stage   Stage  `json:"stage"`
	ItemKey string `json:"item_key"`
	Message string `json:"message"`
}

// StageReport aggregates per-item outcomes for one stage.
type StageReport struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Errors    []StageError `json:"errors,omitempty"`
}

// RecordSuccess counts one succeeded item.
func (r *StageReport) RecordSuccess() {
	r.Succeeded++
}

// RecordFailure counts one failed item and keeps its error.
func (r *StageReport) RecordFailure(stage Stage, itemKey string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, StageError{
		Stage:   stage,
		ItemKey: itemKey,
		Message: err.Error(),
	})
}

// Totals sums succeeded and failed items across all stages.
type Totals struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// PipelineReport is the always-partial result of one pipeline invocation.
// There is deliberately no single pass/fail flag.
type PipelineReport struct {
	SiteID     uuid.UUID              `json:"site_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	PerStage   map[Stage]*StageReport `json:"per_stage"`
	Totals     Totals                 `json:"totals"`
}

// NewPipelineReport creates an empty report with a slot for every content stage.
func NewPipelineReport(siteID uuid.UUID) *PipelineReport {
	perStage := make(map[Stage]*StageReport, pipelineStageCount)
	for _, stage := range PipelineStages() {
		perStage[stage] = &StageReport{}
	}
	return &PipelineReport{
		SiteID:    siteID,
		StartedAt: time.Now().UTC(),
		PerStage:  perStage,
	}
}

// Finalize stamps the finish time and computes totals.
func (p *PipelineReport) Finalize() {
	p.FinishedAt = time.Now().UTC()
	p.Totals = Totals{}
	for _, report := range p.PerStage {
		p.Totals.Succeeded += report.Succeeded
		p.Totals.Failed += report.Failed
	}
}

// AllErrors flattens the per-stage error lists in stage order.
func (p *PipelineReport) AllErrors() []StageError {
	var all []StageError
	for _, stage := range PipelineStages() {
		if report, ok := p.PerStage[stage]; ok {
			all = append(all, report.Errors...)
		}
	}
	return all
}

// OutreachReport is the result of one outreach run for a campaign.
type OutreachReport struct {
	CampaignID uuid.UUID    `json:"campaign_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Sent       int          `json:"sent"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Errors     []StageError `json:"errors,omitempty"`
}
