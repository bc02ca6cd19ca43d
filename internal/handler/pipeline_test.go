//nolint:testpackage // exercising handlers with internal helpers
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/pipeline"
)

type stubRunner struct {
	runErr      error
	outreachErr error
	lastReq     pipeline.RunRequest
}

func (s *stubRunner) Run(_ context.Context, req pipeline.RunRequest) (*domain.PipelineReport, error) {
	s.lastReq = req
	if s.runErr != nil {
		return nil, s.runErr
	}
	report := domain.NewPipelineReport(req.SiteID)
	report.PerStage[domain.StageResearch].RecordSuccess()
	report.PerStage[domain.StageResearch].RecordFailure(domain.StageResearch, "bad-keyword", fmt.Errorf("boom"))
	report.Finalize()
	return report, nil
}

func (s *stubRunner) RunOutreach(_ context.Context, campaignID uuid.UUID) (*domain.OutreachReport, error) {
	if s.outreachErr != nil {
		return nil, s.outreachErr
	}
	return &domain.OutreachReport{CampaignID: campaignID, Sent: 3, Skipped: 1}, nil
}

func newPipelineRouter(runner Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPipelineHandler(runner)

	router := gin.New()
	router.POST("/api/v1/pipeline/run", h.RunPipeline)
	router.POST("/api/v1/outreach/:campaign_id/run", h.RunOutreach)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRunPipelinePartialFailureStillOK(t *testing.T) {
	runner := &stubRunner{}
	router := newPipelineRouter(runner)
	siteID := uuid.New()

	rec := postJSON(router, "/api/v1/pipeline/run",
		fmt.Sprintf(`{"site_id":%q,"item_cap":10,"goals":["grow traffic"]}`, siteID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a partial run: %s", rec.Code, rec.Body.String())
	}

	var report domain.PipelineReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Totals.Failed != 1 || report.Totals.Succeeded != 1 {
		t.Errorf("totals = %+v, want one success and one failure", report.Totals)
	}
	if runner.lastReq.ItemCap != 10 {
		t.Errorf("item cap = %d, want 10", runner.lastReq.ItemCap)
	}
}

func TestRunPipelineMissingSiteID(t *testing.T) {
	router := newPipelineRouter(&stubRunner{})

	rec := postJSON(router, "/api/v1/pipeline/run", `{"item_cap":5}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunPipelineUnknownSite(t *testing.T) {
	runner := &stubRunner{runErr: fmt.Errorf("%w: nope", domain.ErrSiteNotFound)}
	router := newPipelineRouter(runner)

	rec := postJSON(router, "/api/v1/pipeline/run",
		fmt.Sprintf(`{"site_id":%q}`, uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRunOutreachReturnsReport(t *testing.T) {
	router := newPipelineRouter(&stubRunner{})
	campaignID := uuid.New()

	rec := postJSON(router, "/api/v1/outreach/"+campaignID.String()+"/run", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var report domain.OutreachReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Sent != 3 || report.Skipped != 1 {
		t.Errorf("report = %+v, want sent=3 skipped=1", report)
	}
}

func TestRunOutreachInvalidCampaignID(t *testing.T) {
	router := newPipelineRouter(&stubRunner{})

	rec := postJSON(router, "/api/v1/outreach/not-a-uuid/run", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunOutreachInactiveCampaign(t *testing.T) {
	runner := &stubRunner{outreachErr: pipeline.ErrCampaignInactive}
	router := newPipelineRouter(runner)

	rec := postJSON(router, "/api/v1/outreach/"+uuid.NewString()+"/run", "")

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
