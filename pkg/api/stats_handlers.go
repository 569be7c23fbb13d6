package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/httputil"
	"github.com/talentiq/talentstats/pkg/observability"
)

// growthStatsResponse wraps the sample list.
type growthStatsResponse struct {
	Stats []growthstats.Sample `json:"stats"`
}

// engagementScoreResponse carries one pipeline's score. Scored is
// false when the pipeline has no candidates.
type engagementScoreResponse struct {
	PipelineID int64   `json:"pipeline_id"`
	Score      float64 `json:"score"`
	Scored     bool    `json:"scored"`
}

// handleGrowthStats serves GET /api/v1/{container}/{id}/growth-stats.
func (s *Server) handleGrowthStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	kind, err := entities.ParseKind(vars["container"])
	if err != nil {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}

	id, err := httputil.PathInt64(vars, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	offset, err := httputil.QueryFloat(r, "offset", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	interval, err := httputil.QueryInt(r, "interval", 1)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	query := growthstats.Query{
		Offset:   offset,
		FromDate: r.URL.Query().Get("from_date"),
		ToDate:   r.URL.Query().Get("to_date"),
		Interval: interval,
	}

	entity, err := s.dir.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			httputil.WriteNotFoundError(w, kind.String()+" not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	if err := s.authorizer.Authorize(ctx, entity); err != nil {
		s.writeError(w, r, err)
		return
	}

	samples, err := s.engine.GrowthStats(ctx, kind, id, query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if samples == nil {
		samples = []growthstats.Sample{}
	}
	httputil.WriteSuccess(w, growthStatsResponse{Stats: samples})
}

// handleEngagementScore serves
// GET /api/v1/talent_pipelines/{id}/engagement-score.
func (s *Server) handleEngagementScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := httputil.PathInt64(mux.Vars(r), "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	entity, err := s.dir.Get(ctx, entities.TalentPipeline, id)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			httputil.WriteNotFoundError(w, "talent_pipelines not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	if err := s.authorizer.Authorize(ctx, entity); err != nil {
		s.writeError(w, r, err)
		return
	}

	score, scored, err := s.scorer.Score(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, engagementScoreResponse{
		PipelineID: id,
		Score:      score,
		Scored:     scored,
	})
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidUsage *growthstats.InvalidUsageError
	var notFound *growthstats.NotFoundError
	var forbidden *growthstats.ForbiddenError
	var service *growthstats.ServiceError

	switch {
	case errors.As(err, &invalidUsage):
		httputil.WriteValidationError(w, invalidUsage.Reason)
	case errors.As(err, &notFound):
		httputil.WriteNotFoundError(w, notFound.Error())
	case errors.As(err, &forbidden):
		httputil.WriteForbidden(w, forbidden.Reason)
	case errors.As(err, &service):
		observability.FromContext(r.Context()).WithError(err).Error("count service failure")
		httputil.WriteUpstreamError(w, "candidate count service unavailable")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("unhandled error")
		httputil.WriteInternalError(w, errors.New("internal server error"))
	}
}
