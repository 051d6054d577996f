package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insightstore"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/rs/zerolog"
)

// InsightCache is the cached insight list the API serves.
type InsightCache interface {
	Refresh(ctx context.Context) []domain.Insight
	Insights() []domain.Insight
	Loaded() bool
	Dismiss(id string) bool
	Clear()
	Status() insightstore.Status
}

// InsightsHandler serves the cached insight list.
type InsightsHandler struct {
	cache     InsightCache
	publisher jobs.Publisher
	log       zerolog.Logger
}

func NewInsightsHandler(cache InsightCache, publisher jobs.Publisher, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// ListInsights handles GET /api/insights. The first call generates.
func (h *InsightsHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	var list []domain.Insight
	if h.cache.Loaded() {
		list = h.cache.Insights()
	} else {
		list = h.cache.Refresh(r.Context())
	}
	h.writeList(w, http.StatusOK, list)
}

// GenerateInsights handles POST /api/insights/generate
func (h *InsightsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	list := h.cache.Refresh(r.Context())
	log := logger.FromContext(r.Context())
	log.Info().Int("count", len(list)).Msg("Insights generated")
	h.writeList(w, http.StatusOK, list)
}

// EnqueueRefresh handles POST /api/insights/refresh
func (h *InsightsHandler) EnqueueRefresh(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Background refresh is not configured")
		return
	}

	job := &jobs.RefreshInsightsJob{Reason: r.URL.Query().Get("reason")}
	if job.Reason == "" {
		job.Reason = "api"
	}
	if err := h.publisher.PublishRefreshInsights(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue refresh job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue refresh job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Refresh job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// DismissInsight handles DELETE /api/insights/{id}
func (h *InsightsHandler) DismissInsight(w http.ResponseWriter, r *http.Request, id string) {
	if !h.cache.Dismiss(id) {
		middleware.WriteError(w, http.StatusNotFound, "Insight not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearInsights handles DELETE /api/insights
func (h *InsightsHandler) ClearInsights(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *InsightsHandler) writeList(w http.ResponseWriter, status int, list []domain.Insight) {
	if list == nil {
		list = []domain.Insight{}
	}
	middleware.WriteJSON(w, status, map[string]any{
		"insights": list,
		"count":    len(list),
		"status":   h.cache.Status(),
	})
}

// RuleLister reports the registered rule types in evaluation order.
type RuleLister interface {
	RuleTypes() []domain.InsightType
}

type RulesHandler struct {
	rules RuleLister
}

func NewRulesHandler(rules RuleLister) *RulesHandler {
	return &RulesHandler{rules: rules}
}

// ListRules handles GET /api/rules
func (h *RulesHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	types := h.rules.RuleTypes()
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"rules": types,
		"count": len(types),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

var _ InsightCache = (*insightstore.Store)(nil)
