package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
)

// NewRouter registers every API route. jobsHandler may be nil when no
// background queue is running.
func NewRouter(insightsHandler *InsightsHandler, rulesHandler *RulesHandler, jobsHandler *JobsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			insightsHandler.ListInsights(w, r)
		case http.MethodDelete:
			insightsHandler.ClearInsights(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/insights/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/insights/")
		switch {
		case rest == "generate" && r.Method == http.MethodPost:
			insightsHandler.GenerateInsights(w, r)
		case rest == "refresh" && r.Method == http.MethodPost:
			insightsHandler.EnqueueRefresh(w, r)
		case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodDelete:
			insightsHandler.DismissInsight(w, r, rest)
		case rest == "":
			middleware.WriteError(w, http.StatusBadRequest, "Insight ID is required")
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/rules", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		rulesHandler.ListRules(w, r)
	})

	if jobsHandler != nil {
		mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			jobsHandler.ListJobs(w, r)
		})

		mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		})
	}

	mux.HandleFunc("/health", Health)

	return mux
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
