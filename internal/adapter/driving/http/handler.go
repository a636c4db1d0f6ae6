package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// InsightsProvider serves cached attention insights.
type InsightsProvider interface {
	Get(ctx context.Context) (model.AttentionInsights, error)
	Invalidate()
}

// ClassificationRefresher refreshes mention classifications and records
// manual decisions.
type ClassificationRefresher interface {
	Refresh(ctx context.Context) (application.RefreshResult, error)
	SetManualDecision(ctx context.Context, commentID, mentionedUserID int64, requiresResponse bool) error
}

// HolidayInvalidator drops cached holiday calendars.
type HolidayInvalidator interface {
	Invalidate(code string)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	insights       InsightsProvider
	classification ClassificationRefresher
	holidays       HolidayInvalidator
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	insights InsightsProvider,
	classification ClassificationRefresher,
	holidays HolidayInvalidator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		insights:       insights,
		classification: classification,
		holidays:       holidays,
		logger:         logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on the given mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/insights", h.GetInsights)
	mux.HandleFunc("GET /api/v1/insights/summary", h.GetSummary)
	mux.HandleFunc("GET /api/v1/insights/{section}", h.GetSection)
	mux.HandleFunc("PUT /api/v1/mentions/{commentID}/users/{userID}/decision", h.SetManualDecision)
	mux.HandleFunc("POST /api/v1/mentions/classify", h.RefreshClassifications)
	mux.HandleFunc("POST /api/v1/holidays/{code}/invalidate", h.InvalidateHolidays)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps the handler with request id, logging, and recovery
// middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)
	return requestIDMiddleware(wrapped)
}

// GetInsights returns the full attention computation.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, ok := h.loadInsights(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewInsightsResponse(insights))
}

// GetSummary returns per-section counts and the role leaderboard.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	insights, ok := h.loadInsights(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewSummaryResponse(application.BuildLeaderboard(insights)))
}

// GetSection returns one page of a single section.
func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	section := model.InsightsSection(r.PathValue("section"))
	if !section.Valid() {
		writeError(w, http.StatusNotFound, driven.ErrUnknownSection.Error())
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid per_page")
		return
	}

	insights, ok := h.loadInsights(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sectionPage(insights, section, page, perPage))
}

// SetManualDecision records a user's own verdict on whether a mention needs
// a response.
func (h *Handler) SetManualDecision(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(r.PathValue("commentID"), 10, 64)
	if err != nil || commentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ManualDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RequiresResponse == nil {
		writeError(w, http.StatusBadRequest, "requires_response is required")
		return
	}

	err = h.classification.SetManualDecision(r.Context(), commentID, userID, *req.RequiresResponse)
	if errors.Is(err, driven.ErrClassificationNotFound) {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to set manual decision",
			"comment_id", commentID,
			"user_id", userID,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.insights.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// RefreshClassifications runs the classifier over every unanswered mention
// whose cached verdict is missing or outdated.
func (h *Handler) RefreshClassifications(w http.ResponseWriter, r *http.Request) {
	result, err := h.classification.Refresh(r.Context())
	if errors.Is(err, application.ErrClassifierUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to refresh classifications",
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.insights.Invalidate()
	writeJSON(w, http.StatusOK, RefreshResponse{
		Candidates: result.Candidates,
		Classified: result.Classified,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
	})
}

// InvalidateHolidays drops a cached holiday calendar after it was edited.
func (h *Handler) InvalidateHolidays(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "calendar code is required")
		return
	}

	h.holidays.Invalidate(code)
	h.insights.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) loadInsights(w http.ResponseWriter, r *http.Request) (model.AttentionInsights, bool) {
	insights, err := h.insights.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to compute insights",
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return model.AttentionInsights{}, false
	}
	return insights, true
}

// queryInt parses an optional positive integer query parameter. Missing
// values return zero so the pager applies its defaults.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
