package performancehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perfengine/internal/domain/audit"
	"perfengine/internal/domain/performance"
	"perfengine/internal/platform/metrics"
	"perfengine/internal/requestctx"
	"perfengine/internal/transport/http/api"
	"perfengine/internal/transport/http/middleware"
	"perfengine/internal/transport/http/shared"
)

type Handler struct {
	Service *performance.Service
	Audit   *audit.Service
	Metrics *metrics.Collector
}

func NewHandler(service *performance.Service, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", h.handleCreateReview)
		r.Get("/", h.handleListReviews)
		r.Get("/me", h.handleMyReviews)
		r.Get("/{reviewID}", h.handleGetReview)
		r.Put("/{reviewID}", h.handleUpdateReview)
		r.Delete("/{reviewID}", h.handleDeleteReview)
	})
	r.Route("/cycles", func(r chi.Router) {
		r.Get("/", h.handleListCycles)
		r.Get("/active", h.handleActiveCycle)
		r.Get("/{cycleID}", h.handleGetCycle)
		r.Post("/{cycleID}/close", h.handleCloseCycle)
	})
	r.Get("/leaderboard", h.handleLeaderboard)
	r.Get("/leaderboard/export", h.handleLeaderboardExport)
	r.Get("/warnings", h.handleWarnings)
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Get("/performance", h.handleEmployeeView)
		r.Get("/monthly-summaries", h.handleMonthlySummaries)
		r.Get("/cycle-summary/{cycleID}", h.handleCycleSummary)
	})
}

type reviewPayload struct {
	EmployeeID        string   `json:"employeeId"`
	ReviewedMonth     string   `json:"reviewedMonth"`
	Score             int      `json:"score"`
	Feedback          string   `json:"feedback"`
	IncentiveOverride *float64 `json:"incentiveOverride"`
	PenaltyOverride   *float64 `json:"penaltyOverride"`
	OverrideReason    string   `json:"overrideReason"`
}

type reviewUpdatePayload struct {
	Score             *int     `json:"score"`
	Feedback          *string  `json:"feedback"`
	IncentiveOverride *float64 `json:"incentiveOverride"`
	PenaltyOverride   *float64 `json:"penaltyOverride"`
	ClearOverrides    bool     `json:"clearOverrides"`
	OverrideReason    string   `json:"overrideReason"`
}

type reviewResponse struct {
	Review        performance.Review `json:"review"`
	WarningRaised bool               `json:"warningRaised"`
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("reviewedMonth", payload.ReviewedMonth, "is required")
	reviewed := time.Time{}
	if payload.ReviewedMonth != "" {
		parsed, ok := v.Date("reviewedMonth", payload.ReviewedMonth)
		if ok {
			reviewed = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	review, warningRaised, err := h.Service.CreateReview(r.Context(), performance.CreateReviewInput{
		EmployeeID:        payload.EmployeeID,
		ReviewerID:        user.EmployeeID,
		ReviewedMonth:     reviewed,
		Score:             payload.Score,
		Feedback:          payload.Feedback,
		IncentiveOverride: payload.IncentiveOverride,
		PenaltyOverride:   payload.PenaltyOverride,
		OverrideReason:    payload.OverrideReason,
	})
	if err != nil {
		h.writeServiceError(w, "review_create_failed", err, requestID)
		return
	}

	h.Metrics.RecordReviewWrite()
	if warningRaised {
		h.Metrics.RecordWarningRaised()
		slog.Warn("notice period warning raised",
			"employeeId", review.EmployeeID,
			"year", review.ReviewYear,
			"month", review.ReviewMonth,
		)
	}
	if err := h.Audit.Record(r.Context(), user.EmployeeID, "performance.review.create", "review", review.ID, requestID, shared.ClientIP(r), nil, review); err != nil {
		slog.Warn("audit performance.review.create failed", "err", err)
	}
	api.Created(w, reviewResponse{Review: review, WarningRaised: warningRaised}, requestID)
}

func (h *Handler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	before, err := h.Service.ReviewByID(r.Context(), reviewID)
	if err != nil {
		h.writeServiceError(w, "review_update_failed", err, requestID)
		return
	}

	var payload reviewUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	review, warningRaised, err := h.Service.UpdateReview(r.Context(), reviewID, performance.UpdateReviewInput{
		Score:             payload.Score,
		Feedback:          payload.Feedback,
		IncentiveOverride: payload.IncentiveOverride,
		PenaltyOverride:   payload.PenaltyOverride,
		ClearOverrides:    payload.ClearOverrides,
		OverrideReason:    payload.OverrideReason,
	})
	if err != nil {
		h.writeServiceError(w, "review_update_failed", err, requestID)
		return
	}

	h.Metrics.RecordReviewWrite()
	if warningRaised {
		h.Metrics.RecordWarningRaised()
	}
	if err := h.Audit.Record(r.Context(), user.EmployeeID, "performance.review.update", "review", review.ID, requestID, shared.ClientIP(r), before, review); err != nil {
		slog.Warn("audit performance.review.update failed", "err", err)
	}
	api.Success(w, reviewResponse{Review: review, WarningRaised: warningRaised}, requestID)
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	before, err := h.Service.ReviewByID(r.Context(), reviewID)
	if err != nil {
		h.writeServiceError(w, "review_delete_failed", err, requestID)
		return
	}

	if err := h.Service.DeleteReview(r.Context(), reviewID); err != nil {
		h.writeServiceError(w, "review_delete_failed", err, requestID)
		return
	}

	h.Metrics.RecordReviewWrite()
	if err := h.Audit.Record(r.Context(), user.EmployeeID, "performance.review.delete", "review", reviewID, requestID, shared.ClientIP(r), before, nil); err != nil {
		slog.Warn("audit performance.review.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"id": reviewID}, requestID)
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	review, err := h.Service.ReviewByID(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		h.writeServiceError(w, "review_get_failed", err, requestID)
		return
	}
	if !user.CanWriteReviews() && review.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted to view this review", requestID)
		return
	}
	api.Success(w, review, requestID)
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	filter, err := parseReviewFilter(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", err.Error(), requestID)
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	reviews, total, err := h.Service.ListReviews(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		h.writeServiceError(w, "review_list_failed", err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"reviews": reviews,
		"total":   total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	}, requestID)
}

func (h *Handler) handleMyReviews(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}

	view, err := h.Service.EmployeeCycleView(r.Context(), user.EmployeeID, cycleID)
	if err != nil {
		h.writeServiceError(w, "my_reviews_failed", err, requestID)
		return
	}
	api.Success(w, view, requestID)
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	cycles, err := h.Service.ListCycles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "cycle_list_failed", "failed to list cycles", requestID)
		return
	}
	api.Success(w, cycles, requestID)
}

func (h *Handler) handleActiveCycle(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	cycle, err := h.Service.ActiveCycle(r.Context())
	if err != nil {
		h.writeServiceError(w, "cycle_active_failed", err, requestID)
		return
	}
	api.Success(w, cycle, requestID)
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	cycleID, err := strconv.Atoi(chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_cycle_id", "cycle id must be an integer", requestID)
		return
	}
	cycle, err := h.Service.CycleByID(r.Context(), cycleID)
	if err != nil {
		h.writeServiceError(w, "cycle_get_failed", err, requestID)
		return
	}
	api.Success(w, cycle, requestID)
}

func (h *Handler) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanCloseCycles() {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", requestID)
		return
	}

	cycleID, err := strconv.Atoi(chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_cycle_id", "cycle id must be an integer", requestID)
		return
	}

	cycle, err := h.Service.CloseCycle(r.Context(), cycleID)
	if err != nil {
		h.writeServiceError(w, "cycle_close_failed", err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.EmployeeID, "performance.cycle.close", "cycle", strconv.Itoa(cycle.ID), requestID, shared.ClientIP(r), nil, cycle); err != nil {
		slog.Warn("audit performance.cycle.close failed", "err", err)
	}
	api.Success(w, cycle, requestID)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "limit must be an integer", requestID)
		return
	}

	cycle, entries, err := h.Service.Leaderboard(r.Context(), cycleID, limit)
	if err != nil {
		h.writeServiceError(w, "leaderboard_failed", err, requestID)
		return
	}
	api.Success(w, map[string]any{"cycle": cycle, "entries": entries}, requestID)
}

func (h *Handler) handleLeaderboardExport(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "limit must be an integer", requestID)
		return
	}

	pdf, err := h.Service.GenerateLeaderboardPDF(r.Context(), cycleID, limit)
	if err != nil {
		h.writeServiceError(w, "leaderboard_export_failed", err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("leaderboard pdf write failed", "err", err)
	}
}

func (h *Handler) handleWarnings(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.CanWriteReviews() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}

	cycle, warnings, err := h.Service.Warnings(r.Context(), cycleID)
	if err != nil {
		h.writeServiceError(w, "warnings_failed", err, requestID)
		return
	}
	api.Success(w, map[string]any{"cycle": cycle, "warnings": warnings}, requestID)
}

func (h *Handler) handleEmployeeView(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !user.CanWriteReviews() && employeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted to view this employee", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}

	view, err := h.Service.EmployeeCycleView(r.Context(), employeeID, cycleID)
	if err != nil {
		h.writeServiceError(w, "employee_view_failed", err, requestID)
		return
	}
	api.Success(w, view, requestID)
}

func (h *Handler) handleMonthlySummaries(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !user.CanWriteReviews() && employeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted to view this employee", requestID)
		return
	}

	cycleID, err := queryInt(r, "cycleId")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", "cycleId must be an integer", requestID)
		return
	}

	summaries, err := h.Service.MonthlySummaries(r.Context(), employeeID, cycleID)
	if err != nil {
		h.writeServiceError(w, "monthly_summaries_failed", err, requestID)
		return
	}
	api.Success(w, summaries, requestID)
}

func (h *Handler) handleCycleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !user.CanWriteReviews() && employeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted to view this employee", requestID)
		return
	}

	cycleID, err := strconv.Atoi(chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_cycle_id", "cycle id must be an integer", requestID)
		return
	}

	summary, err := h.Service.EmployeeCycleSummary(r.Context(), employeeID, cycleID)
	if err != nil {
		h.writeServiceError(w, "cycle_summary_failed", err, requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func parseReviewFilter(r *http.Request) (performance.ReviewFilter, error) {
	filter := performance.ReviewFilter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Tag:        strings.TrimSpace(r.URL.Query().Get("tag")),
	}
	var err error
	if filter.CycleID, err = queryInt(r, "cycleId"); err != nil {
		return filter, fmt.Errorf("cycleId must be an integer")
	}
	if filter.Year, err = queryInt(r, "year"); err != nil {
		return filter, fmt.Errorf("year must be an integer")
	}
	if filter.Month, err = queryInt(r, "month"); err != nil {
		return filter, fmt.Errorf("month must be an integer")
	}
	if raw := r.URL.Query().Get("warning"); raw != "" {
		warning, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("warning must be a boolean")
		}
		filter.Warning = &warning
	}
	return filter, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// writeServiceError maps domain errors onto the wire. Unknown errors are
// logged and reported as 500 with the caller-supplied code.
func (h *Handler) writeServiceError(w http.ResponseWriter, code string, err error, requestID string) {
	var validation *performance.ValidationError
	switch {
	case errors.As(err, &validation):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: validation.Field, Reason: validation.Reason}})
	case errors.Is(err, performance.ErrMonthFull):
		api.Fail(w, http.StatusConflict, "month_full", "employee already has the maximum reviews for this month", requestID)
	case errors.Is(err, performance.ErrCycleClosed):
		api.Fail(w, http.StatusConflict, "cycle_closed", "cycle has been administratively closed", requestID)
	case errors.Is(err, performance.ErrCycleAlreadyDone):
		api.Fail(w, http.StatusConflict, "cycle_already_closed", "cycle is already closed", requestID)
	case errors.Is(err, performance.ErrReviewNotFound):
		api.Fail(w, http.StatusNotFound, "review_not_found", "review not found", requestID)
	case errors.Is(err, performance.ErrCycleNotFound), errors.Is(err, performance.ErrNoActiveCycle):
		api.Fail(w, http.StatusNotFound, "cycle_not_found", "cycle not found", requestID)
	case errors.Is(err, performance.ErrSummaryNotFound):
		api.Fail(w, http.StatusNotFound, "summary_not_found", "summary not found", requestID)
	default:
		slog.Error("performance handler error", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "internal server error", requestID)
	}
}
