package performancehandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"perfengine/internal/domain/performance"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &performance.ValidationError{Field: "score", Reason: "must be between 1 and 5"}, http.StatusBadRequest, "validation_error"},
		{"month full", performance.ErrMonthFull, http.StatusConflict, "month_full"},
		{"cycle closed", performance.ErrCycleClosed, http.StatusConflict, "cycle_closed"},
		{"cycle already closed", performance.ErrCycleAlreadyDone, http.StatusConflict, "cycle_already_closed"},
		{"review not found", performance.ErrReviewNotFound, http.StatusNotFound, "review_not_found"},
		{"cycle not found", performance.ErrCycleNotFound, http.StatusNotFound, "cycle_not_found"},
		{"no active cycle", performance.ErrNoActiveCycle, http.StatusNotFound, "cycle_not_found"},
		{"summary not found", performance.ErrSummaryNotFound, http.StatusNotFound, "summary_not_found"},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, "reviews_failed"},
	}

	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeServiceError(rec, "reviews_failed", tc.err, "req-1")

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatal("expected success=false")
			}
			if body.Error.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, body.Error.Code)
			}
		})
	}
}

func TestWriteServiceErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	h := &Handler{}
	h.writeServiceError(rec, "review_create_failed", &performance.ValidationError{Field: "feedback", Reason: "must not be empty"}, "req-2")

	var body struct {
		Error struct {
			Details struct {
				Fields []struct {
					Field  string `json:"field"`
					Reason string `json:"reason"`
				} `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Error.Details.Fields) != 1 || body.Error.Details.Fields[0].Field != "feedback" {
		t.Fatalf("expected feedback field issue, got %+v", body.Error.Details.Fields)
	}
}
