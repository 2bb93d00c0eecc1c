// Schedule HTTP handlers.
//
// This file exposes REST endpoints for the dose schedule:
//   - GET  /schedule                     (reconciled day schedule)
//   - POST /schedule/{id}/take           (record a dose as taken)
//   - POST /schedule/{id}/skip           (record a dose as skipped)
//   - POST /schedule/{id}/undo           (revert a recorded dose action)
//   - GET  /history                      (recorded actions for a date, paginated)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (dates, timestamps)
//   - delegate to application services (ScheduleService)
//   - implement idempotency semantics for dose actions
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, medication, key), the handler acknowledges without
// re-applying the action and sets `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/http/middleware"
	"github.com/medtrack/go-medtrack-backend/internal/repo"
	"github.com/medtrack/go-medtrack-backend/internal/services"
)

//
// DTOs
//

// DoseActionRequest is the JSON payload for take/skip/undo dose actions.
type DoseActionRequest struct {
	// ScheduledTime identifies the dose slot being acted on (RFC 3339).
	ScheduledTime string `json:"scheduledTime" binding:"required" example:"2025-03-01T08:00:00Z"`
}

// DayScheduleResponse is the reconciled schedule for one calendar date.
type DayScheduleResponse struct {
	Date        string                   `json:"date"` // YYYY-MM-DD
	Medications []services.MedicationDay `json:"medications"`
}

// HistoryDayResponse contains a page of recorded dose actions for a date.
type HistoryDayResponse struct {
	Date       string                 `json:"date"` // YYYY-MM-DD
	Records    []domain.HistoryRecord `json:"records"`
	Pagination Pagination             `json:"pagination"`
}

//
// Helpers
//

// parseDateParam reads the "date" query parameter as a local calendar date,
// defaulting to today when absent.
func parseDateParam(c *gin.Context, now time.Time) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return domain.Midnight(now), true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// doseAction is the shared take/skip/undo plumbing: id and timestamp
// validation, idempotency replay and store, metrics.
func (h *Handlers) doseAction(c *gin.Context, action string, apply func(medicationID string, scheduled time.Time) error) {
	ctx := c.Request.Context()
	medID := c.Param("id")

	if _, err := uuid.Parse(medID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medication id must be a UUID")
		return
	}

	var req DoseActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scheduledTime required")
		return
	}
	scheduled, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scheduledTime must be RFC 3339")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.schedSvc.(*services.ScheduleService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, medID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				c.Header("Idempotency-Replayed", "true")
				c.Status(rec.Status)
				return
			}
		}
	}

	if err := apply(medID, scheduled); err != nil {
		switch err {
		case services.ErrMedicationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medication not found")
		case services.ErrNoActionToUndo:
			fail(c, http.StatusConflict, ErrCodeConflict, "no recorded action to undo")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeActionFailed, err.Error())
		}
		middleware.ObserveDoseAction(action, "error")
		return
	}
	middleware.ObserveDoseAction(action, "ok")

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.schedSvc.(*services.ScheduleService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, medID, idemKey, http.StatusNoContent, ttl)
		}
	}

	noContent(c)
}

//
// Handlers
//

// DaySchedule godoc
// @ID          daySchedule
// @Summary     Day schedule
// @Description Returns the reconciled dose schedule for a calendar date (default today).
// @Description Statuses and badges reflect the server clock at request time.
// @Tags        Schedule
// @Produce     json
//
// @Param       date  query  string  false  "Calendar date (YYYY-MM-DD, default today)"  example(2025-03-01)
//
// @Success     200  {object}  handlers.DayScheduleResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedule [get]
func (h *Handlers) DaySchedule(c *gin.Context) {
	date, valid := parseDateParam(c, time.Now())
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}

	meds, err := h.schedSvc.DaySchedule(c.Request.Context(), date)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeScheduleFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, DayScheduleResponse{
		Date:        date.Format("2006-01-02"),
		Medications: meds,
	})
}

// TakeDose godoc
// @ID          takeDose
// @Summary     Record a dose as taken
// @Description Marks the dose slot as taken and consumes stock. Supports idempotency
// @Description via the Idempotency-Key header (same key acknowledges without re-applying).
// @Tags        Schedule
// @Accept      json
//
// @Param       X-User-ID        header  string  false  "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true   "Medication ID (UUID)"  format(uuid)
// @Param       body             body    handlers.DoseActionRequest  true  "Dose slot"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedule/{id}/take [post]
func (h *Handlers) TakeDose(c *gin.Context) {
	h.doseAction(c, "take", func(medID string, scheduled time.Time) error {
		return h.schedSvc.Take(c.Request.Context(), medID, scheduled)
	})
}

// SkipDose godoc
// @ID          skipDose
// @Summary     Record a dose as skipped
// @Description Marks the dose slot as skipped. Stock is untouched.
// @Tags        Schedule
// @Accept      json
//
// @Param       id    path  string                      true  "Medication ID (UUID)"  format(uuid)
// @Param       body  body  handlers.DoseActionRequest  true  "Dose slot"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedule/{id}/skip [post]
func (h *Handlers) SkipDose(c *gin.Context) {
	h.doseAction(c, "skip", func(medID string, scheduled time.Time) error {
		return h.schedSvc.Skip(c.Request.Context(), medID, scheduled)
	})
}

// UndoDose godoc
// @ID          undoDose
// @Summary     Revert a recorded dose action
// @Description Removes the take/skip record for the dose slot; a taken dose returns
// @Description its amount to stock.
// @Tags        Schedule
// @Accept      json
//
// @Param       id    path  string                      true  "Medication ID (UUID)"  format(uuid)
// @Param       body  body  handlers.DoseActionRequest  true  "Dose slot"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No recorded action"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedule/{id}/undo [post]
func (h *Handlers) UndoDose(c *gin.Context) {
	h.doseAction(c, "undo", func(medID string, scheduled time.Time) error {
		return h.schedSvc.Undo(c.Request.Context(), medID, scheduled)
	})
}

// HistoryDay godoc
// @ID          historyDay
// @Summary     List recorded dose actions for a date
// @Description Returns a paginated list of take/skip records bucketed under the
// @Description given calendar date (default today), ordered by scheduled time.
// @Description Buckets are keyed by the UTC day of the scheduled time, so in
// @Description zones behind UTC a late-evening dose lands under the next date.
// @Tags        Schedule
// @Produce     json
//
// @Param       date       query  string  false  "Calendar date (YYYY-MM-DD, default today)"  example(2025-03-01)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.HistoryDayResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /history [get]
func (h *Handlers) HistoryDay(c *gin.Context) {
	date, valid := parseDateParam(c, time.Now())
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}
	dayKey := date.Format("2006-01-02")

	recs, err := h.schedSvc.HistoryDay(c.Request.Context(), dayKey)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ScheduledTime.Before(recs[j].ScheduledTime)
	})

	page, pageSize := clampPagination(c)
	total := int64(len(recs))
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	start := (page - 1) * pageSize
	if start > len(recs) {
		start = len(recs)
	}
	end := start + pageSize
	if end > len(recs) {
		end = len(recs)
	}

	ok(c, http.StatusOK, HistoryDayResponse{
		Date:    dayKey,
		Records: recs[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
