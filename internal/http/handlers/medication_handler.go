// Medication HTTP handlers.
//
// This file exposes REST endpoints for medication resources:
//   - POST   /medications               (create)
//   - GET    /medications               (list)
//   - GET    /medications/{id}          (fetch one)
//   - PUT    /medications/{id}          (update)
//   - DELETE /medications/{id}          (delete)
//   - POST   /medications/{id}/restock  (add stock)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/services"
	"github.com/medtrack/go-medtrack-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// MedicationService defines medication lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MedicationService interface {
	// List returns every stored medication.
	List(ctx context.Context) ([]domain.Medication, error)
	// Search returns medications matching the query, best match first.
	Search(ctx context.Context, query string) ([]domain.Medication, error)
	// Get returns one medication by id.
	Get(ctx context.Context, id string) (*domain.Medication, error)
	// Create validates and stores a new medication, assigning its id.
	Create(ctx context.Context, med domain.Medication) (*domain.Medication, error)
	// Update validates and replaces an existing medication.
	Update(ctx context.Context, med domain.Medication) (*domain.Medication, error)
	// Delete removes a medication by id.
	Delete(ctx context.Context, id string) error
	// Restock adds stock in packages or loose units.
	Restock(ctx context.Context, id string, mode services.RestockMode, amount int) (*domain.Medication, error)
}

// ScheduleService defines day-schedule queries and dose actions.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ScheduleService interface {
	// DaySchedule returns the reconciled dose schedule for a calendar date.
	DaySchedule(ctx context.Context, date time.Time) ([]services.MedicationDay, error)
	// Take records a dose as taken and consumes stock.
	Take(ctx context.Context, medicationID string, scheduled time.Time) error
	// Skip records a dose as skipped.
	Skip(ctx context.Context, medicationID string, scheduled time.Time) error
	// Undo reverts the recorded action for a dose.
	Undo(ctx context.Context, medicationID string, scheduled time.Time) error
	// HistoryDay lists recorded actions for a YYYY-MM-DD date.
	HistoryDay(ctx context.Context, dayKey string) ([]domain.HistoryRecord, error)
}

// StockService defines the stock projection query.
type StockService interface {
	// Overview returns per-medication stock items sorted by urgency.
	Overview(ctx context.Context) ([]services.StockItem, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for medications, schedules, and stock.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	medSvc   MedicationService
	schedSvc ScheduleService
	stockSvc StockService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(medSvc MedicationService, schedSvc ScheduleService, stockSvc StockService) *Handlers {
	return &Handlers{medSvc: medSvc, schedSvc: schedSvc, stockSvc: stockSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// RestockRequest is the JSON payload for adding stock to a medication.
type RestockRequest struct {
	// Mode selects the restock unit: "package" or "units".
	Mode string `json:"mode" binding:"required" example:"package"`
	// Amount is the number of packages or loose units to add (>= 0).
	Amount int `json:"amount" example:"2"`
}

// ListMedicationsResponse wraps the stored medication list.
type ListMedicationsResponse struct {
	Medications []domain.Medication `json:"medications"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination bounds page and page_size query params to sane defaults
// and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

//
// Handlers
//

// CreateMedication godoc
// @ID          createMedication
// @Summary     Create a medication
// @Description Validates and stores a new medication, returning it with its assigned id.
// @Tags        Medications
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.Medication  true  "Medication payload"
//
// @Success     201  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications [post]
func (h *Handlers) CreateMedication(c *gin.Context) {
	var med domain.Medication
	if err := c.ShouldBindJSON(&med); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	created, err := h.medSvc.Create(c.Request.Context(), med)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMedication) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, created)
}

// ListMedications godoc
// @ID          listMedications
// @Summary     List medications
// @Description Returns every stored medication. With q set, returns only
// @Description medications whose name or description matches, best match first.
// @Tags        Medications
// @Produce     json
//
// @Param       q  query  string  false  "Name or description filter"
//
// @Success     200  {object}  handlers.ListMedicationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications [get]
func (h *Handlers) ListMedications(c *gin.Context) {
	var meds []domain.Medication
	var err error
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		meds, err = h.medSvc.Search(c.Request.Context(), q)
	} else {
		meds, err = h.medSvc.List(c.Request.Context())
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMedicationsResponse{Medications: meds})
}

// GetMedication godoc
// @ID          getMedication
// @Summary     Fetch one medication
// @Tags        Medications
// @Produce     json
//
// @Param       id  path  string  true  "Medication ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [get]
func (h *Handlers) GetMedication(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medication id must be a UUID")
		return
	}

	med, err := h.medSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMedicationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medication not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, med)
}

// UpdateMedication godoc
// @ID          updateMedication
// @Summary     Update a medication
// @Description Validates and replaces the stored medication with the given id.
// @Tags        Medications
// @Accept      json
// @Produce     json
//
// @Param       id    path  string             true  "Medication ID (UUID)"  format(uuid)
// @Param       body  body  domain.Medication  true  "Medication payload"
//
// @Success     200  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [put]
func (h *Handlers) UpdateMedication(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medication id must be a UUID")
		return
	}

	var med domain.Medication
	if err := c.ShouldBindJSON(&med); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	med.ID = id // the path wins over any id in the body

	updated, err := h.medSvc.Update(c.Request.Context(), med)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMedicationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medication not found")
		case errors.Is(err, services.ErrInvalidMedication):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, updated)
}

// DeleteMedication godoc
// @ID          deleteMedication
// @Summary     Delete a medication
// @Tags        Medications
//
// @Param       id  path  string  true  "Medication ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [delete]
func (h *Handlers) DeleteMedication(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medication id must be a UUID")
		return
	}

	if err := h.medSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrMedicationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medication not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// RestockMedication godoc
// @ID          restockMedication
// @Summary     Add stock to a medication
// @Description Adds stock in whole packages (amount x packageQuantity units) or loose units.
// @Tags        Medications
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                    true  "Medication ID (UUID)"  format(uuid)
// @Param       body  body  handlers.RestockRequest  true  "Restock payload"
//
// @Success     200  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id}/restock [post]
func (h *Handlers) RestockMedication(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medication id must be a UUID")
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode required")
		return
	}

	med, err := h.medSvc.Restock(c.Request.Context(), id, services.RestockMode(req.Mode), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMedicationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medication not found")
		case errors.Is(err, services.ErrInvalidRestock):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, med)
}
