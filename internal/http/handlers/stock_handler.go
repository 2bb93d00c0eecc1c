// Stock HTTP handlers.
//
// This file exposes the stock overview endpoint:
//   - GET /stock   (per-medication run-out projection, most urgent first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/go-medtrack-backend/internal/services"
)

// StockOverviewResponse wraps the ranked stock projection.
type StockOverviewResponse struct {
	Items []services.StockItem `json:"items"`
}

// StockOverview godoc
// @ID          stockOverview
// @Summary     Stock overview
// @Description Returns one item per medication with its projected run-out date,
// @Description sorted by urgency. Medications within the low-stock window carry
// @Description runningLow=true.
// @Tags        Stock
// @Produce     json
//
// @Success     200  {object}  handlers.StockOverviewResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stock [get]
func (h *Handlers) StockOverview(c *gin.Context) {
	items, err := h.stockSvc.Overview(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, StockOverviewResponse{Items: items})
}
