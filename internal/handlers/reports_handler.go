package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/services"
)

type ReportHandler struct {
	Service services.TaskService

	// DefaultWindowDays is used when the request carries no window_days.
	DefaultWindowDays int
}

func NewReportHandler(service services.TaskService, defaultWindowDays int) *ReportHandler {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 7
	}
	return &ReportHandler{Service: service, DefaultWindowDays: defaultWindowDays}
}

// @Summary      Dashboard summary
// @Description  Status/priority distribution, rolling daily trend and completion rate over the whole task collection
// @Tags         Reports
// @Produce      json
// @Param        window_days  query     int  false  "trend window in days (default 7)"
// @Success      200          {object}  services.Analytics
// @Failure      500          {object}  map[string]string
// @Router       /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	windowDays := h.DefaultWindowDays
	if raw := c.Query("window_days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			windowDays = n
		}
	}

	data, err := h.Service.Summary(c.Request.Context(), windowDays)
	if err != nil {
		log.Printf("[reports][summary][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
