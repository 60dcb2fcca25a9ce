package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/batch"
)

type BatchHandler struct {
	service *batch.Manager
}

func NewBatchHandler(s *batch.Manager) *BatchHandler {
	return &BatchHandler{service: s}
}

// List returns the registry, newest first. ?report= narrows it to one report.
func (h *BatchHandler) List(c *gin.Context) {
	var report models.Report
	if s := c.Query("report"); s != "" {
		r, err := models.ParseReport(s)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		report = r
	}

	batches, err := h.service.ListBatches(c.Request.Context(), auth.SessionFrom(c), report)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": batches})
}

func (h *BatchHandler) Remove(c *gin.Context) {
	report, err := models.ParseReport(c.Param("report"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	batchID := c.Param("batchId")

	removed, err := h.service.RemoveBatch(c.Request.Context(), auth.SessionFrom(c), report, batchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "rows_removed": removed})
}

func (h *BatchHandler) AssignOrphans(c *gin.Context) {
	report, err := models.ParseReport(c.Param("report"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var payload struct {
		BatchID string `json:"batch_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			badRequest(c, "invalid payload")
			return
		}
	}

	id, n, err := h.service.AssignOrphans(c.Request.Context(), auth.SessionFrom(c), report, payload.BatchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": id, "rows_assigned": n})
}

func (h *BatchHandler) Reset(c *gin.Context) {
	var payload struct {
		Confirm string `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := h.service.MasterReset(c.Request.Context(), auth.SessionFrom(c), payload.Confirm); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all sheets cleared"})
}

func (h *BatchHandler) Sync(c *gin.Context) {
	res, err := h.service.Sync(c.Request.Context(), auth.SessionFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
