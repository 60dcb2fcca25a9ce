package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/ingestion"
)

type UploadHandler struct {
	service  *ingestion.Service
	maxBytes int64
}

func NewUploadHandler(s *ingestion.Service, maxUploadMB int) *UploadHandler {
	return &UploadHandler{service: s, maxBytes: int64(maxUploadMB) << 20}
}

// Upload accepts a multipart "file" plus period_start, period_end (YYYY-MM-DD),
// optional upload_date and confirm_duplicate.
func (h *UploadHandler) Upload(c *gin.Context) {
	report, err := models.ParseReport(c.Param("report"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	start, err := time.Parse(models.DateLayout, c.PostForm("period_start"))
	if err != nil {
		badRequest(c, "period_start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(models.DateLayout, c.PostForm("period_end"))
	if err != nil {
		badRequest(c, "period_end must be YYYY-MM-DD")
		return
	}
	var uploadDate time.Time
	if s := c.PostForm("upload_date"); s != "" {
		if uploadDate, err = time.Parse(models.DateLayout, s); err != nil {
			badRequest(c, "upload_date must be YYYY-MM-DD")
			return
		}
	}
	confirm, _ := strconv.ParseBool(c.PostForm("confirm_duplicate"))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		badRequest(c, "cannot read file")
		return
	}
	if int64(len(content)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	res, err := h.service.Upload(c.Request.Context(), auth.SessionFrom(c), ingestion.UploadRequest{
		Report:           report,
		Filename:         header.Filename,
		Content:          content,
		PeriodStart:      start,
		PeriodEnd:        end,
		UploadDate:       uploadDate,
		ConfirmDuplicate: confirm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"batch":        res.Batch,
		"rows":         len(res.Normalized.Records),
		"dropped":      res.Normalized.Dropped,
		"excluded":     res.Normalized.Excluded,
		"out_of_range": res.Normalized.OutOfRange,
		"unlisted":     res.Normalized.Unlisted,
		"replaced":     res.Replaced,
		"columns":      res.Normalized.Columns,
	})
}

