package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/report"
)

type ReportHandler struct {
	service *report.Service
}

func NewReportHandler(s *report.Service) *ReportHandler {
	return &ReportHandler{service: s}
}

// query parses :report, the filter and ?group_by=period,category,name.
func (h *ReportHandler) query(c *gin.Context) (*report.Result, bool) {
	r, err := models.ParseReport(c.Param("report"))
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	var f report.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "invalid filter")
		return nil, false
	}

	var groupBy []models.Dimension
	if s := c.Query("group_by"); s != "" {
		for _, part := range strings.Split(s, ",") {
			d, ok := models.ParseDimension(strings.TrimSpace(part))
			if !ok {
				badRequest(c, fmt.Sprintf("unknown group_by dimension %q", part))
				return nil, false
			}
			groupBy = append(groupBy, d)
		}
	}

	res, err := h.service.Query(c.Request.Context(), auth.SessionFrom(c), r, f, groupBy)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return res, true
}

func (h *ReportHandler) Get(c *gin.Context) {
	res, ok := h.query(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) Export(c *gin.Context) {
	res, ok := h.query(c)
	if !ok {
		return
	}
	filename := fmt.Sprintf("%s_%s.csv", res.Report, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.ExportCSV(c.Writer, res.Report, res.Rows); err != nil {
		_ = c.Error(err)
	}
}

func (h *ReportHandler) Charts(c *gin.Context) {
	res, ok := h.query(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report": res.Report,
		"charts": report.Charts(res.Report, res.Rows),
		"totals": res.Totals,
	})
}

// Weeks lists the reporting weeks of ?month=YYYY-MM, the last one clamped to today.
func (h *ReportHandler) Weeks(c *gin.Context) {
	m, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		badRequest(c, "month must be YYYY-MM")
		return
	}
	weeks := report.WeeksForMonth(m.Year(), m.Month())
	now := time.Now()
	out := weeks[:0]
	for _, w := range weeks {
		if w.Start.After(now) {
			break
		}
		w.End = report.ClampToToday(w.End, now)
		out = append(out, w)
	}
	c.JSON(http.StatusOK, gin.H{"month": m.Format("2006-01"), "weeks": out})
}
