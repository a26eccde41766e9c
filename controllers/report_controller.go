// Package controllers controllers/report_controller.go
package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"school-trips/derive"
	"school-trips/logger"
	"school-trips/models"
	"school-trips/services"
	"school-trips/store"
)

// ReportController renders the CSV and PDF reports off the current
// database snapshot.
type ReportController struct {
	Store *store.Store
}

// NewReportController initializes a new instance of ReportController.
func NewReportController(st *store.Store) *ReportController {
	return &ReportController{Store: st}
}

// Annual streams the school-year report. Query params: year (start of
// the school year, defaults to the current one) and format (csv|pdf).
func (rc *ReportController) Annual(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
			return
		}
		year = parsed
	}

	snap, err := rc.Store.Snapshot()
	if err != nil {
		logger.Error.Printf("Annual: snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}

	rows := services.BuildAnnualReport(snap, year)
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no excursions in that period"})
		return
	}

	filename := fmt.Sprintf("Informe_Excursiones_%d-%d", year, year+1)
	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		data, err := services.AnnualReportPDF(rows, year)
		if err != nil {
			logger.Error.Printf("Annual: pdf generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	case "csv":
		var buf bytes.Buffer
		if err := services.WriteAnnualCSV(&buf, rows); err != nil {
			logger.Error.Printf("Annual: csv generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or pdf"})
	}
}

// Excursion streams one trip's report. Query param kind selects the
// audience: tutor (take-along list), financial (treasury) or director
// (day-of-trip control list).
func (rc *ReportController) Excursion(c *gin.Context) {
	id := c.Param("id")

	snap, err := rc.Store.Snapshot()
	if err != nil {
		logger.Error.Printf("Excursion: snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}

	var exc models.Excursion
	found := false
	for _, e := range snap.Excursions {
		if e.ID == id {
			exc, found = e, true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "excursion not found"})
		return
	}

	var parts []models.Participation
	for _, p := range snap.Participations {
		if p.ExcursionID == id {
			parts = append(parts, p)
		}
	}
	students := derive.StudentsByID(snap.Students)

	kind := c.DefaultQuery("kind", "tutor")
	var data []byte
	switch kind {
	case "tutor":
		data, err = services.TutorListPDF(exc, parts, students)
	case "financial":
		data, err = services.FinancialReportPDF(exc, parts, students)
	case "director":
		data, err = services.DirectorControlPDF(exc, parts, students, snap.Classes)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be tutor, financial or director"})
		return
	}
	if err != nil {
		logger.Error.Printf("Excursion: %s report failed: %v", kind, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.pdf"`, kind, id))
	c.Data(http.StatusOK, "application/pdf", data)
}
