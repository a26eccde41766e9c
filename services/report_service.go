// Package services - services/report_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"school-trips/derive"
	"school-trips/logger"
	"school-trips/models"
)

// AnnualReportRow is one excursion's financial line in the annual
// report: what it charged, what it collected and what it really cost.
type AnnualReportRow struct {
	Date            string
	Title           string
	Destination     string
	Group           string
	CostBus         float64
	CostOther       float64
	CostEntry       float64
	PricePerStudent float64
	Collected       float64
	TotalCost       float64
	Balance         float64
}

// parseTripDate accepts the ISO datetime strings the store carries.
func parseTripDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ScopeLabel renders an excursion's audience for humans: "Global",
// "Ciclo <name>" or "Clase <name>".
func ScopeLabel(exc models.Excursion, cycles []models.Cycle, classes []models.ClassGroup) string {
	switch exc.Scope {
	case models.ScopeGlobal:
		return "Global"
	case models.ScopeCiclo:
		for _, cy := range cycles {
			if cy.ID == exc.TargetID {
				return "Ciclo " + cy.Name
			}
		}
		return "Ciclo"
	case models.ScopeClase:
		for _, cl := range classes {
			if cl.ID == exc.TargetID {
				return "Clase " + cl.Name
			}
		}
		return "Clase"
	}
	return string(exc.Scope)
}

// realCost computes an excursion's actual expense: fixed costs
// (bus + other) plus entry fees for everyone who attended, falling
// back to everyone who paid when attendance was never recorded.
func realCost(exc models.Excursion, parts []models.Participation) (collected, total float64) {
	attendees, payers := 0, 0
	for _, p := range parts {
		if p.Attended {
			attendees++
		}
		if p.Paid {
			payers++
			collected += p.AmountPaid
		}
	}
	entryCount := attendees
	if entryCount == 0 {
		entryCount = payers
	}
	total = exc.CostBus + exc.CostOther + exc.CostEntry*float64(entryCount)
	return collected, total
}

// BuildAnnualReport collects every excursion of the school year
// starting 1 September of the given year (through 30 June of the
// next), ordered by start date.
func BuildAnnualReport(snap models.Snapshot, year int) []AnnualReportRow {
	start := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.June, 30, 23, 59, 59, 0, time.UTC)

	partsByExcursion := make(map[string][]models.Participation)
	for _, p := range snap.Participations {
		partsByExcursion[p.ExcursionID] = append(partsByExcursion[p.ExcursionID], p)
	}

	type dated struct {
		when time.Time
		exc  models.Excursion
	}
	var selected []dated
	for _, exc := range snap.Excursions {
		when, ok := parseTripDate(exc.DateStart)
		if !ok {
			logger.Warn.Printf("report: skipping excursion %s with unparseable date %q", exc.ID, exc.DateStart)
			continue
		}
		if when.Before(start) || when.After(end) {
			continue
		}
		selected = append(selected, dated{when, exc})
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].when.Before(selected[j].when) })

	rows := make([]AnnualReportRow, 0, len(selected))
	for _, d := range selected {
		collected, total := realCost(d.exc, partsByExcursion[d.exc.ID])
		rows = append(rows, AnnualReportRow{
			Date:            d.when.Format("02/01/2006"),
			Title:           d.exc.Title,
			Destination:     d.exc.Destination,
			Group:           ScopeLabel(d.exc, snap.Cycles, snap.Classes),
			CostBus:         d.exc.CostBus,
			CostOther:       d.exc.CostOther,
			CostEntry:       d.exc.CostEntry,
			PricePerStudent: d.exc.CostGlobal,
			Collected:       collected,
			TotalCost:       total,
			Balance:         collected - total,
		})
	}
	return rows
}

// annualCSVHeaders matches the spreadsheet the treasury already uses.
var annualCSVHeaders = []string{
	"Fecha", "Título", "Destino", "Grupo", "Coste Bus", "Otros Gastos",
	"Coste Entrada", "Precio Alumno", "Ingresos", "Gastos Totales", "Balance",
}

// WriteAnnualCSV streams the annual report as semicolon-separated CSV.
func WriteAnnualCSV(w io.Writer, rows []AnnualReportRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(annualCSVHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date, r.Title, r.Destination, r.Group,
			fmt.Sprintf("%.2f", r.CostBus),
			fmt.Sprintf("%.2f", r.CostOther),
			fmt.Sprintf("%.2f", r.CostEntry),
			fmt.Sprintf("%.2f", r.PricePerStudent),
			fmt.Sprintf("%.2f", r.Collected),
			fmt.Sprintf("%.2f", r.TotalCost),
			fmt.Sprintf("%.2f", r.Balance),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AnnualReportPDF renders the landscape annual report with the totals
// line the treasury signs off on.
func AnnualReportPDF(rows []AnnualReportRow, year int) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Informe Anual de Excursiones - Curso %d/%d", year, year+1)))
	pdf.Ln(10)

	headers := []string{"Fecha", "Título", "Destino", "Grupo", "Bus", "Otros", "Entrada", "P.Alumno", "Ingresos", "Gastos", "Balance"}
	widths := []float64{22, 48, 38, 36, 18, 18, 18, 20, 20, 20, 20}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	var totalIn, totalOut float64
	for _, r := range rows {
		cells := []string{
			r.Date, r.Title, r.Destination, r.Group,
			fmt.Sprintf("%.2f", r.CostBus),
			fmt.Sprintf("%.2f", r.CostOther),
			fmt.Sprintf("%.2f", r.CostEntry),
			fmt.Sprintf("%.2f", r.PricePerStudent),
			fmt.Sprintf("%.2f", r.Collected),
			fmt.Sprintf("%.2f", r.TotalCost),
			fmt.Sprintf("%.2f", r.Balance),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		totalIn += r.Collected
		totalOut += r.TotalCost
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(80, 8, tr(fmt.Sprintf("TOTAL INGRESOS: %.2f€", totalIn)))
	pdf.Cell(80, 8, tr(fmt.Sprintf("TOTAL GASTOS: %.2f€", totalOut)))
	pdf.Cell(80, 8, tr(fmt.Sprintf("BALANCE FINAL: %.2f€", totalIn-totalOut)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ------------------- per-excursion reports -------------------

// yesNo renders a boolean the way the printed lists always have.
func yesNo(v bool) string {
	if v {
		return "SÍ"
	}
	return "NO"
}

// TutorListPDF renders the class list a tutor takes on the trip:
// authorisation, payment and attendance per student.
func TutorListPDF(exc models.Excursion, parts []models.Participation, students map[string]models.Student) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr("Lista: "+exc.Title))
	pdf.Ln(12)

	headers := []string{"Alumno", "Autorización", "Pagado", "Asistencia"}
	widths := []float64{80, 36, 30, 30}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range parts {
		cells := []string{
			derive.DisplayName(students, p.StudentID),
			yesNo(p.AuthSigned), yesNo(p.Paid), yesNo(p.Attended),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FinancialReportPDF renders the treasury view of one excursion:
// collected versus fixed and variable costs, then payment status per
// student.
func FinancialReportPDF(exc models.Excursion, parts []models.Participation, students map[string]models.Student) ([]byte, error) {
	collected, total := realCost(exc, parts)
	fixed := exc.CostBus + exc.CostOther

	attendees, payers := 0, 0
	for _, p := range parts {
		if p.Attended {
			attendees++
		}
		if p.Paid {
			payers++
		}
	}
	entryCount := attendees
	if entryCount == 0 {
		entryCount = payers
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr("Informe Económico"))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Excursión: "+exc.Title))
	pdf.Ln(9)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Total Recaudado: %.2f€", collected)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Gastos Fijos (Bus + Otros): %.2f€", fixed)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Gastos Variables (Entradas x%d): %.2f€", entryCount, total-fixed)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Coste Total: %.2f€", total)))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Balance Final: %.2f€", collected-total)))
	pdf.Ln(11)

	headers := []string{"Alumno", "Pago"}
	widths := []float64{110, 50}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range parts {
		payment := "Pendiente"
		if p.Paid {
			payment = fmt.Sprintf("%.2f€", p.AmountPaid)
		}
		pdf.CellFormat(widths[0], 6, tr(derive.DisplayName(students, p.StudentID)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(payment), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DirectorControlPDF renders the day-of-trip control list the
// direction hands to the front desk: students grouped per class, each
// marked as going or staying. A student goes when they are authorised
// and paid up, or were explicitly marked as attending.
func DirectorControlPDF(exc models.Excursion, parts []models.Participation, students map[string]models.Student, classes []models.ClassGroup) ([]byte, error) {
	classNames := make(map[string]string, len(classes))
	for _, cl := range classes {
		classNames[cl.ID] = cl.Name
	}

	byClass := make(map[string][]models.Participation)
	for _, p := range parts {
		s, ok := students[p.StudentID]
		if !ok {
			continue
		}
		name := classNames[s.ClassID]
		if name == "" {
			name = "Sin Clase"
		}
		byClass[name] = append(byClass[name], p)
	}
	classKeys := make([]string, 0, len(byClass))
	for k := range byClass {
		classKeys = append(classKeys, k)
	}
	sort.Strings(classKeys)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr("Listado de Control - Día de Excursión"))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Actividad: "+exc.Title))
	pdf.Ln(7)
	when := exc.DateStart
	if t, ok := parseTripDate(exc.DateStart); ok {
		when = t.Format("02/01/2006")
	}
	pdf.Cell(0, 7, tr(fmt.Sprintf("Fecha: %s - Destino: %s", when, exc.Destination)))
	pdf.Ln(10)

	headers := []string{"Alumno", "Pagado", "Autorizado", "ESTADO"}
	widths := []float64{70, 24, 26, 50}

	for _, className := range classKeys {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr("Clase: "+className))
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(60, 60, 60)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, p := range byClass[className] {
			going := (p.AuthSigned && p.Paid) || p.Attended
			status := "SE QUEDA EN CENTRO"
			if going {
				status = "VA A LA EXCURSIÓN"
			}
			cells := []string{
				derive.DisplayName(students, p.StudentID),
				yesNo(p.Paid), yesNo(p.AuthSigned), status,
			}
			for i, cell := range cells {
				pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
