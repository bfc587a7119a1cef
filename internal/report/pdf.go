package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/pkarolak/gradeboard/internal/services"
)

type valueCount struct {
	Value int
	Count int
}

// frequency returns how often each grade value occurs, ordered by value.
func frequency(grades []*services.Grade) []valueCount {
	byValue := map[int]int{}
	for _, g := range grades {
		byValue[g.Grade]++
	}
	out := make([]valueCount, 0, len(byValue))
	for v, c := range byValue {
		out = append(out, valueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// chronological returns a copy of the grades ordered by creation time.
func chronological(grades []*services.Grade) []*services.Grade {
	out := make([]*services.Grade, len(grades))
	copy(out, grades)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// averageLabel formats the arithmetic mean of the grade values. An empty
// set has no mean; it reads "n/a" instead of dividing by zero.
func averageLabel(grades []*services.Grade) string {
	if len(grades) == 0 {
		return "n/a"
	}
	sum := 0
	for _, g := range grades {
		sum += g.Grade
	}
	return fmt.Sprintf("%.2f", float64(sum)/float64(len(grades)))
}

func composePDF(path string, sv *services.Survey, grades []*services.Grade, histPath string, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Report: results for the '%s' survey", sv.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 6, fmt.Sprintf("Window: %s to %s", sv.StartAt.Format("2006-01-02 15:04"), sv.FinishesAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(0, 7, "Average grade: "+averageLabel(grades), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if histPath != "" {
		pdf.ImageOptions(histPath, 14, pdf.GetY(), 180, 90, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.SetY(pdf.GetY() + 94)
	} else {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 7, "No grades were submitted during the survey window.", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary of grades:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, fc := range frequency(grades) {
		pdf.CellFormat(0, 6, fmt.Sprintf("Grade %d: %d votes", fc.Value, fc.Count), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Detailed list of grades:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, g := range chronological(grades) {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("User %d gave a grade of %d on %s", g.UserID, g.Grade, g.CreatedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+generatedAt.Format(time.RFC3339), "", 0, "C", false, 0, "")

	return pdf.OutputFileAndClose(path)
}
