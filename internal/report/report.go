// Package report produces the per-survey PDF report: grade submissions
// bucketed over the survey window, a rendered bar chart, summary
// statistics and an itemized list, composed into a single document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pkarolak/gradeboard/internal/services"
)

type Generator struct {
	baseDir string
	now     func() time.Time
}

func NewGenerator(baseDir string) *Generator {
	return &Generator{
		baseDir: baseDir,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Artifact is one generated report on disk. The directory is unique per
// request and owned by the caller until Cleanup.
type Artifact struct {
	Dir     string
	PDFPath string
}

// Generate renders the chart and composes the PDF under a fresh directory.
// The chart is omitted when no grade falls inside the survey window; the
// document itself is always produced.
func (g *Generator) Generate(sv *services.Survey, grades []*services.Grade) (*Artifact, error) {
	dir := filepath.Join(g.baseDir, "report-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	starts, counts := timeBins(sv, grades)
	total := 0
	for _, c := range counts {
		total += c
	}

	histPath := ""
	if total > 0 {
		histPath = filepath.Join(dir, "histogram.png")
		if err := renderHistogram(histPath, starts, counts); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
	}

	pdfPath := filepath.Join(dir, "report.pdf")
	if err := composePDF(pdfPath, sv, grades, histPath, g.now()); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("compose pdf: %w", err)
	}
	return &Artifact{Dir: dir, PDFPath: pdfPath}, nil
}

// Cleanup removes the artifact directory. It runs after the response has
// been sent, so failure is logged and otherwise ignored.
func (a *Artifact) Cleanup() {
	if err := os.RemoveAll(a.Dir); err != nil {
		logrus.WithError(err).WithField("dir", a.Dir).Warn("report cleanup failed")
	}
}
