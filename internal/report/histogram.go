package report

import (
	"fmt"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/pkarolak/gradeboard/internal/services"
)

const binCount = 20

// timeBins partitions the survey window into binCount equal intervals and
// counts grades per interval. Bins are half-open [start, end) except the
// last, which is closed on both ends so a grade stamped exactly at the
// closing instant still counts. Grades outside the window are not binned.
func timeBins(sv *services.Survey, grades []*services.Grade) ([]time.Time, []int) {
	interval := sv.FinishesAt.Sub(sv.StartAt) / binCount
	starts := make([]time.Time, binCount)
	counts := make([]int, binCount)
	for i := range starts {
		starts[i] = sv.StartAt.Add(time.Duration(i) * interval)
	}
	for _, g := range grades {
		if idx := binIndex(sv.StartAt, sv.FinishesAt, interval, g.CreatedAt); idx >= 0 {
			counts[idx]++
		}
	}
	return starts, counts
}

func binIndex(start, finish time.Time, interval time.Duration, ts time.Time) int {
	if ts.Before(start) || ts.After(finish) {
		return -1
	}
	if interval <= 0 {
		// Degenerate zero-length window: everything lands in the final bin.
		return binCount - 1
	}
	idx := int(ts.Sub(start) / interval)
	if idx >= binCount {
		idx = binCount - 1
	}
	return idx
}

func renderHistogram(path string, starts []time.Time, counts []int) error {
	bars := make([]chart.Value, len(starts))
	for i := range starts {
		bars[i] = chart.Value{Label: starts[i].Format("15:04"), Value: float64(counts[i])}
	}
	graph := chart.BarChart{
		Title:      "Distribution of grades over time",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      900,
		Height:     450,
		BarWidth:   28,
		XAxis:      chart.Style{TextRotationDegrees: 45.0},
		Bars:       bars,
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create histogram file: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render histogram: %w", err)
	}
	return f.Close()
}
