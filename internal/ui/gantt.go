package ui

import (
	"fmt"
	"math"

	"github.com/me/schedlab/pkg/model"
)

// minBoxWidth keeps very short stages visible, in percent of the lane.
const minBoxWidth = 2.0

var stagePalette = []string{"#1976d2", "#9c27b0", "#d32f2f", "#ed6c02", "#0288d1", "#2e7d32"}

type ganttBox struct {
	Label   string
	Tooltip string
	Left    float64
	Width   float64
	Color   string
}

type ganttLane struct {
	Name  string
	Boxes []ganttBox
}

type ganttTick struct {
	Label string
	Left  float64
}

// ganttView is a percentage layout of the backend's precomputed schedule.
type ganttView struct {
	Lanes         []ganttLane
	Ticks         []ganttTick
	TotalDuration string
	Empty         bool
}

// buildGantt lays out each stage at start/total with width duration/total.
// Stages without a start time are skipped. A nil chart yields nil; a chart
// with no workers or no positive duration renders as empty.
func buildGantt(data *model.GanttData) *ganttView {
	if data == nil {
		return nil
	}
	total := data.TotalDuration
	if len(data.Workers) == 0 || total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return &ganttView{Empty: true}
	}

	v := &ganttView{
		TotalDuration: fmt.Sprintf("%.1f", total),
		Lanes:         make([]ganttLane, 0, len(data.Workers)),
	}
	for _, w := range data.Workers {
		lane := ganttLane{Name: w.WorkerName}
		if lane.Name == "" {
			lane.Name = fmt.Sprintf("Worker %d", w.WorkerID)
		}
		for _, st := range w.Stages {
			if st.Start == nil {
				continue
			}
			start := *st.Start
			lane.Boxes = append(lane.Boxes, ganttBox{
				Label:   fmt.Sprintf("%d.%d", st.JobID, st.StageNum),
				Tooltip: fmt.Sprintf("%d.%d (%.1f-%.1f)", st.JobID, st.StageNum, start, st.End),
				Left:    percent(start, total),
				Width:   math.Max(minBoxWidth, percent(st.Duration, total)),
				Color:   stageColor(st.JobID, st.StageNum),
			})
		}
		v.Lanes = append(v.Lanes, lane)
	}
	for _, t := range data.TimeScale {
		v.Ticks = append(v.Ticks, ganttTick{Label: t.Label, Left: percent(t.Time, total)})
	}
	return v
}

func percent(x, total float64) float64 {
	return math.Round(x/total*10000) / 100
}

func stageColor(jobID, stageNum int) string {
	i := (jobID + stageNum) % len(stagePalette)
	if i < 0 {
		i += len(stagePalette)
	}
	return stagePalette[i]
}
