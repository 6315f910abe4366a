package model

import (
	"encoding/json"
	"time"
)

// GanttKey is the output name that carries the schedule visualization.
const GanttKey = "gantt_data"

// Result is a successful execution-service response.
type Result struct {
	Outputs map[string]json.RawMessage `json:"outputs"`
	Gantt   *GanttData                 `json:"gantt,omitempty"`
}

// GanttData is the precomputed schedule returned by the backend.
type GanttData struct {
	TotalDuration float64       `json:"totalDuration"`
	Workers       []GanttWorker `json:"workers"`
	TimeScale     []GanttTick   `json:"timeScale"`
}

// GanttWorker is one lane of the chart.
type GanttWorker struct {
	WorkerID   int          `json:"workerId"`
	WorkerName string       `json:"workerName,omitempty"`
	Stages     []GanttStage `json:"stages"`
}

// GanttStage is one scheduled box.
type GanttStage struct {
	JobID    int      `json:"jobId"`
	StageNum int      `json:"stageNum"`
	Start    *float64 `json:"start"`
	End      float64  `json:"end"`
	Duration float64  `json:"duration"`
}

// GanttTick is a labelled time marker.
type GanttTick struct {
	Time  float64 `json:"time"`
	Label string  `json:"label"`
}

// Run is a recorded execution of an algorithm with concrete inputs.
type Run struct {
	ID          string         `json:"id"`
	FormID      string         `json:"form_id,omitempty"`
	Algorithm   string         `json:"algorithm"`
	State       RunState       `json:"state"`
	Inputs      map[string]any `json:"inputs"`
	Result      *Result        `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at"`
}

// RunSummary provides an aggregate count of run states.
type RunSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Discarded int `json:"discarded"`
}

// ComputeRunSummary calculates the RunSummary from a slice of runs.
func ComputeRunSummary(runs []*Run) RunSummary {
	s := RunSummary{Total: len(runs)}
	for _, r := range runs {
		switch r.State {
		case RunStatePending:
			s.Pending++
		case RunStateCompleted:
			s.Completed++
		case RunStateFailed:
			s.Failed++
		case RunStateDiscarded:
			s.Discarded++
		}
	}
	return s
}
