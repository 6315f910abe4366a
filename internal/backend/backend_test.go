package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/me/schedlab/pkg/model"
)

func TestEncodeParameters(t *testing.T) {
	params, err := EncodeParameters(map[string]any{
		"num_jobs":  int64(3),
		"job_times": model.Matrix{{int64(1), int64(2)}, {int64(3), int64(4)}},
		"ratio":     0.25,
		"verbose":   false,
		"label":     "spt run",
		"weights":   []any{int64(1), int64(2)},
	})
	if err != nil {
		t.Fatalf("EncodeParameters: %v", err)
	}

	want := []ParamValue{
		{"job_times", "[[1,2],[3,4]]"},
		{"label", "spt run"},
		{"num_jobs", "3"},
		{"ratio", "0.25"},
		{"verbose", "false"},
		{"weights", "[1,2]"},
	}
	if len(params) != len(want) {
		t.Fatalf("got %d params, want %d", len(params), len(want))
	}
	for i := range want {
		if params[i] != want[i] {
			t.Errorf("params[%d] = %+v, want %+v", i, params[i], want[i])
		}
	}
}

func TestDecodeResult(t *testing.T) {
	body := `{
		"order": [2, 0, 1],
		"makespan": 17,
		"gantt_data": {
			"totalDuration": 17,
			"workers": [{"workerId": 1, "workerName": "M1", "stages": [{"jobId": 2, "stageNum": 1, "start": 0, "end": 4, "duration": 4}]}],
			"timeScale": [{"time": 0, "label": "0"}]
		}
	}`
	res, err := DecodeResult("johnson", []byte(body))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if string(res.Outputs["makespan"]) != "17" {
		t.Errorf("makespan = %s", res.Outputs["makespan"])
	}
	if _, ok := res.Outputs[model.GanttKey]; ok {
		t.Error("gantt_data left in outputs")
	}
	if res.Gantt == nil || res.Gantt.TotalDuration != 17 || len(res.Gantt.Workers) != 1 {
		t.Fatalf("gantt = %+v", res.Gantt)
	}
	st := res.Gantt.Workers[0].Stages[0]
	if st.Start == nil || *st.Start != 0 || st.End != 4 {
		t.Errorf("stage = %+v", st)
	}
}

func TestDecodeResult_ErrorBody(t *testing.T) {
	_, err := DecodeResult("spt", []byte(`{"error": true, "message": "infeasible"}`))
	var ee *ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want ExecutionError", err)
	}
	if ee.Message != "infeasible" || UserMessage(err) != "infeasible" {
		t.Errorf("message = %q / %q", ee.Message, UserMessage(err))
	}

	res, err := DecodeResult("spt", []byte(`{"error": false, "message": "", "value": 1}`))
	if err != nil {
		t.Fatalf("error:false treated as failure: %v", err)
	}
	if len(res.Outputs) != 1 || string(res.Outputs["value"]) != "1" {
		t.Errorf("outputs = %v, want only value", res.Outputs)
	}
	if _, err := DecodeResult("spt", []byte(`[1,2]`)); err == nil {
		t.Error("expected parse error for non-object body")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"execution empty", &ExecutionError{Algorithm: "spt"}, "The algorithm failed without an error message."},
		{"status with message", &StatusError{StatusCode: 400, Message: "num_jobs is required"}, "num_jobs is required"},
		{"status without message", &StatusError{StatusCode: 502}, "Server error (502)."},
		{"wrapped status", fmt.Errorf("submit: %w", &StatusError{StatusCode: 500}), "Server error (500)."},
		{"no response", &NoResponseError{Op: "execute", Err: errors.New("connection refused")}, "No response from the server. Check your connection."},
		{"deadline", &NoResponseError{Op: "execute", Err: context.DeadlineExceeded}, "The server did not respond in time. Try again."},
		{"not found", fmt.Errorf("x: %w", ErrAlgorithmNotFound), "Algorithm not found."},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&StatusError{StatusCode: 503}) {
		t.Error("503 should be retryable")
	}
	if IsRetryable(&StatusError{StatusCode: 404}) {
		t.Error("404 should not be retryable")
	}
	if !IsRetryable(&NoResponseError{Err: errors.New("reset")}) {
		t.Error("transport error should be retryable")
	}
	if IsRetryable(&NoResponseError{Err: context.Canceled}) {
		t.Error("cancellation should not be retryable")
	}
}
