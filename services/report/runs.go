package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/ezenkico/deploy-commander/stagehand/services/scheduler"
)

const runsPath = "/v1/runs"

const (
	StatusStarted = "started"
	StatusFailed  = "failed"
)

type FailedService struct {
	Service string `json:"service"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
}

// RunReport is the body posted for every run.
type RunReport struct {
	Run     uuid.UUID       `json:"run"`
	Network string          `json:"network"`
	Status  string          `json:"status"`
	Started []string        `json:"started"`
	Failed  []FailedService `json:"failed"`
	Skipped []string        `json:"skipped"`
}

type createRunResponse struct {
	ID uuid.UUID `json:"id"`
}

func NewRunReport(result *scheduler.Result) RunReport {
	rep := RunReport{
		Run:     result.RunID,
		Network: result.Network,
		Status:  StatusStarted,
		Started: append([]string{}, result.Started...),
		Failed:  []FailedService{},
		Skipped: append([]string{}, result.Skipped...),
	}

	for _, f := range result.Failures {
		fs := FailedService{Service: f.Service}
		if f.Kind != nil {
			fs.Kind = f.Kind.Error()
		}
		if f.Err != nil {
			fs.Error = f.Err.Error()
		}
		rep.Failed = append(rep.Failed, fs)
	}
	if result.Failed() {
		rep.Status = StatusFailed
	}
	return rep
}

// ReportRun posts run and returns the id the control endpoint assigned to it.
func (r *Reporter) ReportRun(
	ctx context.Context,
	run RunReport,
) (uuid.UUID, error) {

	b, err := json.Marshal(run)
	if err != nil {
		return uuid.Nil, err
	}

	req, err := r.newRequest(ctx, http.MethodPost, runsPath, bytes.NewReader(b))
	if err != nil {
		return uuid.Nil, err
	}

	resp, err := r.endpoint.Client(requestTimeout).Do(req)
	if err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		rb, _ := io.ReadAll(resp.Body)
		return uuid.Nil, fmt.Errorf("report run failed (%d): %s", resp.StatusCode, string(rb))
	}

	var out createRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return uuid.Nil, err
	}

	return out.ID, nil
}
