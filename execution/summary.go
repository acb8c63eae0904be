package execution

import (
	"fmt"
	"time"

	"github.com/fernandosegrr/Webhook-HUB/model"
)

// Summary is the header shown above an execution: its derived status and
// the reason it failed, if any.
type Summary struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflowId"`
	Status     Status     `json:"status"`
	Label      string     `json:"label"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty"`
	Duration   string     `json:"duration"`
}

func Summarize(e *model.Execution) Summary {
	status := StatusOf(e)
	return Summary{
		ID:         e.ID.String(),
		WorkflowID: e.WorkflowID.String(),
		Status:     status,
		Label:      status.Label(),
		Error:      ErrorMessage(e),
		StartedAt:  e.StartedAt,
		StoppedAt:  e.StoppedAt,
		Duration:   FormatDuration(e),
	}
}

// FormatDuration renders the run time as "850ms" or "2.4s", and "-" when the
// execution has not stopped.
func FormatDuration(e *model.Execution) string {
	d, ok := e.Duration()
	if !ok {
		return "-"
	}
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// Filter narrows a list to one status tab. "all" and "" keep everything.
func Filter(execs []model.Execution, tab string) []model.Execution {
	if tab == "" || tab == "all" {
		return execs
	}
	out := make([]model.Execution, 0, len(execs))
	for i := range execs {
		if string(StatusOf(&execs[i])) == tab {
			out = append(out, execs[i])
		}
	}
	return out
}
