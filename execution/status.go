// Package execution derives display state from raw n8n execution records:
// per-node and per-execution status, the execution's error message, and the
// location of its run data.
package execution

import (
	"github.com/fernandosegrr/Webhook-HUB/model"
)

type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Success Status = "success"
	Error   Status = "error"
)

// NodeStatus classifies one node from its latest run. A nil run means the
// node was not reached in this execution.
func NodeStatus(run *model.NodeRun) Status {
	if run == nil {
		return Pending
	}
	if run.Error.Present() {
		return Error
	}
	return Success
}

// StatusOf classifies a whole execution. The explicit status wins, and any
// explicit status outside the known ones (canceled, new, unknown) counts as
// a failure. Without a status the finished flag decides. Executions carrying
// neither are reported as successful, which is the convention of the n8n
// server itself.
func StatusOf(e *model.Execution) Status {
	switch e.Status {
	case "running", "waiting":
		return Running
	case "error", "crashed":
		return Error
	case "success":
		return Success
	case "":
	default:
		return Error
	}
	if e.Finished != nil {
		if *e.Finished {
			return Success
		}
		return Error
	}
	return Success
}

// Label is the human readable name shown next to a status.
func (s Status) Label() string {
	switch s {
	case Running:
		return "Running"
	case Success:
		return "Completed"
	case Error:
		return "Error"
	default:
		return "Pending"
	}
}
