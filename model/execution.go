package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type Execution struct {
	ID         ID             `json:"id"`
	WorkflowID ID             `json:"workflowId"`
	Mode       string         `json:"mode,omitempty"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	StoppedAt  *time.Time     `json:"stoppedAt,omitempty"`
	Status     string         `json:"status,omitempty"`
	Finished   *bool          `json:"finished,omitempty"`
	Data       *ExecutionData `json:"data,omitempty"`
	// ExecutionData is returned at the top level by some server versions.
	ExecutionData *NestedExecutionData `json:"executionData,omitempty"`
}

// Duration is the wall time between start and stop, and false when either
// timestamp is missing.
func (e *Execution) Duration() (time.Duration, bool) {
	if e.StartedAt == nil || e.StoppedAt == nil {
		return 0, false
	}
	return e.StoppedAt.Sub(*e.StartedAt), true
}

type ExecutionData struct {
	ResultData    *ResultData          `json:"resultData,omitempty"`
	ExecutionData *NestedExecutionData `json:"executionData,omitempty"`
}

type NestedExecutionData struct {
	ResultData *ResultData `json:"resultData,omitempty"`
}

type ResultData struct {
	RunData          RunData      `json:"runData,omitempty"`
	LastNodeExecuted string       `json:"lastNodeExecuted,omitempty"`
	Error            *ErrorObject `json:"error,omitempty"`
}

// RunData maps a node name to every run of that node in one execution.
type RunData map[string][]NodeRun

// UnmarshalJSON accepts a single run object as well as a list of runs per
// node. Entries that do not decode are dropped and read as not executed.
func (rd *RunData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(RunData, len(raw))
	for name, body := range raw {
		body = bytes.TrimSpace(body)
		if len(body) == 0 || bytes.Equal(body, []byte("null")) {
			continue
		}
		if body[0] == '[' {
			var runs []NodeRun
			if err := json.Unmarshal(body, &runs); err != nil {
				continue
			}
			out[name] = runs
			continue
		}
		var run NodeRun
		if err := json.Unmarshal(body, &run); err != nil {
			continue
		}
		out[name] = []NodeRun{run}
	}
	*rd = out
	return nil
}

type NodeRun struct {
	StartTime       int64           `json:"startTime,omitempty"`
	ExecutionTime   float64         `json:"executionTime"`
	ExecutionStatus string          `json:"executionStatus,omitempty"`
	Error           *ErrorObject    `json:"error,omitempty"`
	InputData       json.RawMessage `json:"inputData,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// ErrorObject keeps the raw payload so that errors without a message or
// description can still be rendered.
type ErrorObject struct {
	Message     string
	Description string
	Raw         json.RawMessage
}

func (e *ErrorObject) UnmarshalJSON(data []byte) error {
	e.Raw = append(e.Raw[:0], data...)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// plain string errors are rendered as their serialized form
		return nil
	}
	e.Message = stringField(fields["message"])
	e.Description = stringField(fields["description"])
	return nil
}

// Present reports whether the run recorded an error. Falsy JSON values such
// as "" or false are sent by some nodes in place of an absent error.
func (e *ErrorObject) Present() bool {
	if e == nil {
		return false
	}
	switch string(bytes.TrimSpace(e.Raw)) {
	case `""`, "false", "0", "null":
		return false
	}
	return true
}

func (e ErrorObject) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(map[string]string{"message": e.Message, "description": e.Description})
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

type ExecutionPage struct {
	Data       []Execution `json:"data"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// Latest returns the most recent run of the named node, or nil when the node
// did not run. Retries and loop iterations append runs, so the last entry wins.
func (rd RunData) Latest(name string) *NodeRun {
	runs := rd[name]
	if len(runs) == 0 {
		return nil
	}
	return &runs[len(runs)-1]
}
