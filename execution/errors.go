package execution

import (
	"bytes"
	"encoding/json"

	"github.com/fernandosegrr/Webhook-HUB/model"
)

// ErrorSource is one place an execution may record why it failed.
type ErrorSource struct {
	Name    string
	Resolve func(e *model.Execution) *model.ErrorObject
}

// ErrorSources lists the error locations in priority order.
var ErrorSources = []ErrorSource{
	{Name: "resultData", Resolve: resultError},
	{Name: "executionData", Resolve: nestedResultError},
	{Name: "lastNodeExecuted", Resolve: lastNodeError},
}

func resultError(e *model.Execution) *model.ErrorObject {
	if e.Data == nil || e.Data.ResultData == nil {
		return nil
	}
	return e.Data.ResultData.Error
}

func nestedResultError(e *model.Execution) *model.ErrorObject {
	if e.Data == nil || e.Data.ExecutionData == nil || e.Data.ExecutionData.ResultData == nil {
		return nil
	}
	return e.Data.ExecutionData.ResultData.Error
}

func lastNodeError(e *model.Execution) *model.ErrorObject {
	if e.Data == nil || e.Data.ResultData == nil || e.Data.ResultData.LastNodeExecuted == "" {
		return nil
	}
	run := RunDataOf(e).Latest(e.Data.ResultData.LastNodeExecuted)
	if run == nil {
		return nil
	}
	return run.Error
}

// ErrorMessage returns the first non-empty message found in ErrorSources,
// or "" when the execution recorded no error.
func ErrorMessage(e *model.Execution) string {
	for _, src := range ErrorSources {
		if msg := Describe(src.Resolve(e)); msg != "" {
			return msg
		}
	}
	return ""
}

// Describe renders an error as its message, else its description, else its
// serialized form.
func Describe(err *model.ErrorObject) string {
	if !err.Present() {
		return ""
	}
	if err.Message != "" {
		return err.Message
	}
	if err.Description != "" {
		return err.Description
	}
	if len(err.Raw) > 0 {
		var buf bytes.Buffer
		if json.Compact(&buf, err.Raw) == nil {
			return buf.String()
		}
		return string(err.Raw)
	}
	b, _ := json.Marshal(err)
	return string(b)
}
