package execution

import (
	"github.com/fernandosegrr/Webhook-HUB/model"
)

// RunDataOf finds the per-node run results of an execution. Server versions
// nest them differently; the first populated location wins. An execution
// fetched without includeData yields an empty map.
func RunDataOf(e *model.Execution) model.RunData {
	if e.Data != nil {
		if e.Data.ResultData != nil && e.Data.ResultData.RunData != nil {
			return e.Data.ResultData.RunData
		}
		if nested := e.Data.ExecutionData; nested != nil && nested.ResultData != nil && nested.ResultData.RunData != nil {
			return nested.ResultData.RunData
		}
	}
	if e.ExecutionData != nil && e.ExecutionData.ResultData != nil && e.ExecutionData.ResultData.RunData != nil {
		return e.ExecutionData.ResultData.RunData
	}
	return model.RunData{}
}
