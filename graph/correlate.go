package graph

import (
	"github.com/fernandosegrr/Webhook-HUB/model"
)

// Correlate pairs every declared node with its latest run in one execution.
// Nodes are matched by name, so a node renamed after the execution ran reads
// as not executed. Nodes without a run map to nil.
func Correlate(wf *model.Workflow, runData model.RunData) map[string]*model.NodeRun {
	out := make(map[string]*model.NodeRun, len(wf.Nodes))
	for _, n := range wf.Nodes {
		out[n.Name] = LatestRun(runData, n.Name)
	}
	return out
}

// LatestRun is the run shown for one node: its last recorded entry.
func LatestRun(runData model.RunData, name string) *model.NodeRun {
	return runData.Latest(name)
}
