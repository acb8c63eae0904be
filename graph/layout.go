// Package graph turns a workflow definition and one execution's run data into
// a render-ready canvas: positioned nodes with their run state, and curved
// edges between them.
package graph

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/fernandosegrr/Webhook-HUB/execution"
	"github.com/fernandosegrr/Webhook-HUB/model"
)

const (
	Padding    = 60.0
	NodeWidth  = 180.0
	NodeHeight = 56.0
)

var typePrefixes = []string{"n8n-nodes-base.", "@n8n/n8n-nodes-langchain."}

type EdgeState string

const (
	Executed EdgeState = "executed"
	NotRun   EdgeState = "pending"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"name"`
	TypeLabel       string           `json:"type"`
	X               float64          `json:"x"`
	Y               float64          `json:"y"`
	Status          execution.Status `json:"status"`
	Error           string           `json:"error,omitempty"`
	ErrorData       json.RawMessage  `json:"errorData,omitempty"`
	InputData       json.RawMessage  `json:"inputData,omitempty"`
	OutputData      json.RawMessage  `json:"outputData,omitempty"`
	ExecutionTimeMs *float64         `json:"executionTime,omitempty"`
}

// Edge is a cubic curve from the right-center of the source node to the
// left-center of the target node.
type Edge struct {
	Source       string           `json:"source"`
	Target       string           `json:"target"`
	From         Point            `json:"from"`
	To           Point            `json:"to"`
	C1           Point            `json:"c1"`
	C2           Point            `json:"c2"`
	SourceStatus execution.Status `json:"sourceStatus"`
	State        EdgeState        `json:"state"`
}

type Layout struct {
	Nodes      []Node  `json:"nodes"`
	Edges      []Edge  `json:"edges"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	NodeWidth  float64 `json:"nodeWidth"`
	NodeHeight float64 `json:"nodeHeight"`
}

// BuildForExecution lays out wf with the run results recorded in e.
func BuildForExecution(wf *model.Workflow, e *model.Execution) *Layout {
	return Build(wf, Correlate(wf, execution.RunDataOf(e)))
}

// Build positions the declared nodes on a canvas whose origin is Padding
// away from the top-left node, and connects them. It has no side effects:
// the same inputs always produce the same layout.
func Build(wf *model.Workflow, runs map[string]*model.NodeRun) *Layout {
	l := &Layout{
		Nodes:      make([]Node, 0, len(wf.Nodes)),
		Edges:      []Edge{},
		Width:      NodeWidth + 2*Padding,
		Height:     NodeHeight + 2*Padding,
		NodeWidth:  NodeWidth,
		NodeHeight: NodeHeight,
	}
	if len(wf.Nodes) == 0 {
		return l
	}

	minX, minY := wf.Nodes[0].Position.X, wf.Nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, n := range wf.Nodes[1:] {
		minX = min(minX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxX = max(maxX, n.Position.X)
		maxY = max(maxY, n.Position.Y)
	}
	l.Width = maxX - minX + NodeWidth + 2*Padding
	l.Height = maxY - minY + NodeHeight + 2*Padding

	index := make(map[string]int, len(wf.Nodes))
	for _, n := range wf.Nodes {
		node := newNode(n, runs[n.Name])
		node.X = n.Position.X - minX + Padding
		node.Y = n.Position.Y - minY + Padding
		index[n.Name] = len(l.Nodes)
		l.Nodes = append(l.Nodes, node)
	}

	sources := make([]string, 0, len(wf.Connections))
	for name := range wf.Connections {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	for _, name := range sources {
		si, ok := index[name]
		if !ok {
			continue
		}
		slots := wf.Connections[name]
		slotNames := make([]string, 0, len(slots))
		for slot := range slots {
			slotNames = append(slotNames, slot)
		}
		sort.Strings(slotNames)
		for _, slot := range slotNames {
			for _, targets := range slots[slot] {
				for _, t := range targets {
					ti, ok := index[t.Node]
					if !ok {
						continue
					}
					l.Edges = append(l.Edges, connect(l.Nodes[si], l.Nodes[ti]))
				}
			}
		}
	}
	return l
}

func newNode(n model.Node, run *model.NodeRun) Node {
	node := Node{
		ID:          n.Name,
		DisplayName: n.Name,
		TypeLabel:   typeLabel(n.Type),
		Status:      execution.NodeStatus(run),
	}
	if run == nil {
		return node
	}
	node.Error = execution.Describe(run.Error)
	if run.Error.Present() {
		if raw, err := json.Marshal(run.Error); err == nil {
			node.ErrorData = raw
		}
	}
	node.InputData = mainBranch(run.InputData)
	node.OutputData = mainBranch(run.Data)
	ms := run.ExecutionTime
	node.ExecutionTimeMs = &ms
	return node
}

func connect(from, to Node) Edge {
	start := Point{X: from.X + NodeWidth, Y: from.Y + NodeHeight/2}
	end := Point{X: to.X, Y: to.Y + NodeHeight/2}
	midX := (start.X + end.X) / 2
	state := Executed
	if from.Status == execution.Pending {
		state = NotRun
	}
	return Edge{
		Source:       from.ID,
		Target:       to.ID,
		From:         start,
		To:           end,
		C1:           Point{X: midX, Y: start.Y},
		C2:           Point{X: midX, Y: end.Y},
		SourceStatus: from.Status,
		State:        state,
	}
}

func typeLabel(t string) string {
	for _, p := range typePrefixes {
		t = strings.Replace(t, p, "", 1)
	}
	if t == "" {
		return "Node"
	}
	return t
}

// mainBranch unwraps the "main" connection type n8n nests item data under.
func mainBranch(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var branches map[string]json.RawMessage
	if err := json.Unmarshal(raw, &branches); err == nil {
		if main, ok := branches["main"]; ok && !bytes.Equal(bytes.TrimSpace(main), []byte("null")) {
			return main
		}
	}
	return raw
}

// Executed returns the nodes that ran in the execution.
func (l *Layout) Executed() []Node {
	out := make([]Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.Status != execution.Pending {
			out = append(out, n)
		}
	}
	return out
}

// Failed returns the nodes whose latest run carries an error.
func (l *Layout) Failed() []Node {
	out := make([]Node, 0)
	for _, n := range l.Nodes {
		if n.Status == execution.Error {
			out = append(out, n)
		}
	}
	return out
}
