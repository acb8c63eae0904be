package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ID accepts both string and numeric identifiers; n8n returns either
// depending on the endpoint and server version.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Workflow struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Active      bool        `json:"active"`
	Nodes       []Node      `json:"nodes,omitempty"`
	Connections Connections `json:"connections,omitempty"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// Revision identifies one version of a workflow definition.
func (wf *Workflow) Revision() string {
	if wf.UpdatedAt == nil {
		return wf.ID.String()
	}
	return wf.ID.String() + "@" + strconv.FormatInt(wf.UpdatedAt.UnixNano(), 10)
}

type Node struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Position Position `json:"position"`
}

// Position is encoded by n8n as a two element array [x, y].
type Position struct {
	X float64
	Y float64
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	*p = Position{}
	if len(xy) > 0 {
		p.X = xy[0]
	}
	if len(xy) > 1 {
		p.Y = xy[1]
	}
	return nil
}

// Connections maps source node name -> output slot ("main", "ai_tool", ...)
// -> output index -> targets.
type Connections map[string]map[string][][]ConnectionTarget

type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type,omitempty"`
	Index int    `json:"index"`
}

type WorkflowList struct {
	Data       []Workflow `json:"data"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// UnmarshalJSON skips malformed slots instead of failing the whole
// workflow; a broken connection only means a missing edge.
func (c *Connections) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = nil
		return nil
	}
	out := make(Connections, len(raw))
	for source, slots := range raw {
		decoded := make(map[string][][]ConnectionTarget, len(slots))
		for slot, body := range slots {
			var outputs []json.RawMessage
			if err := json.Unmarshal(body, &outputs); err != nil {
				continue
			}
			targets := make([][]ConnectionTarget, 0, len(outputs))
			for _, o := range outputs {
				var t []ConnectionTarget
				if err := json.Unmarshal(o, &t); err != nil {
					t = nil
				}
				targets = append(targets, t)
			}
			decoded[slot] = targets
		}
		out[source] = decoded
	}
	*c = out
	return nil
}
