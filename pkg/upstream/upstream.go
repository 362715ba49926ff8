// Package upstream locates the JSON payload feeding a node's input port.
package upstream

import (
	"strings"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// FetchJSON returns the first non-empty response found by walking top-handle
// edges upstream from nodeID. A chain that ends without a response yields ""
// with no error; revisiting a node yields CodeCyclicUpstream.
func FetchJSON(g *flowgraph.Graph, nodeID string) (string, error) {
	visited := make(map[string]struct{})
	id := nodeID
	for {
		if _, seen := visited[id]; seen {
			return "", errmap.CyclicUpstream(id)
		}
		visited[id] = struct{}{}

		n, ok := g.Node(id)
		if !ok {
			return "", nil
		}
		if resp := payloadText(n.Data, mflow.DataKeyResponse); resp != "" {
			return resp, nil
		}
		edge, ok := g.InputEdge(id, mflow.HandleTop)
		if !ok {
			return "", nil
		}
		id = edge.Source
	}
}

// Input is the resolved payload of one input port.
type Input struct {
	Edge mflow.Edge
	// Raw is the upstream JSON text.
	Raw string
	// Path selects the value inside Raw; empty means the whole document.
	Path string
}

// ResolveInput finds the edge entering nodeID at handle and the payload it
// carries. When the source node stores JSON text under a key equal to the
// edge's source handle (response_1 on a fetch node), that text is the
// payload. Otherwise the source's upstream response is used and the source
// handle is the path into it.
func ResolveInput(g *flowgraph.Graph, nodeID, handle string) (Input, error) {
	edge, ok := g.InputEdge(nodeID, handle)
	if !ok {
		return Input{}, errmap.MissingConnection("no connection")
	}
	src, ok := g.Node(edge.Source)
	if !ok {
		return Input{Edge: edge}, errmap.MissingConnection("no connection")
	}

	if edge.SourceHandle != "" {
		if raw := payloadText(src.Data, edge.SourceHandle); strings.TrimSpace(raw) != "" && isPayloadKey(edge.SourceHandle) {
			return Input{Edge: edge, Raw: raw}, nil
		}
	}

	raw, err := FetchJSON(g, edge.Source)
	if err != nil {
		return Input{Edge: edge}, err
	}
	return Input{Edge: edge, Raw: raw, Path: edge.SourceHandle}, nil
}

// isPayloadKey keeps configuration strings such as a text node's label or an
// equality node's key from being mistaken for JSON output.
func isPayloadKey(key string) bool {
	if key == mflow.DataKeyResponse {
		return true
	}
	_, ok := mflow.ParseResponseKey(key)
	return ok
}

// payloadText returns the JSON text stored under key. Snapshots decoded from
// JSON or YAML may hold the payload as a structured value.
func payloadText(d mflow.NodeData, key string) string {
	return jsonvalue.Text(d[key])
}

// Parse decodes the payload.
func (in Input) Parse() (any, error) {
	if strings.TrimSpace(in.Raw) == "" {
		return nil, errmap.MissingConnection("no JSON data")
	}
	v, err := jsonvalue.Parse(in.Raw)
	if err != nil {
		return nil, errmap.ParseFailure("invalid JSON", err)
	}
	return v, nil
}
