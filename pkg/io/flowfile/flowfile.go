// Package flowfile reads and writes node/edge snapshots as YAML or JSON.
package flowfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension; anything that is
// not .json is treated as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

func Load(path string) (mflow.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mflow.Flow{}, err
	}
	flow, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return mflow.Flow{}, fmt.Errorf("%s: %w", path, err)
	}
	return flow, nil
}

func Save(path string, flow mflow.Flow) error {
	data, err := Encode(flow, FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Decode(data []byte, format Format) (mflow.Flow, error) {
	var flow mflow.Flow
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &flow); err != nil {
			return mflow.Flow{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &flow); err != nil {
			return mflow.Flow{}, fmt.Errorf("decode yaml: %w", err)
		}
	}
	for i := range flow.Nodes {
		n := &flow.Nodes[i]
		if n.Data == nil {
			n.Data = mflow.NodeData{}
		}
		for k, v := range n.Data {
			n.Data[k] = normalize(v)
		}
		if _, err := mflow.ParseNodeKind(string(n.Kind)); err != nil {
			return mflow.Flow{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	if flow.Edges == nil {
		flow.Edges = []mflow.Edge{}
	}
	return flow, nil
}

func Encode(flow mflow.Flow, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(flow, "", "  ")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(flow); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalize turns YAML-decoded values into the shapes JSON decoding yields:
// string-keyed maps, []any and float64 numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
