package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a flat graph to JSON bytes.
func MarshalGraph(g *dag.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(FromDAG(g), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeMalformedRecord, err, "unmarshal graph")
	}
	return g, nil
}

// WriteGraph writes a Graph as indented JSON to w.
func WriteGraph(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	return nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a JSON graph from r into a flat graph.
func ReadGraph(r io.Reader) (*dag.Graph, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "decode graph")
	}
	return ToDAG(data)
}

// ReadGraphFile reads a JSON file and returns the decoded flat graph.
func ReadGraphFile(path string) (*dag.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return ReadGraph(f)
}
