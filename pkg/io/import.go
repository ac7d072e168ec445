package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// Directory layout of an exported acyclic graph.
const (
	TensorDir = "tensors"
	NodeDir   = "nodes"
	EdgeFile  = "graph_acyclic.json"
)

// ReadTree decodes a {"root": ...} tree document from r.
//
// Decoding errors return MALFORMED_RECORD. Record errors (missing fields,
// shape mismatches) keep the code raised by [autograd.FromGraphRecord].
// ReadTree does not close r.
func ReadTree(r io.Reader) (*autograd.Tree, error) {
	var rec autograd.GraphRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "decode tree")
	}
	return autograd.FromGraphRecord(rec)
}

// ImportTree reads a tree document from the file at path.
func ImportTree(path string) (*autograd.Tree, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTree(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return t, nil
}

// ReadAcyclic decodes the single-document form of an acyclic graph:
//
//	{
//	  "tensors": {"t-0": {"data": [1], "shape": [1]}},
//	  "nodes":   {"n-0": {"name": "GradAccum", "origin": "t-0", "gradient": "t-0"}},
//	  "edges":   [["n-0", "n-1"]]
//	}
//
// Tensors and nodes are inserted in natural id order, edges in document
// order. See [dag.New] for the error codes of invalid references.
func ReadAcyclic(r io.Reader) (*dag.Graph, error) {
	var doc acyclicDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "decode acyclic graph")
	}

	tensors := make(map[string]*tensor.Descriptor, len(doc.Tensors))
	for id, rec := range doc.Tensors {
		t, err := decodeTensor(id, rec)
		if err != nil {
			return nil, err
		}
		tensors[id] = t
	}

	nodes := make(map[string]dag.Node, len(doc.Nodes))
	for id, rec := range doc.Nodes {
		nodes[id] = rec.node(id)
	}

	edges, err := decodeEdges(doc.Edges)
	if err != nil {
		return nil, err
	}
	return dag.New(tensors, nodes, edges)
}

// ImportAcyclicDir reads an acyclic graph exported as a directory:
//
//	dir/tensors/<tensor-id>.json   {"data": [...], "shape": [...], "offset": 0}
//	dir/nodes/<node-id>.json       {"name": ..., "origin": <tensor-id>, "gradient": <tensor-id>}
//	dir/graph_acyclic.json         [[from, to], ...]
//
// Ids are the file names without the .json extension; other files are
// ignored. A missing directory or edge file returns NOT_FOUND, undecodable
// JSON returns MALFORMED_RECORD.
func ImportAcyclicDir(dir string) (*dag.Graph, error) {
	tensorFiles, err := listJSON(filepath.Join(dir, TensorDir))
	if err != nil {
		return nil, err
	}
	tensors := make(map[string]*tensor.Descriptor, len(tensorFiles))
	for id, path := range tensorFiles {
		var rec tensor.Record
		if err := decodeFile(path, &rec); err != nil {
			return nil, err
		}
		t, err := decodeTensor(id, rec)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
		}
		tensors[id] = t
	}

	nodeFiles, err := listJSON(filepath.Join(dir, NodeDir))
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]dag.Node, len(nodeFiles))
	for id, path := range nodeFiles {
		var rec nodeRecord
		if err := decodeFile(path, &rec); err != nil {
			return nil, err
		}
		nodes[id] = rec.node(id)
	}

	var pairs [][]string
	if err := decodeFile(filepath.Join(dir, EdgeFile), &pairs); err != nil {
		return nil, err
	}
	edges, err := decodeEdges(pairs)
	if err != nil {
		return nil, err
	}
	return dag.New(tensors, nodes, edges)
}

func decodeTensor(id string, rec tensor.Record) (*tensor.Descriptor, error) {
	if rec.Shape == nil {
		return nil, errors.Malformed("tensor %q has no shape", id)
	}
	t, err := tensor.FromRecord(rec)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "tensor %q", id)
	}
	return t, nil
}

func decodeEdges(pairs [][]string) ([]dag.Edge, error) {
	edges := make([]dag.Edge, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, errors.Malformed("edge %d has %d endpoints, want 2", i, len(p))
		}
		edges = append(edges, dag.Edge{From: p[0], To: p[1]})
	}
	return edges, nil
}

// listJSON maps file ids to paths for the .json files directly under dir.
func listJSON(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fsError(err, dir)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if err := errors.ValidateNodeID(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "%s", filepath.Join(dir, name))
		}
		out[id] = filepath.Join(dir, name)
	}
	return out, nil
}

func decodeFile(path string, v any) error {
	f, err := open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedRecord, err, "decode %s", path)
	}
	return nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsError(err, path)
	}
	return f, nil
}

func fsError(err error, path string) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
}
