package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

type acyclicDoc struct {
	Tensors map[string]tensor.Record `json:"tensors"`
	Nodes   map[string]nodeRecord    `json:"nodes"`
	Edges   [][]string               `json:"edges"`
}

type nodeRecord struct {
	Name     string `json:"name"`
	Origin   string `json:"origin"`
	Gradient string `json:"gradient"`
}

func (r nodeRecord) node(id string) dag.Node {
	return dag.Node{ID: id, Name: r.Name, OriginID: r.Origin, GradientID: r.Gradient}
}

func edgePairs(g *dag.Graph) [][]string {
	pairs := make([][]string, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		pairs = append(pairs, []string{e.From, e.To})
	}
	return pairs
}

// WriteTree encodes a tree as a {"root": ...} document. Shared subtrees are
// written once per occurrence. A cyclic arena returns CYCLE_DETECTED.
func WriteTree(t *autograd.Tree, w io.Writer) error {
	rec, err := t.Record()
	if err != nil {
		return err
	}
	return encode(w, autograd.GraphRecord{Root: &rec})
}

// ExportTree writes a tree document to the file at path.
func ExportTree(t *autograd.Tree, path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTree(t, f)
}

// WriteAcyclic encodes a graph in the single-document form read by
// [ReadAcyclic].
func WriteAcyclic(g *dag.Graph, w io.Writer) error {
	doc := acyclicDoc{
		Tensors: make(map[string]tensor.Record, g.TensorCount()),
		Nodes:   make(map[string]nodeRecord, g.NodeCount()),
		Edges:   edgePairs(g),
	}
	for _, id := range g.TensorIDs() {
		t, err := g.QueryTensor(id)
		if err != nil {
			return err
		}
		doc.Tensors[id] = t.Record()
	}
	for _, n := range g.Nodes() {
		doc.Nodes[n.ID] = nodeRecord{Name: n.Name, Origin: n.OriginID, Gradient: n.GradientID}
	}
	return encode(w, doc)
}

// ExportAcyclicDir writes a graph in the directory layout read by
// [ImportAcyclicDir]. Existing files with the same names are overwritten;
// other files in dir are left alone.
func ExportAcyclicDir(g *dag.Graph, dir string) error {
	for _, sub := range []string{TensorDir, NodeDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create %s", sub)
		}
	}

	for _, id := range g.TensorIDs() {
		t, err := g.QueryTensor(id)
		if err != nil {
			return err
		}
		if err := encodeFile(filepath.Join(dir, TensorDir, id+".json"), t.Record()); err != nil {
			return err
		}
	}
	for _, n := range g.Nodes() {
		rec := nodeRecord{Name: n.Name, Origin: n.OriginID, Gradient: n.GradientID}
		if err := encodeFile(filepath.Join(dir, NodeDir, n.ID+".json"), rec); err != nil {
			return err
		}
	}
	return encodeFile(filepath.Join(dir, EdgeFile), edgePairs(g))
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode")
	}
	return nil
}

func encodeFile(path string, v any) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := encode(f, v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", path)
	}
	return nil
}

func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	return f, nil
}
