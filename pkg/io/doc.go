// Package io reads and writes the JSON documents produced by the autodiff
// exporter.
//
// # Tree Documents
//
// A tree document nests backward nodes under a single root:
//
//	{
//	  "root": {
//	    "name": "MulBackward0",
//	    "origin":   {"data": [6], "shape": []},
//	    "gradient": {"data": [1], "shape": []},
//	    "children": [ ... ]
//	  }
//	}
//
// Use [ImportTree] for a file or [ReadTree] for any io.Reader. [WriteTree]
// and [ExportTree] write the same document back.
//
// # Acyclic Graphs
//
// The exporter writes flat graphs as a directory:
//
//	out/
//	  tensors/t-0.json    {"data": [...], "shape": [...], "offset": 0}
//	  tensors/g-1.json
//	  nodes/n-0.json      {"name": "MulBackward0", "origin": "t-0", "gradient": "g-1"}
//	  graph_acyclic.json  [["n-0", "n-1"], ...]
//
// [ImportAcyclicDir] and [ExportAcyclicDir] read and write this layout. The
// HTTP API accepts the same content as one document, handled by
// [ReadAcyclic] and [WriteAcyclic].
//
// # Errors
//
// Every failure is a coded error from [github.com/matzehuels/gradlayer/pkg/errors]:
// NOT_FOUND for missing files or dangling ids, MALFORMED_RECORD for
// undecodable JSON or missing fields, SHAPE_MISMATCH for tensors whose data
// does not fit their shape. Nothing is printed and no partial graph is
// returned.
package io
