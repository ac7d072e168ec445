package graph_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

func ExampleWriteGraph() {
	g := dag.Empty()
	_ = g.AddTensor("t-0", tensor.MustNew([]float64{6}, nil, 0))
	_ = g.AddNode(dag.Node{ID: "n-0", Name: "GradAccum", OriginID: "t-0", GradientID: "t-0"})

	_ = graph.WriteGraph(graph.FromDAG(g), os.Stdout)
	// Output:
	// {
	//   "tensors": [
	//     {
	//       "id": "t-0",
	//       "kind": "scalar",
	//       "shape": [],
	//       "data": [
	//         6
	//       ]
	//     }
	//   ],
	//   "nodes": [
	//     {
	//       "id": "n-0",
	//       "name": "GradAccum",
	//       "origin": "t-0",
	//       "gradient": "t-0"
	//     }
	//   ],
	//   "edges": []
	// }
}

func ExampleUnmarshalLayout() {
	data := []byte(`{"variant": "tree", "layers": [{"label": "T0", "kind": "tensor", "members": [], "scale": 1}]}`)
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(l.IsTree(), l.Layers[0].Label)
	// Output: true T0
}
