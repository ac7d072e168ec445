package layer_test

import (
	"fmt"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/layer"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

func ExampleBuildBackward() {
	v := tensor.MustNew([]float64{1, 2, 3}, []int{3}, 0)
	tree := autograd.NewTree()
	root := tree.Add("MulBackward0", v, v)
	tree.AppendChild(root, tree.Add("GradAccum", v, v))
	tree.AppendChild(root, tree.Add("GradAccum", v, v))

	stack, _ := layer.BuildBackward(tree, layer.DefaultMetrics())
	for _, l := range stack.Layers() {
		fmt.Println(l.Config().Label, l.Keys())
	}
	// Output:
	// T0 [b-0]
	// N0 [b-0]
	// T1 [b-1 b-2]
	// N1 [b-1 b-2]
}
