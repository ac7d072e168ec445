package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// layoutFlags holds the pipeline flags shared by layout, rank and dot.
// Only flags set on the command line override the config file.
type layoutFlags struct {
	variant     string
	direction   string
	tensorKind  string
	strictOrder bool
	breakCycles bool
	width       float64
	height      float64
	widthFrac   float64
	heightFrac  float64
	gap         float64
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.variant, "variant", "", "input variant: tree, acyclic (default: inferred from path)")
	fs.StringVarP(&f.direction, "direction", "d", pipeline.DefaultDirection, "drawing direction: backward, forward")
	fs.StringVar(&f.tensorKind, "tensor", pipeline.DefaultTensorKind, "tensor shown in tree layouts: origin, gradient")
	fs.BoolVar(&f.strictOrder, "strict-order", false, "rank in a single pass over insertion order (acyclic)")
	fs.BoolVar(&f.breakCycles, "break-cycles", false, "drop back edges instead of failing on cycles (acyclic)")
	fs.Float64Var(&f.width, "width", pipeline.DefaultWidth, "frame width")
	fs.Float64Var(&f.height, "height", pipeline.DefaultHeight, "frame height")
	fs.Float64Var(&f.widthFrac, "width-fraction", 0, "fraction of the frame width to fill (default: 0.9 tree, 0.85 acyclic)")
	fs.Float64Var(&f.heightFrac, "height-fraction", pipeline.DefaultHeightFraction, "fraction of the frame height to fill")
	fs.Float64Var(&f.gap, "gap", pipeline.DefaultGap, "gap between rows")
}

// apply copies every explicitly set flag onto opts.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	set := cmd.Flags().Changed
	if set("variant") {
		opts.Variant = f.variant
	}
	if set("direction") {
		opts.Direction = f.direction
	}
	if set("tensor") {
		opts.TensorKind = f.tensorKind
	}
	if set("strict-order") {
		opts.StrictOrder = f.strictOrder
	}
	if set("break-cycles") {
		opts.BreakCycles = f.breakCycles
	}
	if set("width") {
		opts.Width = f.width
	}
	if set("height") {
		opts.Height = f.height
	}
	if set("width-fraction") {
		opts.WidthFraction = f.widthFrac
	}
	if set("height-fraction") {
		opts.HeightFraction = f.heightFrac
	}
	if set("gap") {
		opts.Gap = f.gap
	}
}

// options returns the config file's layout options with flags applied.
func (c *CLI) options(cmd *cobra.Command, f *layoutFlags) pipeline.Options {
	opts := c.Config.Layout
	f.apply(cmd, &opts)
	opts.Logger = c.Logger
	return opts
}
