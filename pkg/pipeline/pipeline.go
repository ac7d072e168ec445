// Package pipeline provides the core layout pipeline for gradlayer.
//
// This package implements the complete load → reverse → rank → layout →
// render pipeline that is used by the CLI and the HTTP server. By
// centralizing this logic, both entry points produce identical layouts for
// identical inputs and share one cache.
//
// # Architecture
//
// A tree input (a recorded backward graph) runs through:
//
//  1. Load: decode the tree JSON document
//  2. Reverse: build the forward dual (forward direction only)
//  3. Layout: build alternating tensor/node layers and fit them to the canvas
//
// An acyclic input (a flat exported graph) runs through:
//
//  1. Load: decode the tensors/, nodes/ and graph_acyclic.json files
//  2. Rank: assign longest-path ranks
//  3. Layout: group nodes by rank and fit the groups to the canvas
//
// Both end with an optional Render stage that turns the layout into a DOT,
// SVG or PNG preview.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Variant: "acyclic", Formats: []string{"svg"}}
//	in, err := pipeline.Load(ctx, "./graph_dir", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, in, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	layout, err := runner.LayoutTree(ctx, tree, opts)
//	layout, err := runner.LayoutAcyclic(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, layout, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/cache"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/fit"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/layer"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default frame width in scene units (16:9 at height 8).
	DefaultWidth = 14.222222

	// DefaultHeight is the default frame height in scene units.
	DefaultHeight = 8.0

	// DefaultTreeWidthFraction is the share of the frame width a tree stack may use.
	DefaultTreeWidthFraction = 0.9

	// DefaultAcyclicWidthFraction is the share of the frame width rank groups may use.
	DefaultAcyclicWidthFraction = 0.85

	// DefaultHeightFraction is the share of the frame height a rank group may use.
	DefaultHeightFraction = 0.95

	// DefaultGap is the vertical gap between members of one rank group.
	DefaultGap = 1.5
)

// DefaultVariant is the default input variant.
const DefaultVariant = graph.VariantTree

// DefaultDirection is the default drawing direction.
const DefaultDirection = graph.DirectionBackward

// DefaultTensorKind is the tensor shown in tensor layers by default.
const DefaultTensorKind = string(layer.Origin)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// ValidVariants is the set of supported input variants.
var ValidVariants = map[string]bool{
	graph.VariantTree:    true,
	graph.VariantAcyclic: true,
}

// ValidDirections is the set of supported drawing directions.
var ValidDirections = map[string]bool{
	graph.DirectionForward:  true,
	graph.DirectionBackward: true,
}

// validate checks struct tags on Options.
var validate = validator.New()

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON, TOML and YAML for API requests and config files.
// Zero values mean "use the default"; call [Options.SetDefaults] or
// [Options.Validate] before reading them.
type Options struct {
	// Input options
	Variant   string `json:"variant,omitempty" toml:"variant" yaml:"variant" validate:"omitempty,oneof=tree acyclic"`
	Direction string `json:"direction,omitempty" toml:"direction" yaml:"direction" validate:"omitempty,oneof=forward backward"`

	// Rank options (acyclic only)
	StrictOrder bool `json:"strict_order,omitempty" toml:"strict_order" yaml:"strict_order"` // Single ordered pass instead of topological
	BreakCycles bool `json:"break_cycles,omitempty" toml:"break_cycles" yaml:"break_cycles"` // Drop back edges instead of failing

	// Layout options
	TensorKind     string        `json:"tensor_kind,omitempty" toml:"tensor_kind" yaml:"tensor_kind" validate:"omitempty,oneof=origin gradient"`
	Width          float64       `json:"width,omitempty" toml:"width" yaml:"width" validate:"gte=0"`
	Height         float64       `json:"height,omitempty" toml:"height" yaml:"height" validate:"gte=0"`
	WidthFraction  float64       `json:"width_fraction,omitempty" toml:"width_fraction" yaml:"width_fraction" validate:"gte=0,lte=1"`
	HeightFraction float64       `json:"height_fraction,omitempty" toml:"height_fraction" yaml:"height_fraction" validate:"gte=0,lte=1"`
	Gap            float64       `json:"gap,omitempty" toml:"gap" yaml:"gap" validate:"gte=0"`
	Metrics        layer.Metrics `json:"metrics" toml:"metrics" yaml:"metrics"`

	// Render options
	Formats []string `json:"formats,omitempty" toml:"formats" yaml:"formats" validate:"dive,oneof=json dot svg png"`
	Refresh bool     `json:"refresh,omitempty" toml:"-" yaml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-" yaml:"-" validate:"-"`

	// validated tracks whether Validate has succeeded.
	validated bool
}

// Input is a loaded pipeline input. Exactly one field is set.
type Input struct {
	Tree  *autograd.Tree
	Graph *dag.Graph
}

// Variant returns the variant implied by the populated field.
func (in Input) Variant() string {
	if in.Tree != nil {
		return graph.VariantTree
	}
	return graph.VariantAcyclic
}

// NodeCount returns the number of nodes in the input.
func (in Input) NodeCount() int {
	switch {
	case in.Tree != nil:
		return in.Tree.Reachable()
	case in.Graph != nil:
		return in.Graph.NodeCount()
	}
	return 0
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// InputHash is the content hash of the encoded input.
	InputHash string

	// Layout is the fitted layout document.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LayerCount int
	MaxRank    int
	Crossings  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVariant checks that a variant is valid.
func ValidateVariant(variant string) error {
	if !ValidVariants[variant] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid variant: %q (must be one of: tree, acyclic)", variant)
	}
	return nil
}

// ValidateDirection checks that a direction is valid.
func ValidateDirection(direction string) error {
	if !ValidDirections[direction] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid direction: %q (must be one of: forward, backward)", direction)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills every zero-valued option. The width fraction default
// depends on the variant, so Variant is settled first.
func (o *Options) SetDefaults() {
	if o.Variant == "" {
		o.Variant = DefaultVariant
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.TensorKind == "" {
		o.TensorKind = DefaultTensorKind
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.WidthFraction == 0 {
		o.WidthFraction = DefaultTreeWidthFraction
		if o.Variant == graph.VariantAcyclic {
			o.WidthFraction = DefaultAcyclicWidthFraction
		}
	}
	if o.HeightFraction == 0 {
		o.HeightFraction = DefaultHeightFraction
	}
	if o.Gap == 0 {
		o.Gap = DefaultGap
	}
	if o.Metrics == (layer.Metrics{}) {
		o.Metrics = layer.DefaultMetrics()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every option. Failures return
// INVALID_CONFIG naming each offending field.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) Validate() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := validate.Struct(o); err != nil {
		return configError(err)
	}
	o.validated = true
	return nil
}

// ValidateFor checks the options against a concrete input variant. An
// explicit Variant that disagrees with the input is rejected.
func (o *Options) ValidateFor(variant string) error {
	if o.Variant != "" && o.Variant != variant {
		return errors.New(errors.ErrCodeInvalidConfig, "options name variant %q but input is %q", o.Variant, variant)
	}
	o.Variant = variant
	return o.Validate()
}

// IsForward returns true if units are drawn as forward operations.
func (o *Options) IsForward() bool {
	return o.Direction == graph.DirectionForward
}

// Canvas returns the fitting area derived from the frame and fractions.
func (o *Options) Canvas() fit.Canvas {
	return fit.Canvas{
		TotalWidth: o.Width * o.WidthFraction,
		MaxHeight:  o.Height * o.HeightFraction,
		Gap:        o.Gap,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Variant:        o.Variant,
		Direction:      o.Direction,
		TensorKind:     o.TensorKind,
		Width:          o.Width,
		Height:         o.Height,
		WidthFraction:  o.WidthFraction,
		HeightFraction: o.HeightFraction,
		Gap:            o.Gap,
		CharWidth:      o.Metrics.CharWidth,
		LineHeight:     o.Metrics.LineHeight,
		Padding:        o.Metrics.Padding,
		StrictOrder:    o.StrictOrder,
		BreakCycles:    o.BreakCycles,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Engine: "dot"}
}

// configError flattens validator field errors into one INVALID_CONFIG error.
func configError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid options: %s", strings.Join(parts, "; "))
}
