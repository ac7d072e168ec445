// Package fit computes the scale factors that shrink laid-out groups onto a
// bounded canvas.
//
// # Rules
//
// A scale factor is min(1, target/natural). Content is only ever shrunk,
// never enlarged, and all groups that share a slot receive the same factor
// so their relative proportions survive: [Uniform] derives one factor from
// the largest natural size among them.
//
// Horizontal fitting divides the canvas width into equal slots. For ranked
// graphs there is one slot per rank ([Horizontal]); for layer stacks the
// slot width is the spacing between consecutive layers ([Band]).
//
// Vertical fitting is asymmetric. [Height] leaves single-member groups at
// their native size even when they exceed the bound; only groups with more
// than one member are shrunk to fit.
//
// # Plans
//
// [PlanColumns] applies both rules to a set of columns and returns a [Plan]
// recording every factor, so a renderer can place content without
// recomputing anything.
package fit
