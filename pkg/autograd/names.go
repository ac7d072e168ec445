package autograd

import "strings"

const (
	accumulateName = "GradAccum"
	leafName       = "LeafCreation"
	backwardMarker = "Backward"
	forwardSuffix  = "Forward"
)

// FormatName derives the forward-dual name of a backward operation.
//
// "GradAccum" becomes "LeafCreation". Any other name is cut at the first
// occurrence of "Backward" and suffixed with "Forward"; a name without
// "Backward" keeps its full text. Anything after the marker is dropped.
func FormatName(backward string) string {
	if backward == accumulateName {
		return leafName
	}
	prefix, _, _ := strings.Cut(backward, backwardMarker)
	return prefix + forwardSuffix
}

// OpName returns the operation part of a backward name, used as a caption:
// "MulBackward0" gives "Mul". Names without "Backward" are returned as is.
func OpName(backward string) string {
	prefix, _, _ := strings.Cut(backward, backwardMarker)
	return prefix
}

// IsAccumulation reports whether the name denotes a gradient accumulation
// node, i.e. a leaf of the backward tree.
func IsAccumulation(name string) bool {
	return strings.Contains(name, "Accum")
}
