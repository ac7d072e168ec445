// Package layer groups graph nodes into renderable layers and records the
// edges that cross between them.
//
// # Layers
//
// A [Layer] is an ordered list of renderable units of one type, an index
// from item key to member position, and a list of [CrossEdge] values that
// point from a member of one layer to a member of another by index pair.
//
// [Layer.SafeAppend] is idempotent by key: appending an item whose key is
// already present returns the existing member and its index without
// converting again. A node reached from several predecessors therefore
// occupies exactly one slot. Cross edges, in contrast, are never
// deduplicated; each call to [Layer.AppendEdge] records one dependency
// occurrence.
//
// How an item becomes a unit is decided by the [Converter] and the [Config]
// passed to [New]. There is no layer subtype per unit kind: node layers are
// Layer[NodeUnit], tensor layers are Layer[TensorUnit].
//
// # Stacks
//
// A [Stack] holds layers of mixed unit types in drawing order. Cross edges
// address layers by their position in the stack.
//
// [BuildBackward] and [BuildForward] lay out a tree or its forward dual
// breadth-first: each depth d contributes a tensor layer T_d followed by a
// node layer N_d. Node N_d[j] gets an edge from its own tensor T_d[j]; each
// child of that node at depth d+1 gets an edge from T_d[j] as well.
//
// # Rank Groups
//
// For ranked graphs, [GroupByRank] partitions a ranking into ordered
// [Group] values, one per rank, each listing (id, unit) members in ranking
// order.
package layer
