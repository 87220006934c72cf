// Package graph models executor workflows as string-keyed node graphs in the
// wire format the execution engine consumes: each node is an operator tag plus
// named inputs, where an input is either a literal or a reference to another
// node's output slot.
//
// Graphs at rest are immutable templates. Every transform in this package
// (Instantiate, ChainLoRAs) is copy-on-write and returns a new graph, so
// templates can be reused across submissions without accumulating state.
package graph
