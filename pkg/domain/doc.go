// Package domain defines the shared types exchanged between the analysis,
// graph-construction, and execution layers: landmark sets, blendshape vectors,
// expression state, motion tracks, and asynchronous job records.
//
// Types here carry no behaviour beyond trivial constructors and accessors;
// business logic lives in pkg/expression, pkg/graph, and pkg/engine.
package domain
