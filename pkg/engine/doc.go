// Package engine orchestrates the analysis, transfer, and generation
// operations. Each operation builds a workflow graph from the built-in
// templates, hands it to the execution client, and degrades to deterministic
// mock output when the engine is unavailable or produces nothing. Long
// operations run on background workers tracked through the job store.
package engine
