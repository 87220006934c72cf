// Package comfy talks to the graph execution engine over its HTTP API. The
// engine is treated as opaque: a workflow graph goes in, image bytes come
// out, and every failure mode folds to an empty result so callers can fall
// back to degraded output instead of propagating transport errors.
package comfy
