// Package governance holds the runtime safety controls for the generation
// API: per-route token bucket rate limiting protecting the GPU-bound
// generation endpoints from request floods, with stats surfaced for the
// admin endpoint.
package governance
