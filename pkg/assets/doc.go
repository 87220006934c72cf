// Package assets manages the adapter weight files available to the
// generation workflows. Adapters live as .safetensors files in the engine's
// loras directory; the registry lists them, resolves requested names to
// filenames, and fetches missing ones from a remote catalog with caching.
package assets
