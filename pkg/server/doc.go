// Package server exposes the engine operations over HTTP. Handlers stay
// thin: decode the request, call the engine, encode the result. Spawned
// operations return a job id immediately; everything else answers inline.
package server
