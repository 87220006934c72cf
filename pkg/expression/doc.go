// Package expression derives ARKit-style blendshape vectors from raw face
// landmark geometry and post-processes expression state for the transfer
// pipeline.
//
// Derivation is purely geometric: per channel, one or more normalized
// distances between fixed landmark indices, a neutral baseline, a linear
// scale, and a clamp to [0,1]. There is no learned model and no runtime
// calibration, so the same landmarks always produce the same vector.
package expression
