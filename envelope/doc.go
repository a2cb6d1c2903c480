// Package envelope recovers a flat, ordered sequence of records from the
// arbitrarily wrapped shapes that step inputs arrive in.
//
// Upstream producers hand steps anything from a plain record array to a
// single wrapper object holding one array-valued property, sometimes with a
// further "data" array nested one level deeper. Normalize resolves any of
// these to a record sequence in a single pass, without mutating the input,
// and adjusts the caller's content-field path in lock-step with the
// unwrapping: a consumed wrapper key was itself a path segment, so the path
// must shed it too.
//
// The Extractor resolves dot-separated paths against individual records,
// with fallback searches for already-unwrapped records. Missing or malformed
// fields resolve to the empty string and a logged warning, never an error.
package envelope
