// Package pipeline turns declarative pipeline definitions into executable
// step chains.
//
// A Definition is an ordered list of step configurations, usually loaded from
// a YAML file. The Executor resolves each entry against a step registry,
// runs the resulting chain, and fans independent datasets out over a worker
// pool. Failed runs are rolled back in reverse step order; snapshots of
// steps whose rollback did not succeed are persisted for later inspection.
package pipeline
