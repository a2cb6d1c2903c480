// Package step provides the execution contract every processing step honors.
//
// The lifecycle is an explicit state machine, strictly ordered with no
// re-entry:
//
//	Validate → ShouldExecute? → PreProcess → Execute → PostProcess → Metrics → Result
//
// Steps are not subclasses of anything: a step is a Definition holding
// metadata plus a Hooks struct of callback fields, and a Runner drives the
// hooks through the lifecycle. Only Execute is required; every other hook
// has a default. Nothing a hook does escapes the contract boundary: errors
// and panics alike become a failed ExecutionResult whose output defaults to
// the pre-execution input, so a caller can always continue the chain with
// something. Metrics are computed on every path: success, skip and error.
//
// The package also carries the cooperative batch scheduler that step bodies
// use to keep a single-threaded host responsive on large inputs, and the
// composite executor that chains steps with best-effort reverse rollback.
package step
