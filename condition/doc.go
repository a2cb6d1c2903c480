// Package condition evaluates user-supplied boolean expressions against a
// declared, fixed context schema.
//
// Expressions are CEL (Common Expression Language) programs compiled against
// a single `segment` map variable, for example `segment.wordCount > 100` or
// `segment.status == "new"`. The environment exposes nothing else: no
// ambient scope, no side effects, and a per-evaluation cost limit. This
// deliberately replaces evaluating attacker-influenceable text as host code,
// which is never acceptable for a condition knob.
package condition
