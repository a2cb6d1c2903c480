// Package steps provides the concrete processing steps: deduplication,
// filtering, summarization, embedding and graph extraction.
//
// Each step is a step.Definition wired into a step.Runner. Steps declare
// their configuration schema in their metadata and validate configs before
// executing. Collaborators (AI services, persistence) are injected at
// construction; the Registry bundles them so pipelines can look steps up
// by type.
package steps
