// Package ai defines the interfaces for AI services used by processing
// steps: text embedding, chat completion and entity-graph extraction.
//
// Steps depend only on these interfaces; concrete implementations live in
// subpackages (openai for OpenAI-compatible APIs, mock for testing). The
// core never retries these calls; bounded retry is the collaborator's
// concern, configured where the collaborator is constructed.
package ai
