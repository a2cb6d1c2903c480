// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package step

import (
	"log/slog"

	"github.com/google/uuid"
)

// Context identifies one step invocation and carries its logger. The logger
// is scoped to the execution rather than shared process-wide, so step code
// never reaches for global mutable state.
type Context struct {
	ExecutionID string
	PipelineID  string
	UserID      string
	Logger      *slog.Logger
}

// NewContext creates an execution context with a fresh execution ID.
// A nil logger falls back to slog.Default().
func NewContext(pipelineID, userID string, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}
	executionID := uuid.NewString()
	return Context{
		ExecutionID: executionID,
		PipelineID:  pipelineID,
		UserID:      userID,
		Logger:      logger.With("executionId", executionID),
	}
}

// Config is the loosely typed configuration a step invocation receives.
// Steps decode and validate it in their Validate hook.
type Config map[string]any

// StringValue returns a string config value, or fallback when absent.
func (c Config) StringValue(key, fallback string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// BoolValue returns a bool config value, or fallback when absent.
func (c Config) BoolValue(key string, fallback bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return fallback
}

// Clone shallow-copies the config so the runner can adjust paths without
// mutating the caller's map.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
