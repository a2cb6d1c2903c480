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

package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StepDefinition is one entry of a pipeline definition: a step type and the
// config it runs with.
type StepDefinition struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// Definition is a declarative pipeline: an ordered list of step
// configurations plus chain-level settings.
type Definition struct {
	Name  string           `yaml:"name"`
	Steps []StepDefinition `yaml:"steps"`

	// StopOnError controls whether a failing step aborts the chain.
	// Unset means true.
	StopOnError *bool `yaml:"stopOnError"`
}

// Parse decodes a YAML pipeline definition and checks its shape.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing pipeline definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a YAML pipeline definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the definition's structural shape. Step configs are
// validated later by the steps themselves, against their config schemas.
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return ErrNoSteps
	}
	for i, s := range d.Steps {
		if s.Type == "" {
			return fmt.Errorf("step %d: %w", i, ErrMissingStepType)
		}
	}
	return nil
}

// stopOnError resolves the chain failure behavior, defaulting to true.
func (d *Definition) stopOnError() bool {
	if d.StopOnError == nil {
		return true
	}
	return *d.StopOnError
}
