package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/refinery/ai"
)

const graphResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string",
            "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"
          },
          "type": {
            "type": "string"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["name", "type", "confidence"],
        "additionalProperties": false
      }
    },
    "relations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {
            "type": "string"
          },
          "target": {
            "type": "string"
          },
          "predicate": {
            "type": "string",
            "pattern": "^[a-z]+(_[a-z]+)*$"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["source", "target", "predicate", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities", "relations"],
  "additionalProperties": false
}`

const graphPromptTemplate = `Extract the entities mentioned in the given text and the relations between them, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names must be lowercase, 1-3 words, singular form only.
- Type field must match exactly one of the listed values: %s.
- Confidence is a number from 0.0 (uncertain) to 1.0 (certain). Rate based on how clearly the entity or relation appears in the text.
- Relation source and target must each match the name of an entity in the entities array.
- Predicates must be lowercase snake_case verbs or verb phrases, e.g. "works_at", "located_in", "discovered".
- Include only entities and relations that are explicitly mentioned or clearly implied by the text. Do not hallucinate.
- If nothing can be identified, return "entities": [] and "relations": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Marie Curie discovered radium while working in Paris."
Output:
{
  "entities": [
    {"name":"marie curie","type":"person","confidence":0.98},
    {"name":"radium","type":"natural_object","confidence":0.95},
    {"name":"paris","type":"place","confidence":0.9}
  ],
  "relations": [
    {"source":"marie curie","target":"radium","predicate":"discovered","confidence":0.95},
    {"source":"marie curie","target":"paris","predicate":"worked_in","confidence":0.85}
  ]
}

Example (informal, no relations):
Input: "love my new laptop"
Output:
{
  "entities": [
    {"name":"laptop","type":"man_made_object","confidence":0.9}
  ],
  "relations": []
}`

// buildGraphPrompt creates the system prompt with entity types embedded.
func buildGraphPrompt() string {
	return fmt.Sprintf(graphPromptTemplate,
		graphResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
