package ai

// Entity is a named thing identified in text.
type Entity struct {
	// Name is the entity identifier in lowercase, 1-3 words, singular form.
	// Example: "marie curie", "paris", "radium"
	Name string

	// Type categorizes the entity (e.g., "person", "place", "organization").
	// Must match one of the predefined entity types.
	Type string

	// Confidence is a score from 0.0 to 1.0 indicating how certain the
	// extractor is that this entity appears in the text.
	Confidence float64
}

// Relation links two extracted entities with a predicate.
type Relation struct {
	// Source is the name of the entity the relation originates from.
	Source string

	// Target is the name of the entity the relation points to.
	Target string

	// Predicate describes the relation in lowercase snake_case.
	// Example: "works_at", "located_in", "discovered"
	Predicate string

	// Confidence is a score from 0.0 to 1.0 for this relation.
	Confidence float64
}

// Graph is the result of entity-graph extraction from a piece of text.
type Graph struct {
	Entities  []Entity
	Relations []Relation
}

// EntityTypes defines the valid categories for extracted entities.
// These types are used by graph extractors to classify named things.
var EntityTypes = []string{
	"abstract_concept",
	"activity",
	"document",
	"event",
	"location",
	"man_made_object",
	"measurement",
	"natural_object",
	"occupation",
	"organization",
	"person",
	"place",
	"product",
	"software",
	"technology",
	"time",
}
