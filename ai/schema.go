package ai

// Schema describes the JSON object an Oracle is asked to return.
type Schema struct {
	// Name identifies the schema to backends that require one.
	Name string

	// Root describes the top-level object.
	Root *Property
}

// Property is one node of a Schema.
type Property struct {
	// Type is a JSON type name: "object", "array", "string", "number" or "boolean".
	Type        string
	Description string
	Properties  map[string]*Property
	Required    []string
	Items       *Property
}

func stringProp(description string) *Property {
	return &Property{Type: "string", Description: description}
}

func stringList(description string) *Property {
	return &Property{Type: "array", Description: description, Items: &Property{Type: "string"}}
}

// RefinementSchema requests a refined search query wrapped in a "result" envelope.
var RefinementSchema = &Schema{
	Name: "query_refinement",
	Root: &Property{
		Type: "object",
		Properties: map[string]*Property{
			"result": {
				Type: "object",
				Properties: map[string]*Property{
					"initial_query":     stringProp("The topic exactly as supplied."),
					"refined_query":     stringProp("An improved Boolean search query."),
					"key_concepts":      stringList("Key concepts covered by the refined query."),
					"refinement_reason": stringProp("Why the query was changed."),
				},
				Required: []string{"initial_query", "refined_query", "key_concepts", "refinement_reason"},
			},
		},
		Required: []string{"result"},
	},
}

// ClassificationSchema requests a single document judgement.
var ClassificationSchema = &Schema{
	Name: "document_classification",
	Root: &Property{
		Type: "object",
		Properties: map[string]*Property{
			"classification": stringProp("Short label for the decision."),
			"keywords":       stringList("Keywords from the text that drove the decision."),
			"reason":         stringProp("Explanation grounded in the criteria."),
		},
		Required: []string{"classification", "keywords", "reason"},
	},
}

var patternItem = &Property{
	Type: "object",
	Properties: map[string]*Property{
		"pattern":  stringProp("Name of the recurring pattern."),
		"keywords": stringList("Representative keywords."),
		"evidence": stringProp("Evidence drawn from the supplied results."),
	},
	Required: []string{"pattern", "keywords", "evidence"},
}

// PatternSetSchema requests inclusion and exclusion patterns mined from many results.
var PatternSetSchema = &Schema{
	Name: "pattern_set",
	Root: &Property{
		Type: "object",
		Properties: map[string]*Property{
			"exclusion_patterns": {Type: "array", Items: patternItem},
			"inclusion_patterns": {Type: "array", Items: patternItem},
		},
		Required: []string{"exclusion_patterns", "inclusion_patterns"},
	},
}
