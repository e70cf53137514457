package refine

import (
	"fmt"
	"strings"

	"github.com/poiesic/litscreen/core"
	"github.com/tmc/langchaingo/prompts"
)

// Template selects how many worked examples the refinement prompt carries.
type Template string

const (
	ZeroShot Template = "zero-shot"
	OneShot  Template = "one-shot"
	FewShot  Template = "few-shot"
)

// Templates lists the supported prompt variants.
var Templates = []Template{ZeroShot, OneShot, FewShot}

// ParseTemplate converts a template name into a Template.
func ParseTemplate(name string) (Template, error) {
	for _, t := range Templates {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

const header = `You are a research assistant. Generate an academic search query based on the topic below and refine it.

Topic: {topic}

Instructions:
1. Analyze the topic and identify key concepts
2. Create an initial search string using key terms
3. Refine the query by:
   - Expanding with synonyms, technical terms, and controlled vocabulary
   - Including technical jargon from the field
   - Applying search operators (AND, OR, NOT, wildcards)
4. Explain your refinement process
`

const medicineShot = `
Example:
Topic: "I need research papers about AI in medicine"
initial_query: "AI in medicine"
refined_query: "Artificial Intelligence applications in medical diagnostics AND treatment"
`

const onlineLearningShot = `
Example:
Topic: "online learning papers"
initial_query: "online learning"
refined_query: "online learning AND (education OR e-learning) AND (student engagement OR challenges)"
`

const footer = `
Respond with a JSON object whose "result" field holds:
- initial_query: the query before refinement
- refined_query: the refined search query
- key_concepts: the key concepts identified
- refinement_reason: the reasoning behind the refinement
`

func (t Template) body() string {
	switch t {
	case OneShot:
		return header + medicineShot
	case FewShot:
		return header + medicineShot + onlineLearningShot
	default:
		return header
	}
}

// Example is a labelled paper shown to the model as evidence of what the
// reviewer wants.
type Example struct {
	Title    string
	Abstract string
	Include  bool
	Reason   string
}

// ExamplesFromDocuments labels documents by their reviewer consensus.
// A level-2 include is INCLUDE; anything else is EXCLUDE with the reason of
// the level that excluded it.
func ExamplesFromDocuments(docs []*core.DocumentRecord) []Example {
	examples := make([]Example, 0, len(docs))
	for _, doc := range docs {
		ex := Example{Title: doc.Title, Abstract: doc.Abstract}
		switch {
		case strings.EqualFold(strings.TrimSpace(doc.Level2Consensus), "include"):
			ex.Include = true
		case strings.EqualFold(strings.TrimSpace(doc.Level1Consensus), "exclude"):
			ex.Reason = doc.Level1Reason
		default:
			ex.Reason = doc.Level2Reason
		}
		examples = append(examples, ex)
	}
	return examples
}

func (e Example) render() string {
	decision := "INCLUDE"
	if !e.Include {
		decision = "EXCLUDE"
		if e.Reason != "" {
			decision += " (" + e.Reason + ")"
		}
	}
	return fmt.Sprintf("\nTitle: %s\nAbstract: %s\nDecision: %s\n", e.Title, e.Abstract, decision)
}

// BuildPrompt renders the refinement prompt for topic.
func BuildPrompt(t Template, topic string, examples []Example) (string, error) {
	tmpl := prompts.PromptTemplate{
		Template:       t.body(),
		InputVariables: []string{"topic"},
		TemplateFormat: prompts.TemplateFormatFString,
	}
	prompt, err := tmpl.Format(map[string]any{"topic": topic})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	if len(examples) > 0 {
		sb.WriteString("\nThe reviewer has already screened these papers:\n")
		for _, ex := range examples {
			sb.WriteString(ex.render())
		}
		sb.WriteString("\nUse the included papers to choose terms and use NOT to keep excluded themes out.\n")
	}
	sb.WriteString(footer)
	return sb.String(), nil
}
