package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/litscreen/core"
)

const summaryPromptTemplate = `Summarize the following document in under %d words.
Keep the study population, design, setting, interventions, outcomes and the
issuing organisation. Do not add information that is not in the text.
Respond with the summary only.

Document text:
%s`

const exclusionPromptTemplate = `You are reviewing medical documents about %s.
Analyze the following document and determine if it should be EXCLUDED based on these criteria:
%s

If it should be excluded, name the specific criterion it meets and explain why.
If it should NOT be excluded, use the classification "INCLUDE".

Respond with a JSON object containing:
- classification: "EXCLUDE: <criterion>" or "INCLUDE"
- keywords: words or phrases from the document that drove the decision
- reason: a short explanation grounded in the criteria

Document text:
%s`

const inclusionPromptTemplate = `You are reviewing medical documents about %s.
Analyze the following document and determine if it meets these INCLUSION criteria:
%s

If it meets any inclusion criteria, name which ones and explain why.
If it does NOT meet any inclusion criteria, use the classification "EXCLUDE".

Respond with a JSON object containing:
- classification: "INCLUDE: <criterion>" or "EXCLUDE"
- keywords: words or phrases from the document that drove the decision
- reason: a short explanation grounded in the criteria

Document text:
%s`

const patternPromptTemplate = `You are analyzing document classification results for %s research papers.
Identify recurring patterns that characterize documents that were excluded and documents that were included.

Ground every pattern strictly in the results below. Do not invent reasons that
do not appear in them. Patterns must not overlap between the two lists.

Exclusion results:
%s

Inclusion results:
%s

Respond with a JSON object containing:
- exclusion_patterns: list of {pattern, keywords, evidence}
- inclusion_patterns: list of {pattern, keywords, evidence}
where pattern is a short name, keywords are representative terms, and evidence
cites the files and reasons that support it.`

func buildSummaryPrompt(text string, maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, maxWords, text)
}

func buildClassificationPrompt(mode core.ClassificationMode, criteria Criteria, text string) string {
	list, _ := json.MarshalIndent(criteria.For(mode), "", "  ")
	tmpl := exclusionPromptTemplate
	if mode == core.ModeInclusion {
		tmpl = inclusionPromptTemplate
	}
	return fmt.Sprintf(tmpl, criteria.SubjectOrDefault(), list, text)
}

// condensed is the per-result evidence shown to the pattern prompt.
type condensed struct {
	File           string   `json:"file"`
	Classification string   `json:"classification"`
	Keywords       []string `json:"keywords"`
	Reason         string   `json:"reason"`
}

func condense(records []*core.ClassificationRecord) string {
	items := make([]condensed, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		keywords := r.Result.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		items = append(items, condensed{
			File:           r.File,
			Classification: r.Result.Classification,
			Keywords:       keywords,
			Reason:         strings.TrimSpace(r.Result.Reason),
		})
	}
	data, _ := json.MarshalIndent(items, "", "  ")
	return string(data)
}

func buildPatternPrompt(subject string, exclusion, inclusion []*core.ClassificationRecord) string {
	return fmt.Sprintf(patternPromptTemplate, subjectOrDefault(subject), condense(exclusion), condense(inclusion))
}
