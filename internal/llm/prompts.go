// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"text/template"
)

// queryPromptTmpl asks the model for search queries on a seed topic. Queries
// come back one per line in double quotes so parsing stays line-based.
var queryPromptTmpl = template.Must(template.New("queries").Parse(`You are an AI research assistant helping with a literature survey.
Your task is to generate up to {{.Breadth}} distinct search queries to locate academic papers pertinent to the given research topic.
Ensure the queries:
- Employ diverse phrasings and synonyms
- Cover related concepts to provide comprehensive search results
{{- if .Context}}

Papers already accepted into the survey (avoid queries that would only rediscover these):
{{- range .Context}}
- {{.}}
{{- end}}
{{- end}}

Research topic: {{.Seed}}

Output the search queries ONE PER LINE, each starting with a double quote and ending with a double quote. Output nothing else.
`))

// relevancePromptTmpl asks for a yes/no relevance judgment against the
// research goal.
var relevancePromptTmpl = template.Must(template.New("relevance").Parse(`You are a research assistant evaluating academic papers for relevance to a research goal.

Research goal: {{.Goal}}

Paper Details:
- Title: {{.Title}}
- Abstract: {{.Abstract}}

Decide whether this paper is relevant to the research goal.

Format your response as:
relevant: <yes or no>
rationale: <brief explanation>
`))

// conceptPromptTmpl asks for key concepts from an accepted paper. The
// extracted concepts become seed topics for the next round of queries.
var conceptPromptTmpl = template.Must(template.New("concepts").Parse(`You are an AI research assistant analyzing academic papers.
Extract key concepts and themes from the following paper.

Paper Details:
- Title: {{.Title}}
- Abstract: {{.Abstract}}

Identify and list:
- Techniques, frameworks, or methods introduced or applied
- Foundational theories or concepts the work builds on
- Themes suitable as follow-up literature search topics

Present the extracted concepts as a list of strings, ONE PER LINE, starting with a double quote and ending with a double quote.
For example:
"Concept 1"
"Concept 2"
"Concept 3"
`))

// supportPromptTmpl asks for a numeric support score against the research
// question, on the 0-10 scale used by the evaluation pass.
var supportPromptTmpl = template.Must(template.New("support").Parse(`You are an AI research assistant evaluating how well academic papers support a research question.

Research question: {{.Question}}

Paper Details:
- Title: {{.Title}}
- Abstract: {{.Abstract}}
{{- if .Year}}
- Year: {{.Year}}
{{- end}}

Evaluate the paper's contribution to the research question by providing:
1. A support level score between 0 and 10
2. An explanation addressing the research question

Format your response as:
support_level: <number between 0 and 10>
reasoning: <your explanation>
`))

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
