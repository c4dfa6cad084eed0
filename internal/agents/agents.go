// Package agents builds task-specific prompts from retrieved context and runs them through the LLM.
package agents

import (
	"fmt"
	"strings"
)

// Agent specializes the prompt for one task.
type Agent interface {
	SystemPrompt() string
	BuildPrompt(query, context string) string
}

// Kind names an agent variant.
type Kind string

const (
	KindQA      Kind = "qa"
	KindSummary Kind = "summary"
	KindInsight Kind = "insights"
)

// Kinds lists the available agents.
var Kinds = []Kind{KindQA, KindSummary, KindInsight}

// Lookup returns the agent for kind.
func Lookup(kind Kind) (Agent, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindQA:
		return QA{}, nil
	case KindSummary:
		return Summary{}, nil
	case KindInsight, "insight":
		return Insight{}, nil
	}
	return nil, fmt.Errorf("unknown agent %q", kind)
}

// NotFoundAnswer is what the QA agent is told to reply when the context lacks the answer.
const NotFoundAnswer = "The requested information was not found in the analyzed documents."

// QA answers a question strictly from the retrieved context.
type QA struct{}

func (QA) SystemPrompt() string {
	return "You are an assistant that answers questions strictly based on the documents provided. " +
		"Do not use outside knowledge. " +
		"If the answer is not present in the context, say explicitly that the information was not found."
}

func (QA) BuildPrompt(query, context string) string {
	return fmt.Sprintf(`CONTEXT:
%s

QUESTION:
%s

INSTRUCTIONS:
- Answer only from the context above
- Be clear, direct and objective
- Do not make assumptions
- If the answer is not in the documents, reply:
  "%s"

ANSWER:
`, context, query, NotFoundAnswer)
}

// Summary writes an executive summary of the retrieved excerpts.
type Summary struct{}

func (Summary) SystemPrompt() string {
	return "You are a senior analyst who summarizes corporate and technical documents for executives and managers. " +
		"Extract the most relevant points and avoid irrelevant detail and overly technical language."
}

func (Summary) BuildPrompt(query, context string) string {
	return fmt.Sprintf(`Below are excerpts from one or more documents, retrieved for: %s

CONTEXT:
%s

TASK:
Write a clear, objective and professional summary of the content above.

INSTRUCTIONS:
- Highlight the main themes and conclusions
- Use executive language
- Be concise but informative
- Mention important figures when present
- Do not invent information that is not in the context

OUTPUT FORMAT:
Executive summary in short paragraphs.
`, query, context)
}

// Insight produces a structured report of risks, opportunities and recommendations.
type Insight struct{}

func (Insight) SystemPrompt() string {
	return "You are a senior analyst specialized in evaluating corporate and technical documents. " +
		"Your goal is to extract strategic insights and practical recommendations, " +
		"always based strictly on the content provided."
}

func (Insight) BuildPrompt(query, context string) string {
	return fmt.Sprintf(`ANALYZED CONTEXT:
%s

FOCUS:
%s

TASK:
Analyze the documents above and produce a structured report containing:

1. EXECUTIVE SUMMARY
- A clear synthesis of the content in at most 5 lines

2. IDENTIFIED RISKS
- Points that may cause technical, legal or operational problems

3. OPPORTUNITIES
- Possible improvements, optimizations and competitive advantages

4. POINTS OF ATTENTION
- Aspects that require care or follow-up

5. RECOMMENDATIONS
- Practical, objective actions based on the documents

RULES:
- Do not use outside knowledge
- Do not make assumptions
- If a section lacks sufficient information, say so explicitly
- Professional and clear language

REPORT:
`, context, query)
}
