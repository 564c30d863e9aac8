// Package cort provides the Chain of Recursive Thoughts engine.
package cort

// PlanningPromptTemplate asks the backend to size the round budget for a
// query. The response is parsed for its first integer token.
const PlanningPromptTemplate = `Given this message: "%s"

How many rounds of iterative thinking (1-5) would be optimal to generate the best response?
Consider the complexity and nuance required.
Respond with just a number between 1 and 5.`

// AlternativePromptTemplate frames the current-best response as context to
// diverge from when generating one alternative.
const AlternativePromptTemplate = `Original message: %s

Current response: %s

Generate an alternative response that might be better. Be creative and consider different approaches.
Alternative response:`

// EvaluationPromptTemplate enumerates the current-best and all alternatives
// with stable labels and asks for exactly one label plus one sentence of
// justification.
const EvaluationPromptTemplate = `Original message: %s

Evaluate these responses and choose the best one:

Current best: %s

Alternatives:
%s

Which response best addresses the original message? Consider accuracy, clarity, and completeness.
First, respond with ONLY 'current' or a number (1-%d).
Then on a new line, explain your choice in one sentence.`
