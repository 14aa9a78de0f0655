// Package domain contains the core domain types for the assistant context.
package domain

import "strings"

// QueryKind is the routing class of a free-text query.
type QueryKind string

const (
	QueryGasRelated QueryKind = "gas_related"
	QueryCasual     QueryKind = "casual"
	QueryGeneral    QueryKind = "general"
)

var gasKeywords = []string{
	"gas", "price", "fee", "transaction", "send", "wait", "network", "congestion",
}

var casualKeywords = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings",
	"how are you", "what's up", "thanks", "thank you", "bye", "goodbye",
	"who are you", "what can you do", "help", "tell me about yourself",
	"thanks for the info", "thanks for the help", "goodjob", "how is your day going",
}

// IsGasQuery reports whether text mentions a gas-domain keyword.
func IsGasQuery(text string) bool {
	return containsAny(text, gasKeywords)
}

// IsCasualConversation reports whether text contains a greeting or small-talk
// keyword. Matching is by substring, so "hi" also matches "this".
func IsCasualConversation(text string) bool {
	return containsAny(text, casualKeywords)
}

// Classify returns the first matching kind, gas keywords taking precedence.
func Classify(text string) QueryKind {
	switch {
	case IsGasQuery(text):
		return QueryGasRelated
	case IsCasualConversation(text):
		return QueryCasual
	default:
		return QueryGeneral
	}
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
