// Package tokenizer provides whitespace tokenisation for the evaluation
// metrics. Unlike a search tokenizer it applies no normalisation: no
// case-folding, no punctuation stripping, no stemming. Callers that want
// normalised scores must normalise the text before handing it over.
package tokenizer

import "strings"

// Tokenize splits text on runs of whitespace and returns the word tokens in
// order. Empty or all-whitespace input yields an empty slice.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
