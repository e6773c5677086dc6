package lexer

import "slices"

// englishStopwords is the built-in stopword list. The short entries matter
// when the minimum word length is lowered below its default.
var englishStopwords = []string{
	"a", "am", "an", "as", "at", "be", "by", "d", "do", "he", "i", "if", "in",
	"is", "it", "ll", "m", "me", "my", "no", "o", "of", "on", "or", "re", "s",
	"so", "t", "to", "up", "us", "ve", "we", "y",
	"about", "above", "after", "again", "against", "all", "and", "any", "are",
	"aren", "because", "been", "before", "being", "below", "between", "both",
	"but", "can", "cannot", "could", "couldn", "did", "didn", "does", "doesn",
	"doing", "don", "down", "during", "each", "few", "for", "from", "further",
	"had", "hadn", "has", "hasn", "have", "haven", "having", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "into", "isn", "its",
	"itself", "just", "let", "more", "most", "mustn", "myself", "nor", "not",
	"now", "off", "once", "only", "other", "ought", "our", "ours", "ourselves",
	"out", "over", "own", "same", "shan", "she", "should", "shouldn", "some",
	"such", "than", "that", "the", "their", "theirs", "them", "themselves",
	"then", "there", "these", "they", "this", "those", "through", "too",
	"under", "until", "very", "was", "wasn", "were", "weren", "what",
	"when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"won", "would", "wouldn", "you", "your", "yours", "yourself", "yourselves",
	"also", "may", "might", "must", "shall", "upon", "yet", "via",
}

// DefaultStopwords returns a copy of the built-in English stopword list.
func DefaultStopwords() []string {
	return slices.Clone(englishStopwords)
}
