// Package lexer turns page text into the filtered word tokens counted by the
// word-frequency matrix.
//
// Text is split on every rune that is neither a letter nor a digit, case
// folded, and filtered: tokens shorter than the minimum length, tokens that
// start with a digit, and stopwords are dropped. Snowball stemming can be
// enabled on top of that.
package lexer
