// Package termmatrix builds the dense words × documents frequency matrix that
// feeds the factorization, and reads and writes it as a whitespace-delimited
// word-count table.
//
// Rows are the distinct filtered words in lexicographic order, columns are the
// documents in input order, and every cell is a non-negative integer count.
package termmatrix
