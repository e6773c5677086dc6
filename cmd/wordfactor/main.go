// Package main provides the entry point for the wordfactor CLI.
//
// wordfactor builds word-frequency matrices from web pages and categorizes
// them with non-negative matrix factorization. It also solves second-order
// cone programs and Black-Scholes implied volatilities.
//
// Usage:
//
//	wordfactor matrix --urls urls.txt
//	wordfactor categorize --urls urls.txt -k 3
//	wordfactor socp problem.yaml
//	wordfactor impvol --price 4.76 --spot 42 --strike 40 --expiry 0.5 --rate 0.1
//
// See --help for all available options.
package main

// main is the entry point for wordfactor.
func main() {
	Execute()
}
