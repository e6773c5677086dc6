// Package config provides configuration structures and utilities for wordfactor.
// It defines the options for fetching pages, building the word matrix,
// factorizing it, and writing reports.
package config
