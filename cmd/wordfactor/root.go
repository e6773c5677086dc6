package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wordfactor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordfactor",
		Short: "Word-frequency matrices, NMF categorization and numerical solvers",
		Long: `wordfactor fetches web pages, counts the words on them and categorizes the
pages by non-negative matrix factorization of the words × documents matrix.

It also ships two small numerical workflows: a second-order cone program
solver for YAML problem files and a Black-Scholes implied volatility solver.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewMatrixCmd())
	cmd.AddCommand(NewCategorizeCmd())
	cmd.AddCommand(NewSOCPCmd())
	cmd.AddCommand(NewImpvolCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
