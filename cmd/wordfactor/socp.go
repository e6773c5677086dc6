package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/report"
	"github.com/nao1215/wordfactor/internal/socp"
)

// NewSOCPCmd creates the socp command.
func NewSOCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "socp PROBLEM.yaml",
		Short: "Solve a second-order cone program",
		Long: `Socp solves a second-order cone program read from a YAML file:

  minimize    c·x
  subject to  lower <= x <= upper
              lower_i <= a_i·x <= upper_i
              x[v0] >= ||x[v1..]||               (quadratic cone)
              2·x[v0]·x[v1] >= ||x[v2..]||²      (rotated cone)

Example problem file:
  name: unit disc
  variables: [t, x, y]
  objective: [0, -1, -1]
  lower: [1, -.inf, -.inf]
  upper: [1, .inf, .inf]
  cones:
    - type: quadratic
      vars: [0, 1, 2]

Examples:
  wordfactor socp problem.yaml
  wordfactor socp problem.yaml --tol 1e-10 --markdown`,
		Args: cobra.ExactArgs(1),
		RunE: runSOCPCmd,
	}

	cmd.Flags().Float64("tol", socp.DefaultTolerance,
		"Target duality gap")
	cmd.Flags().Int("max-iter", socp.DefaultMaxIter,
		"Maximum number of Newton steps")
	addFormatFlags(cmd)

	return cmd
}

// runSOCPCmd executes the socp command.
func runSOCPCmd(cmd *cobra.Command, args []string) error {
	opts := socp.DefaultOptions()
	var err error
	opts.Tolerance, err = cmd.Flags().GetFloat64("tol")
	if err != nil {
		return err
	}
	opts.MaxIter, err = cmd.Flags().GetInt("max-iter")
	if err != nil {
		return err
	}
	format, err := getFormat(cmd)
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	p, err := socp.LoadProblemFile(args[0])
	if err != nil {
		return err
	}
	logger.Debug("solving problem",
		"name", p.Name,
		"variables", p.NumVariables(),
		"constraints", len(p.Constraints),
		"cones", len(p.Cones),
	)

	sol, solveErr := socp.Solve(ctx, p, opts)
	if sol == nil {
		return fmt.Errorf("failed to solve %s: %w", args[0], solveErr)
	}

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	if err := report.WriteSOCP(out, format, p, sol); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to write solution: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	// A stopped solver still prints its status and last iterate.
	if solveErr != nil {
		return fmt.Errorf("solver stopped: %w", solveErr)
	}
	return nil
}
