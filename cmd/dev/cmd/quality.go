package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func checkCmd(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}

// TestCmd runs the unit tests. They only need the in-memory simulator.
func TestCmd() *cobra.Command {
	return checkCmd("test", "Run unit tests", test.Test)
}

func LintCmd() *cobra.Command {
	return checkCmd("lint", "Run linters", test.Lint)
}

// IntegrationTestCmd runs the tests that need a sensor on a real bus.
func IntegrationTestCmd() *cobra.Command {
	return checkCmd("integration-test", "Run integration tests against attached hardware", test.Integ)
}
