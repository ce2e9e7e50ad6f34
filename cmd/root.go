// Package cmd implements the ripen command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ajxudir/ripen/pkg/constants"
	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/verbose"
)

var exitFunc = os.Exit
var verboseFlag bool
var traceFlag bool

var rootCmd = &cobra.Command{
	Use:   "ripen",
	Short: "Show npm updates that have been published long enough to trust",
	Long: `ripen lists outdated npm dependencies and holds back versions that are
younger than a minimum age, recommending the newest release that has ripened.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case traceFlag || constants.IsTruthy(os.Getenv(constants.EnvTrace)):
			verbose.EnableTrace()
		case verboseFlag:
			verbose.Enable()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits with appropriate code:
//   - 0: Success, including runs with per-package warnings
//   - 2: Fatal failure
//   - 3: Configuration or preflight error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := errors.GetExitCode(err)
		errors.PrintErrorWithHints(rootCmd.ErrOrStderr(), err)
		verbose.Infof("Exit code %d: %v", code, err)
		exitFunc(code)
	}
}

// ExecuteTest runs the root command with args and returns the error instead
// of exiting.
func ExecuteTest(args ...string) error {
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Enable trace output, including command output (also "+constants.EnvTrace+"=1)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(outdatedCmd)
}
