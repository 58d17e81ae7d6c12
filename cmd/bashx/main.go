// Command bashx is a thin CLI adapter over the bashx facade:
//
//	bashx -- echo Hello, World!
//	bashx --backend remote --config bashx.yaml -- uname -a
//
// It joins the arguments into one command, runs it through the
// selected backend, prints the annotated output, and exits with the
// command's exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bashx"
)

func main() {
	var exitCode int
	cmd := newRootCmd(&exitCode)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// newRootCmd builds the root command. The command's exit code (also
// the suppressed 1 of --skip-err) is written to exitCode so main can
// pass it through.
func newRootCmd(exitCode *int) *cobra.Command {
	var (
		cfgFile     string
		backendName string
		logLevel    string
		skipErr     bool
	)

	rootCmd := &cobra.Command{
		Use:           "bashx [flags] -- command [args...]",
		Short:         "bashx runs a shell command through one of its execution backends",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				cfg, err := bashx.LoadConfig(cfgFile)
				if err != nil {
					return err
				}
				bashx.Current = cfg
			}
			if logLevel != "" {
				bashx.Current.LogLevel = logLevel
			}
			bashx.Log = bashx.SelectSink(bashx.Current, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bashx.ExecOptions{SkipErr: skipErr}
			if backendName != "" {
				backend, err := bashx.ParseBackend(backendName)
				if err != nil {
					return err
				}
				opts.Backend = backend
			}

			code, out, err := bashx.ExecCmd(cmd.Context(), bashx.Command{Args: args}, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			*exitCode = code
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "execution backend (spawn, system, command, shell, remote)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log threshold (TRACE, DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().BoolVar(&skipErr, "skip-err", false, "report failing commands as (1, \"\") instead of an error")

	return rootCmd
}
