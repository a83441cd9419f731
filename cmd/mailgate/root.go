package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/mailgate/config"
	"github.com/jonwraymond/mailgate/gate"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	configPath string
	debug      bool
	envFiles   []string
	stdin      bool
}

// execute runs the command line in args and returns the process exit status.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	code := 0
	root := newRootCmd(stdin, &code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// A broken invocation still owes the mail system an answer.
		fmt.Fprintf(stderr, "mailgate: %v\n", err)
		v := gate.DeferVerdict(gate.ReasonConfigError)
		_, _ = io.WriteString(stdout, v.Line())
		return v.ExitCode()
	}
	return code
}

func newRootCmd(stdin io.Reader, code *int) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "mailgate",
		Short: "Mail delivery policy gate",
		Long: "mailgate runs the configured health checks (NFS mounts, SSSD domain, user accounts) and prints a\n" +
			"policy verdict: action=DUNNO when all pass, action=432 with a reason otherwise.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = runGate(cmd.Context(), opts, stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "configuration file")
	rootCmd.Flags().BoolVar(&opts.debug, "debug", false, "print a readable trace of every check to stdout")
	rootCmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "dotenv file to load before reading the configuration (repeatable)")
	rootCmd.Flags().BoolVar(&opts.stdin, "stdin", false, "read a policy request from stdin and log its attributes")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mailgate version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mailgate %s\n", version)
			return nil
		},
	}
}
