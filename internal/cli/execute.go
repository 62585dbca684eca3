package cli

import (
	"context"
	"errors"
	"io"
)

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported in the selected format: JSON envelopes go to stdout,
// text goes to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// Cobra's own flag and argument errors carry no exit code.
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "invalid command", err)
	} else if exitErr.Reported {
		return exitErr.Code
	}

	formatter := &OutputFormatter{Format: "text", Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		formatter.Format = "json"
		formatter.Writer = stdout
	}
	_ = formatter.Fail(err)

	return GetExitCode(err)
}
