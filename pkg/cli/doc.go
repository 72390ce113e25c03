/*
Package cli provides command-line interface utilities for Ganymede.

The cli package includes output formatters, typed command errors, and
signal helpers used by the ganymede command.

Output Formatting:

The cli package supports text and JSON output for displaying command
results. ParseFormat validates an --output flag value before use:

	format, err := cli.ParseFormat(flags.output)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Error Types:

Commands wrap failures in typed errors so the root command can report
them uniformly:

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
