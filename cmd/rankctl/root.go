package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree, so tests never share flag state.
func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "rankctl",
		Short:         "Rank colleges against a student's priorities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline details to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return newLogger(cmd.ErrOrStderr(), level)
	}

	root.AddCommand(newRankCmd(logger))
	root.AddCommand(newSearchCmd(logger))
	return root
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
