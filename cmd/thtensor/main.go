// Package main provides the thtensor CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

type globalFlags struct {
	verbose   bool
	allocator string
	arenaSize int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "thtensor",
		Short:         "Inspect and exercise native-backed float tensors",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log allocator events at debug level")
	root.PersistentFlags().StringVar(&g.allocator, "allocator", "",
		"allocator: heap, mmap, malloc, arena or webgpu (default: platform default)")
	root.PersistentFlags().IntVar(&g.arenaSize, "arena-size", 64<<20, "arena capacity in bytes")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "thtensor %s\n", version)
			},
		},
		newOffsetCmd(),
		newRandnCmd(g),
		newSaveCmd(g),
		newInspectCmd(),
	)
	return root
}
