package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cdiextract <command> <input-path> [output-path]",
		Short:         "Extract files, MPEG streams, and still images from a CD-i track image",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.AddCommand(
		newPrintCommand(),
		newExtractFilesCommand(),
		newExtractMPEGsCommand(),
		newExtractDYUVCommand(),
		newExtractAllCommand(),
		newSelfUpdateCommand(),
	)
	return root
}

// outputPathArg returns the explicit output-path argument if given, or
// else the input track image's parent directory — matching the reference
// tool's default of writing alongside the source image.
func outputPathArg(args []string, inputPath string) string {
	if len(args) > 1 {
		return args[1]
	}
	return filepath.Dir(inputPath)
}

func runSelfUpdate(ctx context.Context) error {
	return selfUpdate(ctx, version)
}
