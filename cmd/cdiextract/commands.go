package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdiextract/cdiextract/internal/byteutil"
	"github.com/cdiextract/cdiextract/pkg/cdiextract"
)

func newPrintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "print <input-path>",
		Aliases: []string{"p"},
		Short:   "Print all files and directories in a CD-i track image",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args[0], "", cdiextract.ModeList, cdiextract.DYUVSettings{})
		},
	}
	return cmd
}

func newExtractFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract-files <input-path> [output-path]",
		Aliases: []string{"x"},
		Short:   "Copy files and directories from a CD-i track image (MPEG streams are not files)",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args[0], outputPathArg(args, args[0]), cdiextract.ModeExtractFiles, cdiextract.DYUVSettings{})
		},
	}
	return cmd
}

func newExtractMPEGsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract-mpegs <input-path> [output-path]",
		Aliases: []string{"m"},
		Short:   "Copy real-time MPEG streams from a CD-i track image",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args[0], outputPathArg(args, args[0]), cdiextract.ModeExtractMPEGs, cdiextract.DYUVSettings{})
		},
	}
	return cmd
}

func newExtractDYUVCommand() *cobra.Command {
	var width, height int
	var seedY, seedU, seedV uint8
	var noInterpolation bool

	cmd := &cobra.Command{
		Use:     "extract-dyuv <input-path> [output-path]",
		Aliases: []string{"d"},
		Short:   "Decode DYUV still images from a CD-i track image to PNG",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dyuvSettings := cdiextract.DefaultDYUVSettings()
			if width > 0 {
				dyuvSettings.Width = width
			}
			if height > 0 {
				dyuvSettings.Height = height
			}
			if cmd.Flags().Changed("dyuv-init") || cmd.Flags().Changed("dyuv-init-u") || cmd.Flags().Changed("dyuv-init-v") {
				dyuvSettings.SeedY = seedY
				dyuvSettings.SeedU = seedU
				dyuvSettings.SeedV = seedV
			}
			dyuvSettings.Interpolate = !noInterpolation
			return runExtract(cmd.Context(), args[0], outputPathArg(args, args[0]), cdiextract.ModeExtractDYUV, dyuvSettings)
		},
	}

	cmd.Flags().IntVar(&width, "dyuv-width", 0, "DYUV still image width in pixels (default 384)")
	cmd.Flags().IntVar(&height, "dyuv-height", 0, "DYUV still image height in pixels (default 280)")
	cmd.Flags().Uint8Var(&seedY, "dyuv-init", 16, "DYUV per-line seed Y component (use with --dyuv-init-u/--dyuv-init-v)")
	cmd.Flags().Uint8Var(&seedU, "dyuv-init-u", 128, "DYUV per-line seed U component")
	cmd.Flags().Uint8Var(&seedV, "dyuv-init-v", 128, "DYUV per-line seed V component")
	cmd.Flags().BoolVar(&noInterpolation, "dyuv-no-interpolation", false, "disable chroma interpolation between pixel pairs")

	return cmd
}

func newExtractAllCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract-all <input-path> [output-path]",
		Aliases: []string{"a"},
		Short:   "Copy everything from a CD-i track image (same as extract-files + extract-mpegs)",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args[0], outputPathArg(args, args[0]), cdiextract.ModeExtractAll, cdiextract.DYUVSettings{})
		},
	}
	return cmd
}

func newSelfUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update cdiextract to the latest released version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd.Context())
		},
	}
}

func runExtract(ctx context.Context, inputPath, outputPath string, mode cdiextract.Mode, dyuvSettings cdiextract.DYUVSettings) error {
	result, err := cdiextract.Run(ctx, cdiextract.Options{
		InputPath:  inputPath,
		OutputRoot: outputPath,
		Mode:       mode,
		DYUV:       dyuvSettings,
		OnProgress: printProgress,
	})
	if err != nil {
		return err
	}
	printResult(mode, result)
	return nil
}

func printProgress(e cdiextract.ProgressEvent) {
	switch e.Stage {
	case cdiextract.StageFile:
		if e.Completed {
			fmt.Printf("    Copying %s/%s\n", e.Path, e.FileName)
		}
	case cdiextract.StageDirectory:
		fmt.Printf("/%s\n", e.Path)
	}
}

func printResult(mode cdiextract.Mode, result cdiextract.Result) {
	if mode == cdiextract.ModeList {
		for _, dir := range result.Listing {
			fmt.Printf("/%s\n", dir.Path)
			for _, entry := range dir.Entries {
				if entry.IsDirectory {
					fmt.Printf("  %s/\n", entry.Name)
				} else {
					fmt.Printf("  %-32s %s bytes (%s)\n", entry.Name,
						byteutil.FormatNumber(int64(entry.SizeBytes)),
						byteutil.FormatFileSize(float64(entry.SizeBytes), true))
				}
			}
			fmt.Println()
		}
		return
	}

	if result.FilesCopied > 0 {
		fmt.Printf("Copied %d file(s) to %s\n", result.FilesCopied, result.OutputDir)
	}
	if result.StreamsOpened > 0 {
		fmt.Printf("Extracted %d MPEG stream(s) to %s\n", result.StreamsOpened, result.OutputDir)
	}
	if result.ImagesWritten > 0 {
		fmt.Printf("Decoded %d DYUV image(s) to %s\n", result.ImagesWritten, result.OutputDir)
	}
	for _, fe := range result.Errors {
		if fe.FileName == "" {
			fmt.Printf("    skipped /%s: %v\n", fe.Path, fe.Err)
			continue
		}
		fmt.Printf("    skipped /%s/%s: %v\n", fe.Path, fe.FileName, fe.Err)
	}
}
