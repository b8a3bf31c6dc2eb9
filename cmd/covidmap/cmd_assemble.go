package main

import (
	"fmt"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/animate"
	"github.com/spf13/cobra"
)

var assembleFlags struct {
	frameDir string
	out      string
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Rebuild the animation from frames already on disk",
	Long: `Collects every YYYY-MM-DD.png in the frame directory, orders them by
date and writes an infinitely looping GIF at FRAME_RATE frames per second.`,
	Args: cobra.NoArgs,
	RunE: runAssemble,
}

func init() {
	f := assembleCmd.Flags()
	f.StringVar(&assembleFlags.frameDir, "frames", "", "Frame directory (default OUTPUT_DIR)")
	f.StringVarP(&assembleFlags.out, "out", "o", "", "Animation path (default ANIMATION_PATH)")
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	frameDir := cfg.OutputDir
	if assembleFlags.frameDir != "" {
		frameDir = assembleFlags.frameDir
	}
	out := cfg.AnimationPath
	if assembleFlags.out != "" {
		out = assembleFlags.out
	}

	n, err := animate.NewAssembler(cfg.FrameRate, logger).Assemble(frameDir, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames -> %s\n", n, out)
	return nil
}
