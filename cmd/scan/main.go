package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "imageproof-scan <folder>",
		Short: "Scan a folder of images and write an integrity report",
		Long: `Scan analyzes every supported image in a folder (tif, tiff, png, jpg,
jpeg) with the integrity engine and writes the verdicts as a pretty-printed
JSON array. Each image is processed independently, so the scan runs with a
bounded number of parallel workers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.out, "out", "imageproof_report.json", "output JSON file")
	cmd.Flags().StringVar(&opts.stamp, "stamp", "assets/digital_stamp.png", "watermark stamp template")
	cmd.Flags().BoolVar(&opts.declared, "declared", false, "treat every image as declared digitally generated")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 4, "parallel analysis workers")
	return cmd
}
