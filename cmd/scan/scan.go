package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/imageproof/internal/analysis"
	"github.com/example/imageproof/internal/logging"
)

// scanExtensions are the image types the folder scan picks up.
var scanExtensions = []string{"tif", "tiff", "png", "jpg", "jpeg"}

type scanOptions struct {
	out      string
	stamp    string
	declared bool
	jobs     int
}

func runScan(cmd *cobra.Command, folder string, opts *scanOptions) error {
	logger, err := logging.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reports, err := scanFolder(cmd.Context(), folder, opts, logger)
	if err != nil {
		return err
	}
	if err := writeReport(opts.out, reports); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d items\n", opts.out, len(reports))
	return nil
}

// scanFolder analyzes every supported image in folder. Each image is
// independent, so analyses run in parallel up to opts.jobs workers; the
// report order always follows the sorted file list.
func scanFolder(ctx context.Context, folder string, opts *scanOptions, logger *zap.Logger) ([]analysis.Report, error) {
	files, err := listImages(folder)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.New(opts.stamp)
	reports := make([]analysis.Report, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxJobs(opts.jobs))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = analyzer.Analyze(file, opts.declared)
			logger.Info("image analyzed",
				logging.VerdictFields(reports[i].File, reports[i].Status, reports[i].Risk)...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func listImages(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", folder)
	}

	var files []string
	for _, ext := range scanExtensions {
		matches, err := filepath.Glob(filepath.Join(folder, "*."+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func writeReport(path string, reports []analysis.Report) error {
	if reports == nil {
		reports = []analysis.Report{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func maxJobs(jobs int) int {
	if jobs < 1 {
		return 1
	}
	return jobs
}
