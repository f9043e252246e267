package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/slabtrace/internal/contour"
	"github.com/ironsheep/slabtrace/internal/session"
)

// batchRecord is one JSON line of batch output.
type batchRecord struct {
	Path   string                 `json:"path"`
	Result *contour.ContourResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var (
		flags   contourFlags
		workers int
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "batch <image>...",
		Short: "Outline the slab in many photographs, one JSON line per image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.sessionConfig()
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = 1
			}

			var bar *progressbar.ProgressBar
			if !quiet {
				bar = progressbar.NewOptions(len(args),
					progressbar.OptionSetDescription("tracing"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
			}

			failed := runBatch(cmd.Context(), cfg, args, flags, workers, cmd.OutOrStdout(), func() {
				if bar != nil {
					_ = bar.Add(1)
				}
			})
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of images traced in parallel")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

// runBatch traces paths on a pool of workers and writes one record per
// image to w in completion order. It returns the number of failed images.
func runBatch(ctx context.Context, cfg session.Config, paths []string, flags contourFlags, workers int, w io.Writer, done func()) int {
	tasks := make(chan string, workers)
	results := make(chan batchRecord, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				rec := batchRecord{Path: path}
				res, err := traceImage(ctx, cfg, path, flags)
				if err != nil {
					rec.Error = err.Error()
				} else {
					rec.Result = res
				}
				results <- rec
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, p := range paths {
			select {
			case tasks <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	enc := json.NewEncoder(w)
	failed := 0
	for rec := range results {
		if rec.Error != "" {
			failed++
		}
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write result for %s: %v\n", rec.Path, err)
		}
		done()
	}
	return failed
}
