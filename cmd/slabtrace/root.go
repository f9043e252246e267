package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/contour"
	"github.com/ironsheep/slabtrace/internal/session"
)

// cliOptions holds the flags shared by every command.
type cliOptions struct {
	Debug bool

	Layout      int
	XAxisMm     float64
	ScaleMm     float64
	Anisotropic bool

	Strategies    string
	Timeout       time.Duration
	FallbackShape string
	Adaptive      bool
}

var opts = cliOptions{
	Layout:        4,
	XAxisMm:       calibration.DefaultReference().OriginToXAxisMm,
	ScaleMm:       calibration.DefaultReference().OriginToScaleMm,
	Strategies:    "threshold,edge,color",
	Timeout:       contour.DefaultOptions().Timeout,
	FallbackShape: "disk",
}

// logger is nil unless debug output was requested.
var logger *log.Logger

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slabtrace",
		Short: "Calibrate workpiece photos and outline slabs in machine coordinates",
		Long: `slabtrace locates the reference markers in a workpiece photograph, builds a
pixel-to-millimeter coordinate system from them and outlines the slab.

Environment variables:
  SLABTRACE_LOG_LEVEL=debug    Enable debug logging (same as --debug)`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(os.Stderr)
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("slabtrace %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit))

	f := root.PersistentFlags()
	f.BoolVar(&opts.Debug, "debug", false, "Enable debug logging to stderr")
	f.IntVar(&opts.Layout, "layout", opts.Layout, "Number of reference markers (3 or 4)")
	f.Float64Var(&opts.XAxisMm, "x-axis-mm", opts.XAxisMm, "Real distance between the origin and x-axis markers")
	f.Float64Var(&opts.ScaleMm, "scale-mm", opts.ScaleMm, "Real distance between the origin and scale markers")
	f.BoolVar(&opts.Anisotropic, "anisotropic", false, "Keep separate X and Y ratios")
	f.StringVar(&opts.Strategies, "strategies", opts.Strategies, "Comma-separated segmentation order")
	f.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Time budget of one contour detection")
	f.StringVar(&opts.FallbackShape, "fallback-shape", opts.FallbackShape, "Outline used when every strategy fails (disk or rounded-rect)")
	f.BoolVar(&opts.Adaptive, "adaptive", false, "Restrict threshold growth with a local-mean threshold")

	root.AddCommand(newServeCmd(), newMarkersCmd(), newContourCmd(), newBatchCmd())
	return root
}

// setupLogging configures the standard logger the way the MCP server expects:
// stderr, since stdout carries the protocol.
func setupLogging(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if opts.Debug || os.Getenv("SLABTRACE_LOG_LEVEL") == "debug" {
		logger = log.New(w, "", log.Ldate|log.Ltime|log.Lshortfile)
		logger.Printf("slabtrace v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
}

// sessionConfig turns the flags into a session configuration.
func (o cliOptions) sessionConfig() (session.Config, error) {
	cfg := session.DefaultConfig()
	cfg.Logger = logger

	switch o.Layout {
	case 3:
		cfg.Reference.Layout = calibration.Layout3
	case 4:
		cfg.Reference.Layout = calibration.Layout4
	default:
		return cfg, fmt.Errorf("--layout must be 3 or 4, got %d", o.Layout)
	}
	cfg.Reference.OriginToXAxisMm = o.XAxisMm
	cfg.Reference.OriginToScaleMm = o.ScaleMm
	cfg.Reference.Anisotropic = o.Anisotropic

	order, err := parseOrder(o.Strategies)
	if err != nil {
		return cfg, err
	}
	cfg.Contour.Order = order
	cfg.Contour.Timeout = o.Timeout
	cfg.Contour.Adaptive = o.Adaptive

	switch strings.ToLower(o.FallbackShape) {
	case "disk", "":
		cfg.Contour.FallbackShape = contour.ShapeDisk
	case "rounded-rect":
		cfg.Contour.FallbackShape = contour.ShapeRoundedRect
	default:
		return cfg, fmt.Errorf("--fallback-shape must be disk or rounded-rect, got %q", o.FallbackShape)
	}
	return cfg, nil
}

func parseOrder(s string) ([]contour.Kind, error) {
	var order []contour.Kind
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		k, err := contour.ParseKind(name)
		if err != nil {
			return nil, err
		}
		order = append(order, k)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("--strategies must name at least one strategy")
	}
	return order, nil
}
