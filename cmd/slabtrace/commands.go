package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/ironsheep/slabtrace/internal/contour"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
	"github.com/ironsheep/slabtrace/internal/server"
	"github.com/ironsheep/slabtrace/internal/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.sessionConfig()
			if err != nil {
				return err
			}
			srv := server.New(cfg, Version)
			if err := srv.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
				log.Printf("Server error: %v", err)
				return err
			}
			return nil
		},
	}
}

// markersOutput is what the markers command prints.
type markersOutput struct {
	Image       *raster.Info `json:"image"`
	Markers     interface{}  `json:"markers"`
	Calibration interface{}  `json:"calibration,omitempty"`
}

func newMarkersCmd() *cobra.Command {
	var calibrate bool
	cmd := &cobra.Command{
		Use:   "markers <image>",
		Short: "Detect the reference markers in a photograph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.sessionConfig()
			if err != nil {
				return err
			}
			s, info, err := openSession(cfg, args[0])
			if err != nil {
				return err
			}
			set, err := s.DetectMarkers(cmd.Context())
			if err != nil {
				return fmt.Errorf("marker detection failed: %w", err)
			}
			out := markersOutput{Image: info, Markers: set}
			if calibrate {
				cs, err := s.Calibrate()
				if err != nil {
					return err
				}
				out.Calibration = cs
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVarP(&calibrate, "calibrate", "c", false, "Also build the coordinate system from the markers")
	return cmd
}

// contourFlags are the per-image settings of contour and batch.
type contourFlags struct {
	calibrate bool
	seedX     float64
	seedY     float64
}

func (f *contourFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.calibrate, "calibrate", "c", false, "Detect markers and report machine coordinates")
	cmd.Flags().Float64Var(&f.seedX, "seed-x", -1, "Seed X pixel inside the slab (default image center)")
	cmd.Flags().Float64Var(&f.seedY, "seed-y", -1, "Seed Y pixel inside the slab (default image center)")
}

func (f *contourFlags) seed() *geometry.Point {
	if f.seedX < 0 || f.seedY < 0 {
		return nil
	}
	p := geometry.Pt(f.seedX, f.seedY)
	return &p
}

func newContourCmd() *cobra.Command {
	var flags contourFlags
	cmd := &cobra.Command{
		Use:   "contour <image>",
		Short: "Outline the slab in a photograph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.sessionConfig()
			if err != nil {
				return err
			}
			res, err := traceImage(cmd.Context(), cfg, args[0], flags)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	flags.register(cmd)
	return cmd
}

// traceImage runs the whole pipeline on one file.
func traceImage(ctx context.Context, cfg session.Config, path string, flags contourFlags) (*contour.ContourResult, error) {
	s, _, err := openSession(cfg, path)
	if err != nil {
		return nil, err
	}
	if flags.calibrate {
		if _, err := s.DetectMarkers(ctx); err != nil {
			return nil, fmt.Errorf("marker detection failed: %w", err)
		}
		if _, err := s.Calibrate(); err != nil {
			return nil, err
		}
	}
	res, err := s.DetectContour(ctx, flags.seed())
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Printf("%s: strategy=%s fallback=%v points=%d", path, res.Strategy, res.Fallback, len(res.PixelContour))
	}
	return &res, nil
}

func openSession(cfg session.Config, path string) (*session.Session, *raster.Info, error) {
	cache := raster.NewCache()
	info, err := raster.LoadInfo(cache, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	img, err := cache.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	s := session.New(cfg)
	s.Capture(img)
	return s, info, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
