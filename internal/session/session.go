// Package session keeps the state of one workpiece capture: the photograph,
// its markers and the coordinate system derived from them.
//
// A new Capture drops the markers and the coordinate system, since they
// describe the previous photograph. Calibrate replaces the coordinate system
// as a whole; readers never see a half-built one. All methods are safe for
// concurrent use.
package session

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/contour"
	"github.com/ironsheep/slabtrace/internal/filter"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

var (
	// ErrNoImage is returned by operations that need a captured photograph.
	ErrNoImage = errors.New("no image captured")

	// ErrNotCalibrated is returned by conversions before a successful Calibrate.
	ErrNotCalibrated = errors.New("session is not calibrated")
)

// Config collects the settings a session hands to the calibration and
// contour packages.
type Config struct {
	Reference calibration.Reference
	Locator   calibration.LocatorOptions

	// Refine is used for marker search around a tap. It is usually stricter
	// than Locator since a human already pointed at the marker.
	Refine calibration.LocatorOptions

	Contour  contour.Options
	Registry *contour.Registry

	// Logger receives debug output. Nil is silent.
	Logger *log.Logger
}

// DefaultConfig returns the four-marker layout, lenient automatic search,
// strict refinement and the default contour pipeline.
func DefaultConfig() Config {
	refine := calibration.DefaultLocatorOptions()
	refine.MinContrast = calibration.StrictContrast
	return Config{
		Reference: calibration.DefaultReference(),
		Locator:   calibration.DefaultLocatorOptions(),
		Refine:    refine,
		Contour:   contour.DefaultOptions(),
	}
}

// Session is the state of one capture.
type Session struct {
	cfg      Config
	detector *contour.Detector

	mu       sync.RWMutex
	img      *raster.Raster
	integral *filter.Integral
	markers  calibration.MarkerSet
	coords   *calibration.CoordinateSystem
}

// New creates an empty session.
func New(cfg Config) *Session {
	opts := cfg.Contour
	if opts.Logger == nil {
		opts.Logger = cfg.Logger
	}
	return &Session{
		cfg:      cfg,
		detector: contour.NewDetector(cfg.Registry, opts),
	}
}

func (s *Session) debugf(format string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Printf(format, args...)
	}
}

// Capture makes img the current photograph and forgets the markers and
// coordinate system of the previous one.
func (s *Session) Capture(img *raster.Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.integral = nil
	s.markers = nil
	s.coords = nil
	s.debugf("session: captured %dx%d image", img.Width, img.Height)
}

// Image returns the current photograph, or nil.
func (s *Session) Image() *raster.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

// Markers returns a copy of the current marker set.
func (s *Session) Markers() calibration.MarkerSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(calibration.MarkerSet(nil), s.markers...)
}

// Reference returns the marker geometry used by Calibrate.
func (s *Session) Reference() calibration.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Reference
}

// Coordinates returns the current coordinate system.
func (s *Session) Coordinates() (*calibration.CoordinateSystem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coords, s.coords != nil
}

// DetectMarkers searches the current photograph for markers and stores them.
func (s *Session) DetectMarkers(ctx context.Context) (calibration.MarkerSet, error) {
	s.mu.RLock()
	img, layout := s.img, s.cfg.Reference.Layout
	s.mu.RUnlock()
	if img == nil {
		return nil, ErrNoImage
	}
	set, err := calibration.DetectMarkers(ctx, img, layout, s.cfg.Locator)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img != img {
		return nil, errors.New("image replaced during marker detection")
	}
	s.markers = set
	s.coords = nil
	s.debugf("session: detected %d markers", len(set))
	return append(calibration.MarkerSet(nil), set...), nil
}

// Refine re-locates the marker with the given role around a tap and stores
// it. When nothing stands out near the tap the tap itself is stored with
// zero confidence and found is false.
func (s *Session) Refine(tap image.Point, role calibration.Role) (m calibration.MarkerPoint, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return calibration.MarkerPoint{}, false, ErrNoImage
	}
	if s.integral == nil {
		s.integral = filter.NewIntegral(s.img.Gray())
	}
	m, found = calibration.LocateNear(s.integral, tap, role, s.cfg.Refine)
	s.markers = s.markers.With(m)
	s.coords = nil
	s.debugf("session: refined %s at (%d,%d) found=%v", role, m.X, m.Y, found)
	return m, found, nil
}

// Calibrate builds a coordinate system from the current markers. On success
// it replaces the previous one; on failure the session keeps no coordinate
// system.
func (s *Session) Calibrate() (*calibration.CoordinateSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, err := calibration.Calibrate(s.markers, s.cfg.Reference)
	if err != nil {
		s.coords = nil
		return nil, err
	}
	s.coords = cs
	s.debugf("session: calibrated ratio=%.4f mm/px angle=%.4f rad", cs.Ratio(), cs.Angle)
	return cs, nil
}

// CalibrateWith calibrates with ref and, when markers is non-empty, with
// markers instead of the stored set. Both are stored only when calibration
// succeeds; on failure they stay as they were and the session is left
// uncalibrated, as with Calibrate.
func (s *Session) CalibrateWith(ref calibration.Reference, markers calibration.MarkerSet) (*calibration.CoordinateSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(markers) == 0 {
		markers = s.markers
	}
	cs, err := calibration.Calibrate(markers, ref)
	if err != nil {
		s.coords = nil
		return nil, err
	}
	s.cfg.Reference = ref
	s.markers = append(calibration.MarkerSet(nil), markers...)
	s.coords = cs
	s.debugf("session: calibrated ratio=%.4f mm/px angle=%.4f rad", cs.Ratio(), cs.Angle)
	return cs, nil
}

// DetectContour outlines the slab around seed, or around the image center
// when seed is nil. The contour carries machine coordinates when the session
// is calibrated. The only error is ErrNoImage; segmentation failures show up
// as a fallback result.
func (s *Session) DetectContour(ctx context.Context, seed *geometry.Point) (contour.ContourResult, error) {
	s.mu.RLock()
	img, cs := s.img, s.coords
	s.mu.RUnlock()
	if img == nil {
		return contour.ContourResult{}, ErrNoImage
	}
	return s.detector.Detect(ctx, contour.Request{Image: img, Seed: seed, Coords: cs}), nil
}

// PixelToMachine converts a pixel position with the current coordinate system.
func (s *Session) PixelToMachine(p geometry.Point) (geometry.Point, error) {
	cs, ok := s.Coordinates()
	if !ok {
		return geometry.Point{}, ErrNotCalibrated
	}
	return cs.PixelToMachine(p), nil
}

// Distance measures the machine distance between two pixel positions.
func (s *Session) Distance(a, b geometry.Point) (float64, error) {
	cs, ok := s.Coordinates()
	if !ok {
		return 0, ErrNotCalibrated
	}
	return cs.Distance(a, b), nil
}
