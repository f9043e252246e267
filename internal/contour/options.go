package contour

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ironsheep/slabtrace/internal/boundary"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// Kind names a segmentation family.
type Kind int

const (
	Threshold Kind = iota
	Edge
	Color
)

var kindNames = [...]string{"threshold", "edge", "color"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind parses a strategy name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (want threshold, edge or color)", s)
}

// Shape selects the synthetic outline used when every strategy fails.
type Shape int

const (
	ShapeDisk Shape = iota
	ShapeRoundedRect
)

// Options configures detection. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Order lists the strategies to try, first to last.
	Order []Kind

	// Timeout is the time budget of one Detect call. Zero means no budget.
	Timeout time.Duration

	// Validation
	MinPoints         int
	MinRegionPixels   int
	MaxAreaFraction   float64
	RequireSeedInside bool

	// Fallback outline
	FallbackShape  Shape
	FallbackRadius float64

	// Threshold strategy
	MinTolerance   float64
	MaxTolerance   float64
	CloseKernel    int
	Adaptive       bool
	AdaptiveRadius int
	AdaptiveOffset float64
	Connectivity   segment.Connectivity

	// Edge strategy
	BlurRadius       float64
	MinEdgeMagnitude float64
	EdgeKernel       int
	MaxEdgeKernel    int
	MinEdgePoints    int
	NudgeRadius      int
	Rays             boundary.RayOptions

	// Color strategy. With the default weights a pure brightness step
	// contributes only 0.2 per unit of value, so the tolerance must stay below
	// 0.2*ΔV for the region to stop at a slab that differs from its
	// background only in brightness.
	ColorTolerance float64
	HSVWeights     segment.HSVWeights

	// Post-processing
	CornerSpan      int
	CornerAngle     float64
	SimplifyEpsilon float64
	SmoothWindow    int
	ResampleTarget  int
	MaxPoints       int
	TraceMaxSteps   int

	// Logger receives debug output about failed attempts. Nil is silent.
	Logger *log.Logger
}

// DefaultOptions returns the canonical configuration: Threshold, Edge then
// Color, 8-connected growth, a 5 second budget.
func DefaultOptions() Options {
	return Options{
		Order:   []Kind{Threshold, Edge, Color},
		Timeout: 5 * time.Second,

		MinPoints:       10,
		MinRegionPixels: 100,
		MaxAreaFraction: 0.9,

		FallbackShape:  ShapeDisk,
		FallbackRadius: 50,

		MinTolerance:   0.02,
		MaxTolerance:   0.15,
		CloseKernel:    5,
		AdaptiveRadius: 15,
		AdaptiveOffset: 0.02,
		Connectivity:   segment.Conn8,

		BlurRadius:       2.5,
		MinEdgeMagnitude: 0.1,
		EdgeKernel:       3,
		MaxEdgeKernel:    9,
		MinEdgePoints:    20,
		NudgeRadius:      5,
		Rays:             boundary.DefaultRayOptions(),

		ColorTolerance: 0.07,
		HSVWeights:     segment.DefaultHSVWeights(),

		CornerSpan:      5,
		CornerAngle:     60,
		SimplifyEpsilon: 3,
		SmoothWindow:    5,
		ResampleTarget:  32,
		MaxPoints:       100,
		TraceMaxSteps:   boundary.DefaultMaxSteps,
	}
}

func (o Options) debugf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
