package calibration

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// Role identifies what a marker contributes to the coordinate system.
type Role int

const (
	Origin Role = iota
	XAxis
	Scale
	TopRight
)

var roleNames = [...]string{"origin", "x_axis", "scale", "top_right"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(roleNames) {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole parses a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range roleNames {
		if s == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown marker role %q", s)
}

// Layout is the marker arrangement printed on the workpiece.
type Layout int

const (
	// Layout4 uses Origin, XAxis, Scale and TopRight.
	Layout4 Layout = iota
	// Layout3 uses Origin, XAxis and Scale.
	Layout3
)

// Roles returns the roles the layout requires.
func (l Layout) Roles() []Role {
	if l == Layout3 {
		return []Role{Origin, XAxis, Scale}
	}
	return []Role{Origin, XAxis, Scale, TopRight}
}

// MarkerPoint is a located marker center in pixel coordinates.
type MarkerPoint struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Role       Role    `json:"role"`
	Confidence float64 `json:"confidence"`
}

// Point returns the marker center.
func (m MarkerPoint) Point() image.Point {
	return image.Pt(m.X, m.Y)
}

// MarkerSet holds at most one marker per role.
type MarkerSet []MarkerPoint

// Get returns the marker with the given role.
func (s MarkerSet) Get(role Role) (MarkerPoint, bool) {
	for _, m := range s {
		if m.Role == role {
			return m, true
		}
	}
	return MarkerPoint{}, false
}

// With returns a copy of the set with m replacing any marker of the same role.
func (s MarkerSet) With(m MarkerPoint) MarkerSet {
	out := make(MarkerSet, 0, len(s)+1)
	for _, existing := range s {
		if existing.Role != m.Role {
			out = append(out, existing)
		}
	}
	out = append(out, m)
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

// Validate checks that roles are unique and that every role required by the
// layout is present.
func (s MarkerSet) Validate(layout Layout) error {
	seen := make(map[Role]bool, len(s))
	for _, m := range s {
		if seen[m.Role] {
			return &CalibrationError{Kind: ErrDuplicateRole, Detail: m.Role.String()}
		}
		seen[m.Role] = true
	}
	var missing []string
	for _, r := range layout.Roles() {
		if !seen[r] {
			missing = append(missing, r.String())
		}
	}
	if len(missing) > 0 {
		return &CalibrationError{Kind: ErrMissingRole, Detail: strings.Join(missing, ", ")}
	}
	return nil
}

// AssignRoles labels three or four marker candidates by position.
//
// Candidates are sorted by Y. The bottom two become Origin (left) and XAxis
// (right); the rest, sorted by X, become Scale (left) and TopRight (right).
// With more than four candidates only the four most confident are used.
func AssignRoles(candidates []MarkerPoint) (MarkerSet, error) {
	if len(candidates) < 3 {
		return nil, &CalibrationError{
			Kind:   ErrMissingRole,
			Detail: fmt.Sprintf("need at least 3 markers, found %d", len(candidates)),
		}
	}

	pts := make([]MarkerPoint, len(candidates))
	copy(pts, candidates)
	if len(pts) > 4 {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Confidence > pts[j].Confidence })
		pts = pts[:4]
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Y < pts[j].Y })
	n := len(pts)
	bottom := []MarkerPoint{pts[n-2], pts[n-1]}
	top := pts[:n-2]
	byX := func(s []MarkerPoint) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].X < s[j].X })
	}
	byX(bottom)
	byX(top)

	bottom[0].Role, bottom[1].Role = Origin, XAxis
	set := MarkerSet{bottom[0], bottom[1]}
	top[0].Role = Scale
	set = append(set, top[0])
	if len(top) > 1 {
		top[len(top)-1].Role = TopRight
		set = append(set, top[len(top)-1])
	}
	return set, nil
}
