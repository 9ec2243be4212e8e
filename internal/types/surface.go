package types

// SurfaceKind is the controlled court surface vocabulary.
type SurfaceKind string

const (
	SurfaceHard  SurfaceKind = "hard"
	SurfaceClay  SurfaceKind = "clay"
	SurfaceGrass SurfaceKind = "grass"
)

// Surface is a normalized court surface: a controlled kind plus an indoor flag.
type Surface struct {
	Kind   SurfaceKind
	Indoor bool
}

// Label renders the surface the way the canonical dataset stores it:
// "Hard", "Clay (indoor)", etc.
func (s Surface) Label() string {
	var base string
	switch s.Kind {
	case SurfaceHard:
		base = "Hard"
	case SurfaceClay:
		base = "Clay"
	case SurfaceGrass:
		base = "Grass"
	default:
		return ""
	}
	if s.Indoor {
		return base + " (indoor)"
	}
	return base
}
