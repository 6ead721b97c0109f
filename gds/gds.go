// Package gds holds the in-memory data model for a hierarchical layout
// library: named structures containing geometry elements and placements of
// other structures. Values of this package are produced by an external
// decoder and treated as read-only by the rest of layview.
package gds

// LayerKey identifies a drawing layer: the (layer, datatype) pair used for
// styling and visibility.
type LayerKey struct {
	Layer    int32
	DataType int32
}

// Ord returns the key packed into a single ordered integer. Keys compare in
// (layer, datatype) order.
func (k LayerKey) Ord() uint64 {
	return uint64(uint32(k.Layer))<<32 | uint64(uint32(k.DataType))
}

// Library is the top-level container of structures plus unit metadata.
type Library struct {
	Name string

	// UserUnitsPerDBUnit and MetersPerDBUnit convert database units to user
	// units and meters respectively.
	UserUnitsPerDBUnit float64
	MetersPerDBUnit    float64

	Structures []*Structure

	byName map[string]*Structure
}

// Structure is a named, reusable collection of elements. Names are unique
// within a library; structures reference each other by name only.
type Structure struct {
	Name     string
	Elements []Element
}

// Structure looks up a structure by name.
func (l *Library) Structure(name string) (*Structure, bool) {
	if l.byName == nil {
		l.byName = make(map[string]*Structure, len(l.Structures))
		for _, s := range l.Structures {
			l.byName[s.Name] = s
		}
	}
	s, ok := l.byName[name]
	return s, ok
}

// TopStructure returns the name of a structure that no other structure
// references, which is the natural root for resolving the whole library.
// When several qualify the first one in library order wins; when none do
// (every structure is referenced, e.g. due to cycles), the first structure
// wins. The empty string is returned for an empty library.
func (l *Library) TopStructure() string {
	if len(l.Structures) == 0 {
		return ""
	}
	referenced := make(map[string]bool)
	for _, s := range l.Structures {
		for _, e := range s.Elements {
			switch e := e.(type) {
			case *SRef:
				referenced[e.StructureName] = true
			case *ARef:
				referenced[e.StructureName] = true
			}
		}
	}
	for _, s := range l.Structures {
		if !referenced[s.Name] {
			return s.Name
		}
	}
	return l.Structures[0].Name
}

// LibraryStats summarizes the contents of a library.
type LibraryStats struct {
	Structures int
	Boundaries int
	Paths      int
	Boxes      int
	Nodes      int
	Texts      int
	SRefs      int
	ARefs      int
}

func (s LibraryStats) Elements() int {
	return s.Boundaries + s.Paths + s.Boxes + s.Nodes + s.Texts + s.SRefs + s.ARefs
}

func (l *Library) Stats() LibraryStats {
	stats := LibraryStats{Structures: len(l.Structures)}
	for _, st := range l.Structures {
		for _, e := range st.Elements {
			switch e.(type) {
			case *Boundary:
				stats.Boundaries++
			case *Path:
				stats.Paths++
			case *Box:
				stats.Boxes++
			case *Node:
				stats.Nodes++
			case *Text:
				stats.Texts++
			case *SRef:
				stats.SRefs++
			case *ARef:
				stats.ARefs++
			}
		}
	}
	return stats
}

// DBUnitsToMeters converts a length in database units to meters.
func (l *Library) DBUnitsToMeters(v float64) float64 {
	return v * l.MetersPerDBUnit
}

// DBUnitsToUser converts a length in database units to user units.
func (l *Library) DBUnitsToUser(v float64) float64 {
	return v * l.UserUnitsPerDBUnit
}
