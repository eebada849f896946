package graph

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// ModeSet is a set of transport modes stored as bits.
type ModeSet uint8

const (
	ModeTaxi ModeSet = 1 << iota
	ModeBus
	ModeUnderground
	ModeFerry
)

var modeOrder = []ticket.Kind{ticket.Taxi, ticket.Bus, ticket.Underground, ticket.Ferry}

func modeBit(k ticket.Kind) ModeSet {
	switch k {
	case ticket.Taxi:
		return ModeTaxi
	case ticket.Bus:
		return ModeBus
	case ticket.Underground:
		return ModeUnderground
	case ticket.Ferry:
		return ModeFerry
	}
	return 0
}

// ParseMode turns a mode name into a single-mode set.
func ParseMode(s string) (ModeSet, error) {
	k, ok := ticket.ParseKind(s)
	if !ok || !k.IsMode() {
		return 0, fmt.Errorf("unknown mode %q", s)
	}
	return modeBit(k), nil
}

func (m ModeSet) Has(k ticket.Kind) bool {
	b := modeBit(k)
	return b != 0 && m&b != 0
}

// Kinds lists the modes in the set.
func (m ModeSet) Kinds() []ticket.Kind {
	var out []ticket.Kind
	for _, k := range modeOrder {
		if m.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (m ModeSet) MarshalJSON() ([]byte, error) {
	kinds := m.Kinds()
	if kinds == nil {
		kinds = []ticket.Kind{}
	}
	return json.Marshal(kinds)
}

// Neighbor is an adjacent station and the modes linking it.
type Neighbor struct {
	Station int     `json:"station"`
	Modes   ModeSet `json:"modes"`
}

// Graph is an immutable multi-modal transport graph. It is safe for concurrent
// readers once Load has returned.
type Graph struct {
	def      Definition
	stations map[int]StationDef
	ids      []int
	adj      map[int]map[int]ModeSet
	starts   []int
	ferry    map[int]bool
	edges    int
}

// Load builds a graph from a definition. Duplicate edges between the same
// pair of stations are merged by taking the union of their modes.
func Load(def Definition) (*Graph, error) {
	g := &Graph{
		stations: make(map[int]StationDef, len(def.Stations)),
		adj:      make(map[int]map[int]ModeSet, len(def.Stations)),
		ferry:    make(map[int]bool, len(def.FerryStations)),
	}
	for _, s := range def.Stations {
		if s.ID <= 0 {
			return nil, fmt.Errorf("station id %d must be positive", s.ID)
		}
		if _, dup := g.stations[s.ID]; dup {
			return nil, fmt.Errorf("duplicate station %d", s.ID)
		}
		g.stations[s.ID] = s
		g.adj[s.ID] = map[int]ModeSet{}
		g.ids = append(g.ids, s.ID)
	}
	slices.Sort(g.ids)

	for i, e := range def.Edges {
		if e.From == e.To {
			return nil, fmt.Errorf("edge %d: self loop on station %d", i, e.From)
		}
		if !g.Has(e.From) || !g.Has(e.To) {
			return nil, fmt.Errorf("edge %d: unknown endpoint in {%d, %d}", i, e.From, e.To)
		}
		if len(e.Modes) == 0 {
			return nil, fmt.Errorf("edge %d: no modes", i)
		}
		var modes ModeSet
		for _, name := range e.Modes {
			m, err := ParseMode(name)
			if err != nil {
				return nil, fmt.Errorf("edge %d: %w", i, err)
			}
			modes |= m
		}
		if g.adj[e.From][e.To] == 0 {
			g.edges++
		}
		g.adj[e.From][e.To] |= modes
		g.adj[e.To][e.From] |= modes
	}

	for _, s := range def.StartingStations {
		if !g.Has(s) {
			return nil, fmt.Errorf("starting station %d is not on the map", s)
		}
		if !slices.Contains(g.starts, s) {
			g.starts = append(g.starts, s)
		}
	}
	for _, s := range def.FerryStations {
		if !g.Has(s) {
			return nil, fmt.Errorf("ferry station %d is not on the map", s)
		}
		g.ferry[s] = true
	}

	g.def = def
	return g, nil
}

// Definition returns the definition the graph was loaded from.
func (g *Graph) Definition() Definition { return g.def }

func (g *Graph) Name() string { return g.def.Name }

// Has reports whether s is a known station.
func (g *Graph) Has(s int) bool {
	_, ok := g.stations[s]
	return ok
}

// Stations returns all station ids in ascending order.
func (g *Graph) Stations() []int { return slices.Clone(g.ids) }

// EdgeCount is the number of distinct station pairs joined by an edge.
func (g *Graph) EdgeCount() int { return g.edges }

// StartingStations returns the stations players may start on.
func (g *Graph) StartingStations() []int { return slices.Clone(g.starts) }

func (g *Graph) IsFerry(s int) bool { return g.ferry[s] }

// Neighbors lists every station adjacent to s, ordered by id.
func (g *Graph) Neighbors(s int) []Neighbor {
	row := g.adj[s]
	out := make([]Neighbor, 0, len(row))
	for to, modes := range row {
		out = append(out, Neighbor{Station: to, Modes: modes})
	}
	slices.SortFunc(out, func(a, b Neighbor) int { return a.Station - b.Station })
	return out
}

// Modes returns the merged mode set between a and b, in either order.
func (g *Graph) Modes(a, b int) ModeSet {
	return g.adj[a][b]
}

// Connected reports whether an edge between a and b carries mode.
func (g *Graph) Connected(a, b int, mode ticket.Kind) bool {
	return g.Modes(a, b).Has(mode)
}

// Adjacent reports whether any edge joins a and b.
func (g *Graph) Adjacent(a, b int) bool {
	return g.Modes(a, b) != 0
}

// ValidTicketsFor returns the tickets that could pay for a move from a to b.
// Black applies to any edge, ferry included. Ferry itself is never a ticket.
func (g *Graph) ValidTicketsFor(a, b int) []ticket.Kind {
	modes := g.Modes(a, b)
	if modes == 0 {
		return nil
	}
	var out []ticket.Kind
	for _, k := range modes.Kinds() {
		if k != ticket.Ferry {
			out = append(out, k)
		}
	}
	return append(out, ticket.Black)
}
